package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/CodeNeuron58/RxGuard/internal/critic"
	"github.com/CodeNeuron58/RxGuard/internal/embedder"
	"github.com/CodeNeuron58/RxGuard/internal/extract"
	"github.com/CodeNeuron58/RxGuard/internal/guideline"
	"github.com/CodeNeuron58/RxGuard/internal/llm"
	"github.com/CodeNeuron58/RxGuard/internal/llm/providers"
	"github.com/CodeNeuron58/RxGuard/internal/pipeline"
	"github.com/CodeNeuron58/RxGuard/internal/reason"
	"github.com/CodeNeuron58/RxGuard/internal/schema"
	"github.com/CodeNeuron58/RxGuard/internal/types"
	"github.com/CodeNeuron58/RxGuard/internal/vector"
)

var (
	noteText       string
	noteFile       string
	proposedDrugs  []string
	outputFormat   string
	guidelinesFile string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a prescription safety check",
	Long: `Check analyzes a clinical note against one or more proposed drugs.
The note is read from --note or --note-file; guideline passages are
loaded from --guidelines (or the configured index path) into the
in-process vector index before the run.`,
	Example: `  rxguard check --note-file note.txt --drug Ibuprofen --drug Paracetamol
  rxguard check --note "68yo male, CKD stage 3..." --drug Ibuprofen --output yaml`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	note, err := resolveNote()
	if err != nil {
		return err
	}
	if len(proposedDrugs) == 0 {
		return types.NewError(types.VALIDATION_FAILED, "at least one --drug is required")
	}

	provider, err := providers.NewProvider(llm.ProviderConfig{
		Type:    cfg.LLM.Provider,
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	emb, err := embedder.New(cfg.Embedder)
	if err != nil {
		return err
	}
	store := vector.NewEmbeddedStore(emb.Dimensions())

	indexPath := guidelinesFile
	if indexPath == "" {
		indexPath = cfg.Index.Path
	}
	if indexPath != "" {
		if err := seedIndex(cmd, store, emb, indexPath); err != nil {
			return err
		}
	}

	pipelineOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	tp, err := newTracerProvider(cmd.Context(), cfg.Tracing)
	if err != nil {
		return err
	}
	if tp != nil {
		defer func() { _ = tp.Shutdown(cmd.Context()) }()
		pipelineOpts = append(pipelineOpts, pipeline.WithTracer(tp.Tracer("rxguard")))
	}

	p := pipeline.New(
		extract.NewProfileExtractor(provider, cfg.LLM.Model,
			extract.WithLogger(logger), extract.WithMaxTokens(cfg.LLM.MaxTokens),
			extract.WithTemperature(cfg.LLM.Temperature)),
		guideline.NewStoreRetriever(store, emb, guideline.WithLogger(logger)),
		reason.NewRiskReasoner(provider, cfg.LLM.Model,
			reason.WithLogger(logger), reason.WithMaxTokens(cfg.LLM.MaxTokens),
			reason.WithTemperature(cfg.LLM.Temperature)),
		critic.NewSafetyCritic(provider, cfg.LLM.Model,
			critic.WithLogger(logger), critic.WithTemperature(cfg.LLM.Temperature)),
		cfg.Pipeline,
		pipelineOpts...,
	)

	report, runErr := p.Run(cmd.Context(), note, proposedDrugs)
	if report != nil {
		if err := writeReport(cmd, report); err != nil {
			return err
		}
	}
	return runErr
}

// resolveNote reads the clinical note from --note or --note-file.
func resolveNote() (string, error) {
	if noteText != "" && noteFile != "" {
		return "", types.NewError(types.VALIDATION_FAILED, "use either --note or --note-file, not both")
	}
	if noteText != "" {
		return noteText, nil
	}
	if noteFile == "" {
		return "", types.NewError(types.VALIDATION_FAILED, "a clinical note is required (--note or --note-file)")
	}

	data, err := os.ReadFile(noteFile)
	if err != nil {
		return "", types.WrapError(types.VALIDATION_FAILED, "failed to read note file", err)
	}
	return string(data), nil
}

// seedIndex loads guideline passages from a YAML file into the vector index.
func seedIndex(cmd *cobra.Command, store vector.Store, emb embedder.Embedder, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read guidelines file", err)
	}

	var entries []guideline.IndexEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return types.WrapError(types.CONFIG_PARSE_FAILED, "failed to parse guidelines file", err)
	}

	return guideline.Seed(cmd.Context(), store, emb, entries)
}

// writeReport renders the final report to stdout in the requested format.
func writeReport(cmd *cobra.Command, report *schema.FinalReport) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(report)
	default:
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("unsupported output format: %q (use json or yaml)", outputFormat))
	}
}

func init() {
	checkCmd.Flags().StringVar(&noteText, "note", "", "Clinical note text")
	checkCmd.Flags().StringVar(&noteFile, "note-file", "", "Path to a file containing the clinical note")
	checkCmd.Flags().StringArrayVar(&proposedDrugs, "drug", nil, "Proposed drug to evaluate (repeatable)")
	checkCmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "Output format: json or yaml")
	checkCmd.Flags().StringVar(&guidelinesFile, "guidelines", "", "YAML file of guideline passages to index")
}

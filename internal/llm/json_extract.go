package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Every model contract in this codebase asks for exactly one JSON object:
// an extraction payload, a risk verdict, or a critique. ExtractJSON recovers
// that object from a response that may wrap it in markdown or prose, and
// rejects output carrying more than one JSON value, since a second value
// means the model ignored its instructions and the payload cannot be trusted.
func ExtractJSON(response string) (string, error) {
	if body, ok := fencedBody(response); ok {
		if obj, err := firstObject(body); err == nil {
			return obj, nil
		}
	}
	return firstObject(response)
}

// fencedBody returns the contents of the first markdown code fence tagged
// json or left untagged. Fences tagged with another language are skipped.
func fencedBody(s string) (string, bool) {
	for {
		open := strings.Index(s, "```")
		if open < 0 {
			return "", false
		}
		rest := s[open+3:]

		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			return "", false
		}
		lang := strings.TrimSpace(rest[:nl])

		body := rest[nl+1:]
		end := strings.Index(body, "```")
		if end < 0 {
			return "", false
		}

		if lang == "" || strings.EqualFold(lang, "json") {
			return strings.TrimSpace(body[:end]), true
		}
		s = body[end+3:]
	}
}

// firstObject decodes the first JSON object in s. A second JSON value after
// the object fails the single-object contract; trailing prose does not.
func firstObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in model output")
	}

	dec := json.NewDecoder(strings.NewReader(s[start:]))

	var obj json.RawMessage
	if err := dec.Decode(&obj); err != nil {
		return "", fmt.Errorf("malformed JSON object in model output: %w", err)
	}

	var extra json.RawMessage
	if err := dec.Decode(&extra); err == nil {
		return "", fmt.Errorf("model output contains more than one JSON value")
	}

	return string(obj), nil
}

// ExtractJSONAs extracts the JSON object and unmarshals it into T.
func ExtractJSONAs[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return result, nil
}

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var errEmptyInput = errors.New("empty input")

type item interface {
	itemID() string
}

// partial is implemented by outputs that carry row-level errors of their own.
type partial interface {
	hasErrors() bool
}

type errorOutput struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// Process decodes a single object or an array of objects, runs fn on each and
// encodes the results in the same shape. Failed items become {"error": ...}
// and set failed; they never abort the others.
func Process[In item, Out any](raw []byte, fn func(In) (Out, error)) (out []byte, failed bool, err error) {
	inputs, isArray, err := decodeInputs[In](raw)
	if err != nil {
		return nil, false, err
	}

	results := make([]any, len(inputs))
	for i, in := range inputs {
		res, err := fn(in)
		if err != nil {
			failed = true
			results[i] = errorOutput{ID: in.itemID(), Error: err.Error()}
			continue
		}
		if p, ok := any(res).(partial); ok && p.hasErrors() {
			failed = true
		}
		results[i] = res
	}

	if isArray {
		out, err = json.Marshal(results)
	} else {
		out, err = json.Marshal(results[0])
	}
	if err != nil {
		return nil, failed, fmt.Errorf("encode output: %w", err)
	}
	return out, failed, nil
}

func decodeInputs[In any](raw []byte) ([]In, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, errEmptyInput
	}
	if trimmed[0] == '[' {
		var inputs []In
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, fmt.Errorf("parse JSON: %w", err)
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array: %w", errEmptyInput)
		}
		return inputs, true, nil
	}
	var input In
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, fmt.Errorf("parse JSON: %w", err)
	}
	return []In{input}, false, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

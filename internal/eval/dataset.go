package eval

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 8 << 20

// Pair is a SQL query with its reference explanation.
type Pair struct {
	SQL string `json:"sql"`
	NL  string `json:"nl"`
}

// Prediction is a generated explanation with its reference.
type Prediction struct {
	Predicted string `json:"nl_pred"`
	Reference string `json:"nl_true"`
}

// LoadPairs reads Pair records from JSONL.
func LoadPairs(r io.Reader) ([]Pair, error) {
	return readJSONL[Pair](r)
}

// LoadPredictions reads Prediction records from JSONL.
func LoadPredictions(r io.Reader) ([]Prediction, error) {
	return readJSONL[Prediction](r)
}

// LoadPairsFile reads Pair records from a JSONL file.
func LoadPairsFile(path string) ([]Pair, error) {
	return readJSONLFile[Pair](path)
}

// LoadPredictionsFile reads Prediction records from a JSONL file.
func LoadPredictionsFile(path string) ([]Prediction, error) {
	return readJSONLFile[Prediction](path)
}

func readJSONLFile[T any](path string) ([]T, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the user
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := readJSONL[T](f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// readJSONL decodes one record per non-blank line.
func readJSONL[T any](r io.Reader) ([]T, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []T
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return out, nil
}

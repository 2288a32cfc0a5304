package lsh

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ExecutionTime is the server-reported run time in seconds. The server has
// sent it both as a number and as a numeric string; any other shape leaves it
// unset instead of failing the response.
type ExecutionTime struct {
	Seconds float64
	Valid   bool
}

func (e *ExecutionTime) UnmarshalJSON(data []byte) error {
	*e = parseExecutionTime(data)
	return nil
}

func parseExecutionTime(raw json.RawMessage) ExecutionTime {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return ExecutionTime{}
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return validSeconds(num)
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		num, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return ExecutionTime{}
		}
		return validSeconds(num)
	}

	return ExecutionTime{}
}

func validSeconds(v float64) ExecutionTime {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ExecutionTime{}
	}
	return ExecutionTime{Seconds: v, Valid: true}
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

type replaceResponse struct {
	ExecutionTime ExecutionTime              `json:"execution_time"`
	SimilarDocs   map[string]json.RawMessage `json:"similar_docs"`
}

// decodeReplaceBody parses a 200 body from /replace. Scores that are not
// numbers are dropped and reported through skipped; a body that is not JSON at
// all returns an error.
func decodeReplaceBody(body []byte) (scores map[string]float64, execTime ExecutionTime, skipped []string, err error) {
	var resp replaceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, ExecutionTime{}, nil, fmt.Errorf("decode replace response: %w", err)
	}

	scores = make(map[string]float64, len(resp.SimilarDocs))
	for id, raw := range resp.SimilarDocs {
		var score float64
		if isNull(raw) {
			skipped = append(skipped, id)
			continue
		}
		if err := json.Unmarshal(raw, &score); err != nil {
			skipped = append(skipped, id)
			continue
		}
		scores[id] = score
	}

	return scores, resp.ExecutionTime, skipped, nil
}

type readResponse struct {
	FileContent *string `json:"file_content"`
}

func decodeReadBody(body []byte) (string, error) {
	var resp readResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode read response: %w", err)
	}
	if resp.FileContent == nil {
		return "", errMissingContent
	}
	return *resp.FileContent, nil
}

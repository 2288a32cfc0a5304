package lsh

import (
	"encoding/json"
	"testing"
)

func TestParseExecutionTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantValid bool
		want      float64
	}{
		{"number", `0.412`, true, 0.412},
		{"integer", `3`, true, 3},
		{"numeric string", `"1.25"`, true, 1.25},
		{"padded string", `" 2.5 "`, true, 2.5},
		{"word string", `"fast"`, false, 0},
		{"null", `null`, false, 0},
		{"bool", `true`, false, 0},
		{"object", `{"s": 1}`, false, 0},
		{"empty", ``, false, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := parseExecutionTime(json.RawMessage(tt.raw))
			if got.Valid != tt.wantValid {
				t.Fatalf("parseExecutionTime(%s).Valid = %v, want %v", tt.raw, got.Valid, tt.wantValid)
			}
			if got.Seconds != tt.want {
				t.Fatalf("parseExecutionTime(%s).Seconds = %v, want %v", tt.raw, got.Seconds, tt.want)
			}
		})
	}
}

func TestDecodeReplaceBody_Full(t *testing.T) {
	scores, execTime, skipped, err := decodeReplaceBody([]byte(`{
		"execution_time": "0.031",
		"similar_docs": {"doc_3": 0.87, "doc_1": 0.61}
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scores) != 2 || scores["doc_3"] != 0.87 || scores["doc_1"] != 0.61 {
		t.Errorf("unexpected scores: %v", scores)
	}
	if !execTime.Valid || execTime.Seconds != 0.031 {
		t.Errorf("unexpected execution time: %+v", execTime)
	}
	if len(skipped) != 0 {
		t.Errorf("expected nothing skipped, got %v", skipped)
	}
}

func TestDecodeReplaceBody_MissingFields(t *testing.T) {
	scores, execTime, _, err := decodeReplaceBody([]byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if scores == nil || len(scores) != 0 {
		t.Errorf("expected empty non-nil scores, got %v", scores)
	}
	if execTime.Valid {
		t.Errorf("expected execution time unset, got %+v", execTime)
	}
}

func TestDecodeReplaceBody_BadExecutionTimeKeepsScores(t *testing.T) {
	scores, execTime, _, err := decodeReplaceBody([]byte(`{"execution_time": [1], "similar_docs": {"doc_2": 0.7}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if execTime.Valid {
		t.Error("expected execution time to stay unset")
	}
	if scores["doc_2"] != 0.7 {
		t.Errorf("expected doc_2 score 0.7, got %v", scores)
	}
}

func TestDecodeReplaceBody_SkipsNonNumericScores(t *testing.T) {
	scores, _, skipped, err := decodeReplaceBody([]byte(`{"similar_docs": {"doc_1": "high", "doc_2": null, "doc_3": 0.5}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scores) != 1 || scores["doc_3"] != 0.5 {
		t.Errorf("unexpected scores: %v", scores)
	}
	if len(skipped) != 2 {
		t.Errorf("expected 2 skipped ids, got %v", skipped)
	}
}

func TestDecodeReplaceBody_Malformed(t *testing.T) {
	if _, _, _, err := decodeReplaceBody([]byte(`{"similar_docs": `)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestDecodeReadBody(t *testing.T) {
	content, err := decodeReadBody([]byte(`{"file_content": "hello"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "hello" {
		t.Errorf("expected 'hello', got '%s'", content)
	}

	if _, err := decodeReadBody([]byte(`{}`)); err == nil {
		t.Error("expected error when file_content is missing")
	}
}

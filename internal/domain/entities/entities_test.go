package entities

import (
	"encoding/json"
	"testing"
)

func TestSourceItem_NullableScores(t *testing.T) {
	raw := `{"source":"doc-1","text":"snippet","hybrid_score":0.8,"dense_score":0.7,"bm25_score":1.2,"score":null,"dense_distance":0.25}`

	var item SourceItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if item.Score != nil {
		t.Errorf("expected nil score for null, got %v", *item.Score)
	}
	if item.BM25RawScore != nil {
		t.Error("expected nil bm25 raw score when absent")
	}
	if item.DenseDistance == nil || *item.DenseDistance != 0.25 {
		t.Errorf("expected dense distance 0.25, got %v", item.DenseDistance)
	}
	if item.HybridScore != 0.8 {
		t.Errorf("expected hybrid score 0.8, got %v", item.HybridScore)
	}
}

func TestGenerateResponse_OptionalFields(t *testing.T) {
	var resp GenerateResponse
	if err := json.Unmarshal([]byte(`{"intent":"normal_chat","text":"Hello"}`), &resp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if resp.Sources != nil {
		t.Error("sources should be nil when omitted")
	}
	if resp.ToolCalls != nil {
		t.Error("tool calls should be nil when omitted")
	}
}

func TestGenerateResponse_EmptySourcesPreserved(t *testing.T) {
	var resp GenerateResponse
	if err := json.Unmarshal([]byte(`{"intent":"normal_chat","text":"Hello","sources":[]}`), &resp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Errorf("expected empty non-nil sources, got %#v", resp.Sources)
	}
}

func TestHistoryEntry_Roles(t *testing.T) {
	var entries []HistoryEntry
	raw := `[{"role":"user","content":"hi","intent":"normal_chat"},{"role":"assistant","content":"hello","intent":"normal_chat","timestamp":"2024-05-01T10:00:00Z"}]`
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if entries[0].Role != RoleUser || entries[1].Role != RoleAssistant {
		t.Error("roles not decoded correctly")
	}
	if entries[1].Timestamp == "" {
		t.Error("timestamp should be decoded")
	}
}

func TestUiMessage_IsUser(t *testing.T) {
	if !(UiMessage{Role: RoleUser}).IsUser() {
		t.Error("user message should report IsUser")
	}
	if (UiMessage{Role: RoleAssistant}).IsUser() {
		t.Error("assistant message should not report IsUser")
	}
}

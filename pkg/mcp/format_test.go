package mcp

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFormatCallResultTextBlocks(t *testing.T) {
	raw := json.RawMessage(`{"content":[{"type":"text","text":"The sum is 4"}]}`)
	result := FormatCallResult(raw, 0)
	if result.Content != "The sum is 4" {
		t.Errorf("content = %q", result.Content)
	}
	if result.IsError {
		t.Error("unexpected error flag")
	}
}

func TestFormatCallResultJoinsBlocks(t *testing.T) {
	raw := json.RawMessage(`{"content":[{"type":"text","text":"first"},{"type":"image","data":"x"},{"type":"text","text":"second"}]}`)
	result := FormatCallResult(raw, 0)
	if result.Content != "first\nsecond" {
		t.Errorf("content = %q", result.Content)
	}
}

func TestFormatCallResultErrorFlag(t *testing.T) {
	raw := json.RawMessage(`{"content":[{"type":"text","text":"division by zero"}],"isError":true}`)
	result := FormatCallResult(raw, 0)
	if !result.IsError {
		t.Error("isError not propagated")
	}
	if result.Content != "division by zero" {
		t.Errorf("content = %q", result.Content)
	}
}

func TestFormatCallResultStructuredContent(t *testing.T) {
	raw := json.RawMessage(`{"content":[],"structuredContent":{"sum":4}}`)
	result := FormatCallResult(raw, 0)
	if !strings.Contains(result.Content, `"sum":4`) {
		t.Errorf("structured content missing: %q", result.Content)
	}
}

func TestFormatCallResultEmpty(t *testing.T) {
	result := FormatCallResult(json.RawMessage(`{}`), 0)
	if result.Content != "{}" {
		t.Errorf("content = %q", result.Content)
	}
}

func TestFormatCallResultNotAnObject(t *testing.T) {
	result := FormatCallResult(json.RawMessage(`"plain text"`), 0)
	if result.Content == "" {
		t.Error("fallback should keep the raw payload")
	}
}

func TestFormatCallResultTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	raw := json.RawMessage(`{"content":[{"type":"text","text":"` + long + `"}]}`)
	result := FormatCallResult(raw, 100)
	if len(result.Content) > 140 {
		t.Errorf("content not truncated: %d bytes", len(result.Content))
	}
	if !strings.Contains(result.Content, "truncated") {
		t.Errorf("missing truncation marker: %q", result.Content)
	}
}

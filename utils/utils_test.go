package utils

import (
	"slices"
	"strings"
	"testing"
)

func TestParseExtraValue(t *testing.T) {
	if v, ok := ParseExtraValue("42").(int); !ok || v != 42 {
		t.Errorf("Expected int 42, got %#v", ParseExtraValue("42"))
	}
	if v, ok := ParseExtraValue("true").(bool); !ok || !v {
		t.Errorf("Expected bool true, got %#v", ParseExtraValue("true"))
	}
	// "1"/"t" are ints or strings, never bools
	if _, ok := ParseExtraValue("t").(string); !ok {
		t.Errorf("Expected string, got %#v", ParseExtraValue("t"))
	}
}

func TestParseKeyValue(t *testing.T) {
	k, v, ok := ParseKeyValue("class=com.example.Test#method=x")
	if !ok || k != "class" || v != "com.example.Test#method=x" {
		t.Errorf("ParseKeyValue = %q %q %v", k, v, ok)
	}
	if _, _, ok := ParseKeyValue("=x"); ok {
		t.Errorf("Expected empty key to be rejected")
	}
}

func TestParseInts(t *testing.T) {
	got, err := ParseInts("100, 200,300")
	if err != nil || !slices.Equal(got, []int{100, 200, 300}) {
		t.Errorf("ParseInts = %v, %v", got, err)
	}
	if _, err := ParseInts("1,x"); err == nil {
		t.Errorf("Expected error for non-numeric input")
	}
}

func TestJsonIndent(t *testing.T) {
	out := JsonIndent(map[string]int{"a": 1})
	if !strings.Contains(out, `"a": 1`) {
		t.Errorf("Unexpected JSON: %s", out)
	}
	if JsonString([]string{"x"}) != `["x"]` {
		t.Errorf("Unexpected JSON: %s", JsonString([]string{"x"}))
	}
}

func TestWriteJSON(t *testing.T) {
	var sb strings.Builder
	if err := WriteJSON(&sb, map[string]string{"k": "v"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if sb.String() != "{\n  \"k\": \"v\"\n}\n" {
		t.Errorf("Unexpected output: %q", sb.String())
	}
}

package model

import (
	"encoding/json"
	"testing"
)

func TestVariantOf(t *testing.T) {
	tests := []struct {
		name string
		in   any
		kind VariantKind
		want string
	}{
		{"nil", nil, VariantAbsent, ""},
		{"empty string", "  ", VariantAbsent, ""},
		{"text", "use retries=3", VariantText, "use retries=3"},
		{"list", []any{"pin the version", "add a retry"}, VariantList, "  - pin the version\n  - add a retry"},
		{"mixed list", []any{"a", float64(2)}, VariantList, "  - a\n  - 2"},
		{"empty list", []any{}, VariantAbsent, ""},
		{"object", map[string]any{"before": "x", "after": "y"}, VariantStructured, "{\n  \"after\": \"y\",\n  \"before\": \"x\"\n}"},
		{"number", float64(3), VariantText, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := VariantOf(tt.in)
			if v.Kind() != tt.kind {
				t.Fatalf("kind = %s, want %s", v.Kind(), tt.kind)
			}
			if got := v.Render(); got != tt.want {
				t.Fatalf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVariant_JSONShapes(t *testing.T) {
	var doc struct {
		A Variant `json:"a"`
		B Variant `json:"b"`
		C Variant `json:"c"`
		D Variant `json:"d"`
	}
	in := `{"a":null,"b":"fix it","c":["one","two"],"d":{"k":"v"}}`
	if err := json.Unmarshal([]byte(in), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.A.Kind() != VariantAbsent || doc.B.Kind() != VariantText ||
		doc.C.Kind() != VariantList || doc.D.Kind() != VariantStructured {
		t.Fatalf("unexpected kinds: %s %s %s %s", doc.A.Kind(), doc.B.Kind(), doc.C.Kind(), doc.D.Kind())
	}
	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != in {
		t.Fatalf("got %s, want %s", out, in)
	}
}

func TestRunTime_JSON(t *testing.T) {
	var zero RunTime
	b, _ := json.Marshal(zero)
	if string(b) != `"N/A"` {
		t.Fatalf("zero run time = %s", b)
	}

	var rt RunTime
	if err := json.Unmarshal([]byte(`"2024-03-01 10:05"`), &rt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rt.Hour() != 10 || rt.Minute() != 5 {
		t.Fatalf("unexpected time: %v", rt.Time)
	}
	b, _ = json.Marshal(rt)
	if string(b) != `"2024-03-01 10:05"` {
		t.Fatalf("round trip = %s", b)
	}
	if err := json.Unmarshal([]byte(`"N/A"`), &rt); err != nil || !rt.IsZero() {
		t.Fatalf("N/A should decode to zero, got %v (%v)", rt.Time, err)
	}
}

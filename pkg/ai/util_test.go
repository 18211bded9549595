package ai

import (
	"errors"
	"testing"

	"github.com/reglens/backend/pkg/common"
)

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	type judgment struct {
		Status     string  `json:"compliance_status"`
		Confidence float64 `json:"confidence,omitempty"`
	}

	tests := []struct {
		name  string
		input string
		want  judgment
	}{
		{
			name:  "valid json object",
			input: `{"compliance_status":"Violation"}`,
			want:  judgment{Status: "Violation"},
		},
		{
			name:  "unquoted key and single quotes",
			input: `{compliance_status: 'Violation'}`,
			want:  judgment{Status: "Violation"},
		},
		{
			name:  "trailing comma",
			input: `{"compliance_status":"Violation",}`,
			want:  judgment{Status: "Violation"},
		},
		{
			name:  "missing endbracket",
			input: `{"compliance_status":"Violation`,
			want:  judgment{Status: "Violation"},
		},
		{
			name:  "stringified json object",
			input: `"{\"compliance_status\": \"Violation\"}"`,
			want:  judgment{Status: "Violation"},
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"compliance_status\": \"Violation\"\n}\n",
			want:  judgment{Status: "Violation"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got judgment
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got.Status != tc.want.Status || got.Confidence != tc.want.Confidence {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	type judgment struct {
		Status string `json:"compliance_status"`
	}

	var got judgment
	if err := UnmarshalFlexible("hello", &got); err == nil {
		t.Fatalf("UnmarshalFlexible() expected error for unrecoverable input")
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"a":1}`,
			want:  `{"a":1}`,
		},
		{
			name:  "object wrapped in prose",
			input: "Here is my analysis:\n{\"a\":1}\nHope this helps.",
			want:  `{"a":1}`,
		},
		{
			name:  "nested object stops at balance",
			input: `{"a":{"b":2}} trailing {"c":3}`,
			want:  `{"a":{"b":2}}`,
		},
		{
			name:  "braces inside strings are skipped",
			input: `{"reason":"uses { and } freely"}`,
			want:  `{"reason":"uses { and } freely"}`,
		},
		{
			name:    "no object",
			input:   "no json here",
			wantErr: true,
		},
		{
			name:    "never closed",
			input:   `{"a":1`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ExtractJSONObject() expected error, got %q", got)
				}
				if !errors.Is(err, common.ErrParseFailure) {
					t.Fatalf("ExtractJSONObject() error = %v, want ErrParseFailure", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSONObject() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("ExtractJSONObject() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFirstObject(t *testing.T) {
	type judgment struct {
		Status string `json:"compliance_status"`
	}

	var got judgment
	input := "Based on the regulation, my verdict:\n{compliance_status: 'Risk'}\n"
	if err := UnmarshalFirstObject(input, &got); err != nil {
		t.Fatalf("UnmarshalFirstObject() error = %v", err)
	}
	if got.Status != "Risk" {
		t.Fatalf("UnmarshalFirstObject() status = %q, want %q", got.Status, "Risk")
	}

	if err := UnmarshalFirstObject("plain prose", &got); !errors.Is(err, common.ErrParseFailure) {
		t.Fatalf("UnmarshalFirstObject() error = %v, want ErrParseFailure", err)
	}
}

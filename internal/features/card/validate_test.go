package card

import (
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
)

func floatPtr(f float64) *float64 { return &f }

func schemaConfig() *workflow.Configuration {
	return &workflow.Configuration{
		WorkflowID: "sales",
		Fields: []workflow.WorkflowField{
			{Slug: "budget", Schema: workflow.FieldSchema{
				Kind: workflow.FieldKindNumber, Min: floatPtr(0), Max: floatPtr(1000000),
			}},
			{Slug: "po_number", Schema: workflow.FieldSchema{
				Kind: workflow.FieldKindText, Regex: `^PO-\d{4}$`,
			}},
			{Slug: "stage", Schema: workflow.FieldSchema{
				Kind: workflow.FieldKindChoice, Choices: []string{"cold", "warm", "hot"},
			}},
			{Slug: "channels", Schema: workflow.FieldSchema{
				Kind: workflow.FieldKindMultiChoice, Choices: []string{"email", "phone"},
			}},
			{Slug: "signed", Schema: workflow.FieldSchema{Kind: workflow.FieldKindBool}},
			{Slug: "site", Schema: workflow.FieldSchema{Kind: workflow.FieldKindURL}},
			{Slug: "tags", Schema: workflow.FieldSchema{Kind: workflow.FieldKindList}},
		},
	}
}

func TestValidateFieldData(t *testing.T) {
	cfg := schemaConfig()

	tests := []struct {
		name    string
		data    map[string]interface{}
		wantErr string
	}{
		{
			name: "all valid",
			data: map[string]interface{}{
				"budget":   5000.0,
				"po_number": "PO-1234",
				"stage":    "warm",
				"channels": []interface{}{"email"},
				"signed":   true,
				"site":     "https://acme.example.com",
				"tags":     []interface{}{"priority"},
			},
		},
		{
			name:    "number below minimum",
			data:    map[string]interface{}{"budget": -1.0},
			wantErr: "below minimum",
		},
		{
			name:    "number above maximum",
			data:    map[string]interface{}{"budget": 2000000.0},
			wantErr: "above maximum",
		},
		{
			name:    "number wrong type",
			data:    map[string]interface{}{"budget": "lots"},
			wantErr: "expected a number",
		},
		{
			name:    "text pattern mismatch",
			data:    map[string]interface{}{"po_number": "1234"},
			wantErr: "does not match pattern",
		},
		{
			name:    "unknown choice",
			data:    map[string]interface{}{"stage": "boiling"},
			wantErr: "not one of the declared choices",
		},
		{
			name:    "multi-choice with bad element",
			data:    map[string]interface{}{"channels": []interface{}{"email", "fax"}},
			wantErr: "not one of the declared choices",
		},
		{
			name:    "bool wrong type",
			data:    map[string]interface{}{"signed": "yes"},
			wantErr: "expected a boolean",
		},
		{
			name:    "url without scheme",
			data:    map[string]interface{}{"site": "acme.example.com"},
			wantErr: "not an http(s) URL",
		},
		{
			name:    "list wrong type",
			data:    map[string]interface{}{"tags": "priority"},
			wantErr: "expected a list",
		},
		{
			name: "nil values pass",
			data: map[string]interface{}{"budget": nil},
		},
		{
			name: "unknown keys pass",
			data: map[string]interface{}{"freeform": "anything"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFieldData(cfg, tt.data)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFieldDataCollectsAllViolations(t *testing.T) {
	err := validateFieldData(schemaConfig(), map[string]interface{}{
		"budget": "lots",
		"stage":  "boiling",
		"signed": "yes",
	})
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if got := len(multierr.Errors(err)); got != 3 {
		t.Fatalf("aggregated %d errors, want 3: %v", got, err)
	}
}

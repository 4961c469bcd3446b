package workflow

import (
	"strings"
	"testing"
)

func validConfig() *Configuration {
	return &Configuration{
		WorkflowID: "lead-to-proposal",
		Name:       "Lead to Proposal",
		Fields: []WorkflowField{
			{Slug: "contactPoint", Title: "Contact Point", Schema: FieldSchema{Kind: FieldKindText}},
			{Slug: "budgetLink", Title: "Budget", Schema: FieldSchema{Kind: FieldKindURL}},
			{Slug: "refNo", Title: "Reference", Schema: FieldSchema{Kind: FieldKindText}, DocumentIdentifier: true},
		},
		Statuses: []WorkflowStatus{
			{Slug: "brewing", Title: "Brewing"},
			{
				Slug:  "proposal-approved",
				Title: "Proposal Approved",
				Precondition: &StatusPrecondition{
					From:      []string{"brewing"},
					Required:  []string{"budgetLink", "contactPoint"},
					Approvals: []ApprovalRequirement{{Key: "proposal-approved"}},
				},
			},
		},
		Approvals: []ApprovalDefinition{
			{Slug: "proposal-approved", Allowed: []ApprovalRule{{Kind: "basic", By: "#.approver"}}},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr string
	}{
		{name: "valid config", mutate: func(c *Configuration) {}},
		{
			name:    "unknown approval reference",
			mutate:  func(c *Configuration) { c.Approvals = nil },
			wantErr: "undefined approval",
		},
		{
			name: "two document identifiers",
			mutate: func(c *Configuration) {
				c.Fields[0].DocumentIdentifier = true
			},
			wantErr: "at most one field",
		},
		{
			name: "identifier on non-text field",
			mutate: func(c *Configuration) {
				c.Fields[2].DocumentIdentifier = false
				c.Fields[1].DocumentIdentifier = true
			},
			wantErr: "only text fields may act as the document identifier",
		},
		{
			name: "lov on non-text field",
			mutate: func(c *Configuration) {
				c.Fields[1].Schema.Lov = &LovSource{Kind: "api"}
			},
			wantErr: "only text fields may bind",
		},
		{
			name: "reserved draft slug",
			mutate: func(c *Configuration) {
				c.Statuses = append(c.Statuses, WorkflowStatus{Slug: StatusDraft})
			},
			wantErr: "reserved",
		},
		{
			name: "draft always a legal origin",
			mutate: func(c *Configuration) {
				c.Statuses[1].Precondition.From = []string{StatusDraft}
			},
		},
		{
			name: "unknown origin status",
			mutate: func(c *Configuration) {
				c.Statuses[1].Precondition.From = []string{"no-such-status"}
			},
			wantErr: "unknown origin status",
		},
		{
			name: "bad field slug",
			mutate: func(c *Configuration) {
				c.Fields[0].Slug = "contact point"
			},
			wantErr: "not a valid identifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Approvals = nil
	cfg.Fields[0].Slug = "contact point"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"undefined approval", "not a valid identifier"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %v missing %q", err, want)
		}
	}
}

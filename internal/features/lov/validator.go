package lov

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/multierr"

	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
)

// Validator checks submitted field data against the lists of values their
// fields are bound to. It backs the card service's FieldValidator port.
type Validator struct {
	Service Service
}

func NewValidator(service Service) *Validator {
	return &Validator{Service: service}
}

// ValidateFieldData verifies every changed, non-empty value of a lov-bound
// field. Values equal to their prior value are skipped so that a list edit
// upstream never blocks unrelated card updates. A value passes when it
// matches either the key or the label of some entry. Violations across
// fields are aggregated.
func (v *Validator) ValidateFieldData(ctx context.Context, cfg *workflow.Configuration, prior, next map[string]interface{}) error {
	var errs error
	for slug, value := range next {
		field := cfg.FieldBySlug(slug)
		if field == nil || field.Schema.Lov == nil {
			continue
		}
		if value == nil || value == "" {
			continue
		}
		if prior != nil {
			if old, ok := prior[slug]; ok && reflect.DeepEqual(old, value) {
				continue
			}
		}

		text, ok := value.(string)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("field %q: list-of-values fields take string values", slug))
			continue
		}

		entries, err := v.Service.List(ctx, field.Schema.Lov, false)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("field %q: %w", slug, err))
			continue
		}
		if !matches(entries, text) {
			errs = multierr.Append(errs, fmt.Errorf("field %q: value %q is not in its list of values", slug, text))
		}
	}
	return errs
}

func matches(entries []Entry, value string) bool {
	for _, entry := range entries {
		if entry.Key == value || entry.Label == value {
			return true
		}
	}
	return false
}

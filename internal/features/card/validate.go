package card

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"

	"go.uber.org/multierr"
)

// validateFieldData checks submitted field data against the workflow's field
// schemas, collecting every violation. Unknown keys and nil values pass;
// presence requirements belong to status preconditions, not the schema.
func validateFieldData(cfg *workflow.Configuration, fieldData map[string]interface{}) error {
	var errs error
	for key, value := range fieldData {
		if value == nil {
			continue
		}
		field := cfg.FieldBySlug(key)
		if field == nil {
			continue
		}
		if err := validateValue(field, value); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("field %q: %w", key, err))
		}
	}
	return errs
}

func validateValue(field *workflow.WorkflowField, value interface{}) error {
	schema := field.Schema
	switch schema.Kind {
	case workflow.FieldKindNumber:
		num, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("expected a number, got %T", value)
		}
		if schema.Min != nil && num < *schema.Min {
			return fmt.Errorf("%v is below minimum %v", num, *schema.Min)
		}
		if schema.Max != nil && num > *schema.Max {
			return fmt.Errorf("%v is above maximum %v", num, *schema.Max)
		}
	case workflow.FieldKindText:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected text, got %T", value)
		}
		if schema.Regex != "" {
			re, err := regexp.Compile(schema.Regex)
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %w", schema.Regex, err)
			}
			if !re.MatchString(str) {
				return fmt.Errorf("%q does not match pattern %q", str, schema.Regex)
			}
		}
	case workflow.FieldKindChoice:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected a choice value, got %T", value)
		}
		if !contains(schema.Choices, str) {
			return fmt.Errorf("%q is not one of the declared choices", str)
		}
	case workflow.FieldKindMultiChoice:
		items, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("expected a list of choices, got %T", value)
		}
		for _, item := range items {
			str, ok := item.(string)
			if !ok || !contains(schema.Choices, str) {
				return fmt.Errorf("%v is not one of the declared choices", item)
			}
		}
	case workflow.FieldKindBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected a boolean, got %T", value)
		}
	case workflow.FieldKindURL:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected a URL, got %T", value)
		}
		if !strings.HasPrefix(str, "http://") && !strings.HasPrefix(str, "https://") {
			return fmt.Errorf("%q is not an http(s) URL", str)
		}
	case workflow.FieldKindList:
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("expected a list, got %T", value)
		}
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch num := v.(type) {
	case float64:
		return num, true
	case float32:
		return float64(num), true
	case int:
		return float64(num), true
	case int32:
		return float64(num), true
	case int64:
		return float64(num), true
	}
	return 0, false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

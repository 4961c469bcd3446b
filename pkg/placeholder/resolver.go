// Package placeholder substitutes template tokens against a card's context.
//
// Token grammar: (\$|#|@).([a-zA-Z0-9_-]+)(\?)?
//
//	$.key  -> card top-level field
//	#.key  -> card.fieldData[key]
//	@.key  -> author of the latest active approval token for key
//
// A trailing '?' marks a token optional: a missing value resolves to the
// empty string. Without it a missing value is an error naming the token.
// Anything that does not match the grammar is left verbatim.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
)

var tokenPattern = regexp.MustCompile(`(\$|#|@)\.([a-zA-Z0-9_-]+)(\?)?`)

// maxDepth bounds ResolveDeep traversal; template content is user
// configurable and may be self-referential.
const maxDepth = 32

// Resolver resolves tokens against a single card snapshot. It holds no other
// state, so resolution is idempotent for identical card state.
type Resolver struct {
	card *models.CardEntry
}

// WithCard binds a resolver to a card context.
func WithCard(card *models.CardEntry) *Resolver {
	return &Resolver{card: card}
}

// Resolve substitutes every token occurrence in text, left to right, in a
// single pass. Multiple occurrences of the same token resolve independently.
func (r *Resolver) Resolve(text string) (string, error) {
	var resolveErr error
	out := tokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		if resolveErr != nil {
			return match
		}
		parts := tokenPattern.FindStringSubmatch(match)
		sigil, key, optional := parts[1], parts[2], parts[3] == "?"

		value, found := r.lookup(sigil, key)
		if !found {
			if optional {
				return ""
			}
			resolveErr = fmt.Errorf("placeholder: %s.%s is required but has no value", sigil, key)
			return match
		}
		return value
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return out, nil
}

// ResolveDeep walks an arbitrary nested structure of maps, slices and
// strings, resolving every string leaf. Non-string leaves and the overall
// shape are preserved. The input is not mutated.
func (r *Resolver) ResolveDeep(v interface{}) (interface{}, error) {
	return r.resolveDeep(v, 0)
}

func (r *Resolver) resolveDeep(v interface{}, depth int) (interface{}, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("placeholder: structure nesting exceeds depth limit %d", maxDepth)
	}
	switch val := v.(type) {
	case string:
		return r.Resolve(val)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			resolved, err := r.resolveDeep(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			resolved, err := r.resolveDeep(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

func (r *Resolver) lookup(sigil, key string) (string, bool) {
	if r.card == nil {
		return "", false
	}
	switch sigil {
	case "$":
		return r.lookupTopLevel(key)
	case "#":
		value, ok := r.card.FieldData[key]
		if !ok || value == nil {
			return "", false
		}
		return stringify(value)
	case "@":
		token := r.card.LatestApprovalToken(key)
		if token == nil {
			return "", false
		}
		return token.Author, true
	}
	return "", false
}

func (r *Resolver) lookupTopLevel(key string) (string, bool) {
	card := r.card
	switch key {
	case "workflowId":
		return nonEmpty(card.WorkflowID)
	case "workflowCardId":
		return nonEmpty(card.WorkflowCardID)
	case "title":
		return nonEmpty(card.Title)
	case "description":
		return nonEmpty(card.Description)
	case "status":
		return nonEmpty(card.Status)
	case "type":
		return nonEmpty(card.Type)
	case "value":
		return strconv.FormatFloat(card.Value, 'f', -1, 64), true
	case "owner":
		return nonEmpty(card.Owner)
	case "createdBy":
		return nonEmpty(card.CreatedBy)
	case "updatedBy":
		return nonEmpty(card.UpdatedBy)
	}
	return "", false
}

// nonEmpty treats the zero string as an undefined field.
func nonEmpty(s string) (string, bool) {
	return s, s != ""
}

func stringify(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return fmt.Sprintf("%v", val), true
	}
}

package stats

import (
	"reflect"
	"sort"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
)

// GenerateChanges produces the ordered field-level diff between two card
// snapshots: the fixed top-level scalars first, then the union of both
// sides' fieldData keys in sorted order. Only genuinely non-equivalent pairs
// are recorded. Absence is compared loosely: nil, an empty list, the empty
// string, and the number zero all count as the same absent value, so a
// creation never reports changes for scalars left at their zero value.
func GenerateChanges(before, after *models.CardEntry) []models.Change {
	var changes []models.Change

	appendChange := func(key string, from, to interface{}) {
		if !equivalent(from, to) {
			changes = append(changes, models.Change{Key: key, From: from, To: to})
		}
	}

	appendChange("title", topLevel(before, func(c *models.CardEntry) interface{} { return c.Title }),
		topLevel(after, func(c *models.CardEntry) interface{} { return c.Title }))
	appendChange("status", topLevel(before, func(c *models.CardEntry) interface{} { return c.Status }),
		topLevel(after, func(c *models.CardEntry) interface{} { return c.Status }))
	appendChange("value", topLevel(before, func(c *models.CardEntry) interface{} { return c.Value }),
		topLevel(after, func(c *models.CardEntry) interface{} { return c.Value }))
	appendChange("type", topLevel(before, func(c *models.CardEntry) interface{} { return c.Type }),
		topLevel(after, func(c *models.CardEntry) interface{} { return c.Type }))
	appendChange("owner", topLevel(before, func(c *models.CardEntry) interface{} { return c.Owner }),
		topLevel(after, func(c *models.CardEntry) interface{} { return c.Owner }))
	appendChange("description", topLevel(before, func(c *models.CardEntry) interface{} { return c.Description }),
		topLevel(after, func(c *models.CardEntry) interface{} { return c.Description }))

	for _, key := range fieldDataKeys(before, after) {
		appendChange(key, fieldValue(before, key), fieldValue(after, key))
	}

	return changes
}

func topLevel(card *models.CardEntry, get func(*models.CardEntry) interface{}) interface{} {
	if card == nil {
		return nil
	}
	return get(card)
}

func fieldValue(card *models.CardEntry, key string) interface{} {
	if card == nil || card.FieldData == nil {
		return nil
	}
	return card.FieldData[key]
}

func fieldDataKeys(before, after *models.CardEntry) []string {
	seen := map[string]bool{}
	if before != nil {
		for key := range before.FieldData {
			seen[key] = true
		}
	}
	if after != nil {
		for key := range after.FieldData {
			seen[key] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// equivalent compares two values with the diff's loose semantics: nil and
// the empty array are interchangeable, arrays compare element-wise and maps
// compare by key set, both recursively.
func equivalent(a, b interface{}) bool {
	if isEmpty(a) && isEmpty(b) {
		return true
	}
	if isEmpty(a) != isEmpty(b) {
		return false
	}

	listA, aIsList := asList(a)
	listB, bIsList := asList(b)
	if aIsList && bIsList {
		if len(listA) != len(listB) {
			return false
		}
		for i := range listA {
			if !equivalent(listA[i], listB[i]) {
				return false
			}
		}
		return true
	}
	if aIsList != bIsList {
		return false
	}

	mapA, aIsMap := asMap(a)
	mapB, bIsMap := asMap(b)
	if aIsMap && bIsMap {
		if len(mapA) != len(mapB) {
			return false
		}
		for key, valA := range mapA {
			valB, ok := mapB[key]
			if !ok || !equivalent(valA, valB) {
				return false
			}
		}
		return true
	}
	if aIsMap != bIsMap {
		return false
	}

	if numA, okA := asFloat(a); okA {
		if numB, okB := asFloat(b); okB {
			return numA == numB
		}
		return false
	}

	return reflect.DeepEqual(a, b)
}

// isEmpty treats nil, empty strings, zero numbers and zero-length arrays as
// interchangeable. Card snapshots are structs, so an absent scalar and its
// zero value cannot be told apart; folding them together keeps creation and
// deletion diffs free of phantom changes.
func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	if num, ok := asFloat(v); ok {
		return num == 0
	}
	if list, ok := asList(v); ok {
		return len(list) == 0
	}
	return false
}

func asList(v interface{}) ([]interface{}, bool) {
	switch val := v.(type) {
	case []interface{}:
		return val, true
	case []string:
		out := make([]interface{}, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func asFloat(v interface{}) (float64, bool) {
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

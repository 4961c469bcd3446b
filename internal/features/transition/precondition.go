package transition

import (
	"fmt"
	"strings"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
	"github.com/peatiscoding/cadence-sub000/internal/features/approval"
	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"

	"go.uber.org/multierr"
)

// DestinationContext is the caller-supplied payload of a transition request:
// the target status plus any card fields to merge in the same write.
type DestinationContext struct {
	Status      string                 `json:"status"`
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	Type        *string                `json:"type,omitempty"`
	Value       *float64               `json:"value,omitempty"`
	Owner       *string                `json:"owner,omitempty"`
	FieldData   map[string]interface{} `json:"fieldData,omitempty"`
}

// validateAllPreconditions runs every precondition group of the target status
// against the current card. The groups are independent; violations from all
// of them are reported together rather than stopping at the first failing
// group. A target status without a precondition accepts any transition.
func validateAllPreconditions(target *workflow.WorkflowStatus, currentStatus, userEmail, userID string, card *models.CardEntry, destination *DestinationContext) error {
	pre := target.Precondition
	if pre == nil {
		return nil
	}

	return multierr.Combine(
		validateFromStatus(pre, target.Slug, currentStatus),
		validateUser(pre, target.Slug, userEmail, userID, card),
		validateRequiredFields(pre, target.Slug, card, destination),
		validateApprovals(pre, target.Slug, card),
	)
}

func validateFromStatus(pre *workflow.StatusPrecondition, targetSlug, currentStatus string) error {
	if len(pre.From) == 0 {
		return nil
	}
	for _, origin := range pre.From {
		if origin == currentStatus {
			return nil
		}
	}
	return fmt.Errorf("status %q cannot be entered from %q (allowed origins: %s)",
		targetSlug, currentStatus, strings.Join(pre.From, ", "))
}

func validateUser(pre *workflow.StatusPrecondition, targetSlug, userEmail, userID string, card *models.CardEntry) error {
	if len(pre.Users) == 0 {
		return nil
	}
	for _, allowed := range pre.Users {
		switch allowed {
		case "*":
			return nil
		case "owner":
			if card.Owner != "" && (card.Owner == userEmail || card.Owner == userID) {
				return nil
			}
		default:
			if allowed == userEmail || allowed == userID {
				return nil
			}
		}
	}
	return fmt.Errorf("user %q is not allowed to move cards into status %q", userEmail, targetSlug)
}

// validateRequiredFields merges the destination's field data over the card's
// (destination wins) and checks every required entry, collecting all missing
// names into one error. Entries prefixed "$." check top-level card fields.
func validateRequiredFields(pre *workflow.StatusPrecondition, targetSlug string, card *models.CardEntry, destination *DestinationContext) error {
	if len(pre.Required) == 0 {
		return nil
	}

	merged := map[string]interface{}{}
	for key, value := range card.FieldData {
		merged[key] = value
	}
	if destination != nil {
		for key, value := range destination.FieldData {
			merged[key] = value
		}
	}

	var missing []string
	for _, required := range pre.Required {
		if strings.HasPrefix(required, "$.") {
			if !topLevelPresent(card, strings.TrimPrefix(required, "$.")) {
				missing = append(missing, required)
			}
			continue
		}
		if !present(merged[required]) {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("status %q requires fields that are not set: %s",
			targetSlug, strings.Join(missing, ", "))
	}
	return nil
}

func validateApprovals(pre *workflow.StatusPrecondition, targetSlug string, card *models.CardEntry) error {
	var unsatisfied []string
	for _, req := range pre.Approvals {
		if !approval.IsRequirementSatisfied(card, req) {
			unsatisfied = append(unsatisfied, req.Key)
		}
	}
	if len(unsatisfied) > 0 {
		return fmt.Errorf("status %q requires approvals that are not satisfied: %s",
			targetSlug, strings.Join(unsatisfied, ", "))
	}
	return nil
}

func topLevelPresent(card *models.CardEntry, key string) bool {
	switch key {
	case "title":
		return card.Title != ""
	case "description":
		return card.Description != ""
	case "type":
		return card.Type != ""
	case "owner":
		return card.Owner != ""
	case "value":
		return card.Value != 0
	}
	return false
}

func present(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case []interface{}:
		return len(val) > 0
	}
	return true
}

package approval

import (
	"github.com/peatiscoding/cadence-sub000/internal/common/models"
	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
	"github.com/peatiscoding/cadence-sub000/pkg/placeholder"
)

// IsRequirementSatisfied reports whether the card currently satisfies the
// approval requirement: the latest active token must exist and not be a
// negative vote. A negative latest token overrules any earlier positive one.
func IsRequirementSatisfied(card *models.CardEntry, req workflow.ApprovalRequirement) bool {
	latest := card.LatestApprovalToken(req.Key)
	if latest == nil {
		return false
	}
	return !latest.IsNegative
}

// CanUserApprove reports whether userID may record a token for approvalKey on
// the card. Each allowed rule of kind "basic" is tried in order: a rule with
// no By pattern admits anyone; otherwise the pattern is resolved against the
// card and compared to userID. A pattern that fails to resolve skips to the
// next rule instead of failing the whole check.
func CanUserApprove(userID, approvalKey string, card *models.CardEntry, cfg *workflow.Configuration) bool {
	def := cfg.ApprovalBySlug(approvalKey)
	if def == nil {
		return false
	}
	resolver := placeholder.WithCard(card)
	for _, rule := range def.Allowed {
		if rule.Kind != "basic" {
			continue
		}
		if rule.By == "" {
			return true
		}
		resolved, err := resolver.Resolve(rule.By)
		if err != nil {
			continue
		}
		if resolved == userID {
			return true
		}
	}
	return false
}

package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"

	"go.uber.org/zap"
)

// CardStore is the slice of the card repository this feature needs.
type CardStore interface {
	Get(ctx context.Context, workflowID, cardID string) (*models.CardEntry, error)
	Merge(ctx context.Context, workflowID, cardID string, fields map[string]interface{}) error
}

type Service interface {
	Submit(ctx context.Context, workflowID, cardID, approvalKey, userID, note string, isNegative bool) (*models.ApprovalToken, error)
	Void(ctx context.Context, workflowID, cardID, approvalKey string, date int64, userID string) error
}

type ServiceImpl struct {
	Workflows workflow.Service
	Cards     CardStore
	Logger    *zap.Logger
}

func NewService(workflows workflow.Service, cards CardStore, logger *zap.Logger) Service {
	return &ServiceImpl{Workflows: workflows, Cards: cards, Logger: logger}
}

// Submit records a new approval token for the key. The caller must be
// admitted by one of the approval definition's allowed rules.
func (s *ServiceImpl) Submit(ctx context.Context, workflowID, cardID, approvalKey, userID, note string, isNegative bool) (*models.ApprovalToken, error) {
	cfg, err := s.Workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if cfg.ApprovalBySlug(approvalKey) == nil {
		return nil, fmt.Errorf("unknown approval %q in workflow %q", approvalKey, workflowID)
	}

	card, err := s.Cards.Get(ctx, workflowID, cardID)
	if err != nil {
		return nil, err
	}

	if !CanUserApprove(userID, approvalKey, card, cfg) {
		return nil, fmt.Errorf("user %q is not allowed to approve %q", userID, approvalKey)
	}

	token := models.ApprovalToken{
		Kind:       "basic",
		Author:     userID,
		Date:       time.Now().UnixMilli(),
		Note:       note,
		IsNegative: isNegative,
	}

	tokens := append(card.ApprovalTokens[approvalKey], token)
	err = s.Cards.Merge(ctx, workflowID, cardID, map[string]interface{}{
		"approval_tokens." + approvalKey: tokens,
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("approval token recorded",
		zap.String("workflowId", workflowID),
		zap.String("cardId", cardID),
		zap.String("approvalKey", approvalKey),
		zap.Bool("isNegative", isNegative))
	return &token, nil
}

// Void retires the token identified by its date stamp. Only the token's
// author may void it.
func (s *ServiceImpl) Void(ctx context.Context, workflowID, cardID, approvalKey string, date int64, userID string) error {
	card, err := s.Cards.Get(ctx, workflowID, cardID)
	if err != nil {
		return err
	}

	tokens := card.ApprovalTokens[approvalKey]
	found := false
	for i := range tokens {
		if tokens[i].Date != date || tokens[i].Voided {
			continue
		}
		if tokens[i].Author != userID {
			return fmt.Errorf("only the author may void an approval token")
		}
		tokens[i].Voided = true
		found = true
		break
	}
	if !found {
		return fmt.Errorf("no active token for %q dated %d", approvalKey, date)
	}

	return s.Cards.Merge(ctx, workflowID, cardID, map[string]interface{}{
		"approval_tokens." + approvalKey: tokens,
	})
}

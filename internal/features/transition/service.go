package transition

import (
	"context"
	"fmt"
	"time"

	"github.com/peatiscoding/cadence-sub000/internal/features/card"
	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"

	"go.uber.org/zap"
)

// Result is the timing telemetry returned by a committed transition.
type Result struct {
	Status        string  `json:"status"`
	TotalMs       int64   `json:"totalMs"`
	PreActionsMs  []int64 `json:"preActionsMs,omitempty"`
	PostActionsMs []int64 `json:"postActionsMs,omitempty"`
}

type Service interface {
	Transit(ctx context.Context, workflowID, cardID string, destination DestinationContext, userID, userEmail string) (*Result, error)
}

type ServiceImpl struct {
	Workflows workflow.Service
	Cards     card.Repository
	Runner    *Runner
	Recorder  card.ActivityRecorder
	Logger    *zap.Logger
}

func NewService(workflows workflow.Service, cards card.Repository, runner *Runner, recorder card.ActivityRecorder, logger *zap.Logger) Service {
	return &ServiceImpl{
		Workflows: workflows,
		Cards:     cards,
		Runner:    runner,
		Recorder:  recorder,
		Logger:    logger,
	}
}

// Transit moves a card into the destination status.
//
// Preconditions are declared on the target status (which origins may enter
// it), not on the source. Pre-transition actions run serially before the
// write and abort it on failure; post-transition actions run in parallel
// after the write and can no longer undo it; their failure is reported to
// the caller alongside the committed result.
func (s *ServiceImpl) Transit(ctx context.Context, workflowID, cardID string, destination DestinationContext, userID, userEmail string) (*Result, error) {
	began := time.Now()

	cfg, err := s.Workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	target := cfg.StatusBySlug(destination.Status)
	if target == nil {
		return nil, fmt.Errorf("unknown status %q in workflow %q", destination.Status, workflowID)
	}

	current, err := s.Cards.Get(ctx, workflowID, cardID)
	if err != nil {
		return nil, err
	}

	// A no-op transition is an error, checked before any precondition
	if destination.Status == current.Status {
		return nil, fmt.Errorf("card %q is already in status %q; no transition required", cardID, current.Status)
	}

	if err := validateAllPreconditions(target, current.Status, userEmail, userID, current, &destination); err != nil {
		return nil, err
	}

	// Pre-transition actions observe the pre-transition card state; any
	// failure here aborts before anything is persisted. Side effects they
	// already produced are not undone (at-least-once delivery).
	preMs, err := s.Runner.Run(ctx, current, target.Transition, false)
	if err != nil {
		return nil, fmt.Errorf("pre-transition: %w", err)
	}

	transitionAt := time.Now()
	fields := mergeFields(&destination, transitionAt, userID)
	if err := s.Cards.Merge(ctx, workflowID, cardID, fields); err != nil {
		return nil, err
	}

	updated, err := s.Cards.Get(ctx, workflowID, cardID)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordCardWrite(ctx, workflowID, current, updated, userID); err != nil {
		return nil, err
	}

	s.Logger.Info("card transitioned",
		zap.String("workflowId", workflowID),
		zap.String("cardId", cardID),
		zap.String("from", current.Status),
		zap.String("to", destination.Status))

	result := &Result{
		Status:       destination.Status,
		PreActionsMs: preMs,
	}

	// The transition is committed; a finally-action failure is surfaced but
	// must not roll the status back.
	postMs, postErr := s.Runner.Run(ctx, updated, target.Finally, true)
	result.PostActionsMs = postMs
	result.TotalMs = time.Since(began).Milliseconds()

	if postErr != nil {
		return result, fmt.Errorf("transition to %q committed, but finally actions failed: %w",
			destination.Status, postErr)
	}
	return result, nil
}

// mergeFields builds the partial update persisted by the transition: the
// destination context minus the workflow/card identifiers, plus the status
// stamp and audit fields.
func mergeFields(destination *DestinationContext, transitionAt time.Time, userID string) map[string]interface{} {
	fields := map[string]interface{}{
		"status":       destination.Status,
		"status_since": transitionAt.UnixMilli(),
		"updated_by":   userID,
		"updated_at":   transitionAt,
	}
	if destination.Title != nil {
		fields["title"] = *destination.Title
	}
	if destination.Description != nil {
		fields["description"] = *destination.Description
	}
	if destination.Type != nil {
		fields["type"] = *destination.Type
	}
	if destination.Value != nil {
		fields["value"] = *destination.Value
	}
	if destination.Owner != nil {
		fields["owner"] = *destination.Owner
	}
	for key, value := range destination.FieldData {
		fields["field_data."+key] = value
	}
	return fields
}

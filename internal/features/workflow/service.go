package workflow

import (
	"context"
	"fmt"

	"github.com/peatiscoding/cadence-sub000/pkg/utils"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, cfg *Configuration) error
	Update(ctx context.Context, workflowID string, cfg *Configuration) error
	Get(ctx context.Context, workflowID string) (*Configuration, error)
	List(ctx context.Context) ([]Configuration, error)
}

type ServiceImpl struct {
	Repo   Repository
	Logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &ServiceImpl{Repo: repo, Logger: logger}
}

func (s *ServiceImpl) Create(ctx context.Context, cfg *Configuration) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := s.Repo.Create(ctx, cfg); err != nil {
		return err
	}
	s.Logger.Info("workflow configuration created", zap.String("workflowId", cfg.WorkflowID))
	return nil
}

func (s *ServiceImpl) Update(ctx context.Context, workflowID string, cfg *Configuration) error {
	cfg.WorkflowID = workflowID
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := s.Repo.Update(ctx, workflowID, cfg); err != nil {
		return err
	}
	s.Logger.Info("workflow configuration updated", zap.String("workflowId", workflowID))
	return nil
}

func (s *ServiceImpl) Get(ctx context.Context, workflowID string) (*Configuration, error) {
	return s.Repo.FindByWorkflowID(ctx, workflowID)
}

func (s *ServiceImpl) List(ctx context.Context) ([]Configuration, error) {
	return s.Repo.List(ctx)
}

// Validate enforces the structural invariants of a configuration at load
// time, collecting every violation instead of stopping at the first.
func Validate(cfg *Configuration) error {
	var errs error

	if cfg.WorkflowID == "" {
		errs = multierr.Append(errs, fmt.Errorf("workflowId is required"))
	}

	identifiers := 0
	fieldSlugs := map[string]bool{}
	for _, field := range cfg.Fields {
		if !utils.IsValidFieldSlug(field.Slug) {
			errs = multierr.Append(errs, fmt.Errorf("field slug %q is not a valid identifier", field.Slug))
		}
		if fieldSlugs[field.Slug] {
			errs = multierr.Append(errs, fmt.Errorf("field slug %q is declared more than once", field.Slug))
		}
		fieldSlugs[field.Slug] = true

		if field.DocumentIdentifier {
			identifiers++
			if field.Schema.Kind != FieldKindText {
				errs = multierr.Append(errs, fmt.Errorf("field %q: only text fields may act as the document identifier", field.Slug))
			}
		}
		if field.Schema.Lov != nil && field.Schema.Kind != FieldKindText {
			errs = multierr.Append(errs, fmt.Errorf("field %q: only text fields may bind a list of values", field.Slug))
		}
	}
	if identifiers > 1 {
		errs = multierr.Append(errs, fmt.Errorf("at most one field may be the document identifier, found %d", identifiers))
	}

	statusSlugs := map[string]bool{StatusDraft: true}
	for _, status := range cfg.Statuses {
		if status.Slug == StatusDraft {
			errs = multierr.Append(errs, fmt.Errorf("status slug %q is reserved", StatusDraft))
			continue
		}
		if statusSlugs[status.Slug] {
			errs = multierr.Append(errs, fmt.Errorf("status slug %q is declared more than once", status.Slug))
		}
		statusSlugs[status.Slug] = true
	}

	// Precondition references can only be checked once all slugs are known
	for _, status := range cfg.Statuses {
		if status.Precondition == nil {
			continue
		}
		for _, origin := range status.Precondition.From {
			if !statusSlugs[origin] {
				errs = multierr.Append(errs, fmt.Errorf("status %q: unknown origin status %q", status.Slug, origin))
			}
		}
		for _, req := range status.Precondition.Approvals {
			if cfg.ApprovalBySlug(req.Key) == nil {
				errs = multierr.Append(errs, fmt.Errorf("status %q: precondition references undefined approval %q", status.Slug, req.Key))
			}
		}
	}

	return errs
}

package transition

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
)

type fakeWorkflowService struct {
	cfg *workflow.Configuration
}

func (f *fakeWorkflowService) Create(ctx context.Context, cfg *workflow.Configuration) error {
	return nil
}

func (f *fakeWorkflowService) Update(ctx context.Context, workflowID string, cfg *workflow.Configuration) error {
	return nil
}

func (f *fakeWorkflowService) Get(ctx context.Context, workflowID string) (*workflow.Configuration, error) {
	return f.cfg, nil
}

func (f *fakeWorkflowService) List(ctx context.Context) ([]workflow.Configuration, error) {
	return []workflow.Configuration{*f.cfg}, nil
}

type fakeCardRepo struct {
	card   *models.CardEntry
	merges []map[string]interface{}
}

func (f *fakeCardRepo) Create(ctx context.Context, card *models.CardEntry) error {
	f.card = card
	return nil
}

func (f *fakeCardRepo) Get(ctx context.Context, workflowID, cardID string) (*models.CardEntry, error) {
	copied := *f.card
	return &copied, nil
}

func (f *fakeCardRepo) List(ctx context.Context, workflowID string, status string, limit, offset int64) ([]models.CardEntry, error) {
	return []models.CardEntry{*f.card}, nil
}

func (f *fakeCardRepo) Merge(ctx context.Context, workflowID, cardID string, fields map[string]interface{}) error {
	f.merges = append(f.merges, fields)
	for key, value := range fields {
		switch {
		case key == "status":
			f.card.Status = value.(string)
		case key == "status_since":
			f.card.StatusSince = value
		case key == "owner":
			f.card.Owner = value.(string)
		case strings.HasPrefix(key, "field_data."):
			if f.card.FieldData == nil {
				f.card.FieldData = map[string]interface{}{}
			}
			f.card.FieldData[strings.TrimPrefix(key, "field_data.")] = value
		}
	}
	return nil
}

func (f *fakeCardRepo) Delete(ctx context.Context, workflowID, cardID string) error {
	f.card = nil
	return nil
}

func (f *fakeCardRepo) EnsureIndexes(ctx context.Context) error { return nil }

type fakeRecorder struct {
	before *models.CardEntry
	after  *models.CardEntry
	calls  int
}

func (f *fakeRecorder) RecordCardWrite(ctx context.Context, workflowID string, before, after *models.CardEntry, userID string) error {
	f.calls++
	f.before = before
	f.after = after
	return nil
}

func salesConfig() *workflow.Configuration {
	return &workflow.Configuration{
		WorkflowID: "sales",
		Name:       "Sales Pipeline",
		Statuses: []workflow.WorkflowStatus{
			{Slug: "lead"},
			{
				Slug: "proposal",
				Precondition: &workflow.StatusPrecondition{
					From:     []string{"lead"},
					Required: []string{"budget"},
				},
				Transition: []workflow.ActionDefinition{{Kind: "prep"}},
				Finally:    []workflow.ActionDefinition{{Kind: "notify"}},
			},
		},
	}
}

func newTransitService(cfg *workflow.Configuration, repo *fakeCardRepo, recorder *fakeRecorder, executors map[string]Executor) Service {
	return NewService(&fakeWorkflowService{cfg: cfg}, repo, NewRunner(executors), recorder, zap.NewNop())
}

func TestTransitHappyPath(t *testing.T) {
	repo := &fakeCardRepo{card: &models.CardEntry{
		WorkflowID:     "sales",
		WorkflowCardID: "card-1",
		Status:         "lead",
		FieldData:      map[string]interface{}{"budget": 10000.0},
	}}
	recorder := &fakeRecorder{}
	prep := &fakeExecutor{}
	notify := &fakeExecutor{}
	svc := newTransitService(salesConfig(), repo, recorder, map[string]Executor{"prep": prep, "notify": notify})

	result, err := svc.Transit(context.Background(), "sales", "card-1",
		DestinationContext{Status: "proposal"}, "user-1", "user@muze.co.th")
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != "proposal" {
		t.Fatalf("result status = %q", result.Status)
	}
	if repo.card.Status != "proposal" {
		t.Fatalf("persisted status = %q", repo.card.Status)
	}
	if prep.calls != 1 || notify.calls != 1 {
		t.Fatalf("executor calls: prep=%d notify=%d", prep.calls, notify.calls)
	}
	if recorder.calls != 1 {
		t.Fatalf("recorder calls = %d", recorder.calls)
	}
	if recorder.before.Status != "lead" || recorder.after.Status != "proposal" {
		t.Fatalf("recorded %q -> %q", recorder.before.Status, recorder.after.Status)
	}
	if _, ok := repo.card.StatusSince.(int64); !ok {
		t.Fatalf("status_since = %v, want epoch millis", repo.card.StatusSince)
	}
}

func TestTransitRejectsNoOp(t *testing.T) {
	repo := &fakeCardRepo{card: &models.CardEntry{
		WorkflowID: "sales", WorkflowCardID: "card-1", Status: "proposal",
	}}
	svc := newTransitService(salesConfig(), repo, &fakeRecorder{}, map[string]Executor{})

	_, err := svc.Transit(context.Background(), "sales", "card-1",
		DestinationContext{Status: "proposal"}, "user-1", "user@muze.co.th")
	if err == nil || !strings.Contains(err.Error(), "no transition required") {
		t.Fatalf("error = %v", err)
	}
	if len(repo.merges) != 0 {
		t.Fatal("no-op transition must not write")
	}
}

func TestTransitPreconditionFailureAbortsBeforeActions(t *testing.T) {
	repo := &fakeCardRepo{card: &models.CardEntry{
		WorkflowID: "sales", WorkflowCardID: "card-1", Status: "lead",
	}}
	prep := &fakeExecutor{}
	svc := newTransitService(salesConfig(), repo, &fakeRecorder{}, map[string]Executor{"prep": prep})

	_, err := svc.Transit(context.Background(), "sales", "card-1",
		DestinationContext{Status: "proposal"}, "user-1", "user@muze.co.th")
	if err == nil || !strings.Contains(err.Error(), "budget") {
		t.Fatalf("error = %v", err)
	}
	if prep.calls != 0 {
		t.Fatal("pre-transition actions must not run on precondition failure")
	}
	if len(repo.merges) != 0 {
		t.Fatal("failed transition must not write")
	}
}

func TestTransitPreActionFailureAbortsWrite(t *testing.T) {
	repo := &fakeCardRepo{card: &models.CardEntry{
		WorkflowID:     "sales",
		WorkflowCardID: "card-1",
		Status:         "lead",
		FieldData:      map[string]interface{}{"budget": 10000.0},
	}}
	prep := &fakeExecutor{err: errors.New("smtp down")}
	recorder := &fakeRecorder{}
	svc := newTransitService(salesConfig(), repo, recorder, map[string]Executor{"prep": prep})

	_, err := svc.Transit(context.Background(), "sales", "card-1",
		DestinationContext{Status: "proposal"}, "user-1", "user@muze.co.th")
	if err == nil || !strings.Contains(err.Error(), "pre-transition") {
		t.Fatalf("error = %v", err)
	}
	if repo.card.Status != "lead" {
		t.Fatalf("status = %q, write must not happen", repo.card.Status)
	}
	if recorder.calls != 0 {
		t.Fatal("aborted transition must not be recorded")
	}
}

func TestTransitFinallyFailureReturnsCommittedResult(t *testing.T) {
	repo := &fakeCardRepo{card: &models.CardEntry{
		WorkflowID:     "sales",
		WorkflowCardID: "card-1",
		Status:         "lead",
		FieldData:      map[string]interface{}{"budget": 10000.0},
	}}
	notify := &fakeExecutor{err: errors.New("webhook 500")}
	prep := &fakeExecutor{}
	svc := newTransitService(salesConfig(), repo, &fakeRecorder{}, map[string]Executor{"prep": prep, "notify": notify})

	result, err := svc.Transit(context.Background(), "sales", "card-1",
		DestinationContext{Status: "proposal"}, "user-1", "user@muze.co.th")
	if err == nil || !strings.Contains(err.Error(), "committed, but finally actions failed") {
		t.Fatalf("error = %v", err)
	}
	if result == nil || result.Status != "proposal" {
		t.Fatalf("result = %+v, committed result must be returned alongside the error", result)
	}
	if repo.card.Status != "proposal" {
		t.Fatal("finally failure must not roll the status back")
	}
}

func TestTransitMergesDestinationFields(t *testing.T) {
	repo := &fakeCardRepo{card: &models.CardEntry{
		WorkflowID:     "sales",
		WorkflowCardID: "card-1",
		Status:         "lead",
		FieldData:      map[string]interface{}{"budget": 10000.0},
	}}
	svc := newTransitService(salesConfig(), repo, &fakeRecorder{}, map[string]Executor{
		"prep": &fakeExecutor{}, "notify": &fakeExecutor{},
	})

	_, err := svc.Transit(context.Background(), "sales", "card-1",
		DestinationContext{
			Status:    "proposal",
			Owner:     strPtr("closer@muze.co.th"),
			FieldData: map[string]interface{}{"quote": "Q-778"},
		}, "user-1", "user@muze.co.th")
	if err != nil {
		t.Fatal(err)
	}
	if repo.card.Owner != "closer@muze.co.th" {
		t.Fatalf("owner = %q", repo.card.Owner)
	}
	if repo.card.FieldData["quote"] != "Q-778" {
		t.Fatalf("quote = %v", repo.card.FieldData["quote"])
	}
}

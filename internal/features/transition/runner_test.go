package transition

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
)

type fakeExecutor struct {
	delay  time.Duration
	err    error
	calls  int32
	params atomic.Value
}

func (f *fakeExecutor) Execute(ctx context.Context, cardEntry *models.CardEntry, action workflow.ActionDefinition) error {
	atomic.AddInt32(&f.calls, 1)
	f.params.Store(action.Params)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.err
}

func TestRunnerSerialRunsInOrder(t *testing.T) {
	slow := &fakeExecutor{delay: 80 * time.Millisecond}
	fast := &fakeExecutor{delay: 80 * time.Millisecond}
	runner := NewRunner(map[string]Executor{"slow": slow, "fast": fast})

	actions := []workflow.ActionDefinition{{Kind: "slow"}, {Kind: "fast"}}

	start := time.Now()
	elapsed, err := runner.Run(context.Background(), &models.CardEntry{}, actions, false)
	if err != nil {
		t.Fatal(err)
	}
	if wall := time.Since(start); wall < 160*time.Millisecond {
		t.Fatalf("serial run finished in %v, actions must not overlap", wall)
	}
	if len(elapsed) != 2 {
		t.Fatalf("elapsed = %v", elapsed)
	}
}

func TestRunnerSerialAbortsOnFirstError(t *testing.T) {
	failing := &fakeExecutor{err: errors.New("boom")}
	next := &fakeExecutor{}
	runner := NewRunner(map[string]Executor{"failing": failing, "next": next})

	actions := []workflow.ActionDefinition{{Kind: "failing"}, {Kind: "next"}}

	_, err := runner.Run(context.Background(), &models.CardEntry{}, actions, false)
	if err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&next.calls) != 0 {
		t.Fatal("serial run must not reach actions past the failure")
	}
}

func TestRunnerParallelOverlaps(t *testing.T) {
	a := &fakeExecutor{delay: 80 * time.Millisecond}
	b := &fakeExecutor{delay: 80 * time.Millisecond}
	runner := NewRunner(map[string]Executor{"a": a, "b": b})

	actions := []workflow.ActionDefinition{{Kind: "a"}, {Kind: "b"}}

	start := time.Now()
	if _, err := runner.Run(context.Background(), &models.CardEntry{}, actions, true); err != nil {
		t.Fatal(err)
	}
	if wall := time.Since(start); wall >= 160*time.Millisecond {
		t.Fatalf("parallel run took %v, actions did not overlap", wall)
	}
}

func TestRunnerParallelReportsEveryFailure(t *testing.T) {
	a := &fakeExecutor{err: errors.New("first down")}
	b := &fakeExecutor{}
	c := &fakeExecutor{err: errors.New("third down")}
	runner := NewRunner(map[string]Executor{"a": a, "b": b, "c": c})

	actions := []workflow.ActionDefinition{{Kind: "a"}, {Kind: "b"}, {Kind: "c"}}

	elapsed, err := runner.Run(context.Background(), &models.CardEntry{}, actions, true)
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("aggregated %d errors, want 2: %v", got, err)
	}
	if len(elapsed) != 3 {
		t.Fatalf("elapsed = %v, every action must report a duration", elapsed)
	}
	if atomic.LoadInt32(&b.calls) != 1 {
		t.Fatal("healthy action must still run")
	}
}

func TestRunnerUnknownKind(t *testing.T) {
	runner := NewRunner(map[string]Executor{})
	_, err := runner.Run(context.Background(), &models.CardEntry{},
		[]workflow.ActionDefinition{{Kind: "teleport"}}, false)
	if err == nil || !strings.Contains(err.Error(), `unsupported action kind "teleport"`) {
		t.Fatalf("error = %v", err)
	}
}

func TestRunnerResolvesParamsBeforeDispatch(t *testing.T) {
	exec := &fakeExecutor{}
	runner := NewRunner(map[string]Executor{"send-email": exec})

	cardEntry := &models.CardEntry{
		Title:     "Acme deal",
		Owner:     "owner@muze.co.th",
		FieldData: map[string]interface{}{"contact": "contact@acme.com"},
	}
	actions := []workflow.ActionDefinition{{
		Kind: "send-email",
		Params: map[string]interface{}{
			"to":      "#.contact",
			"subject": "Update on $.title",
		},
	}}

	if _, err := runner.Run(context.Background(), cardEntry, actions, false); err != nil {
		t.Fatal(err)
	}

	params, _ := exec.params.Load().(map[string]interface{})
	if params["to"] != "contact@acme.com" {
		t.Fatalf("to = %v", params["to"])
	}
	if params["subject"] != "Update on Acme deal" {
		t.Fatalf("subject = %v", params["subject"])
	}
}

func TestRunnerFailsOnUnresolvablePlaceholder(t *testing.T) {
	exec := &fakeExecutor{}
	runner := NewRunner(map[string]Executor{"send-email": exec})

	actions := []workflow.ActionDefinition{{
		Kind:   "send-email",
		Params: map[string]interface{}{"to": "#.contact"},
	}}

	_, err := runner.Run(context.Background(), &models.CardEntry{}, actions, false)
	if err == nil {
		t.Fatal("expected error for required placeholder with no value")
	}
	if atomic.LoadInt32(&exec.calls) != 0 {
		t.Fatal("executor must not run with unresolved params")
	}
}

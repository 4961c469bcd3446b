package transition

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
	"github.com/peatiscoding/cadence-sub000/pkg/placeholder"

	"go.uber.org/multierr"
)

// Runner executes a status's action list against a card. Each action's
// params are placeholder-resolved against the card before dispatch.
type Runner struct {
	executors map[string]Executor
}

func NewRunner(executors map[string]Executor) *Runner {
	return &Runner{executors: executors}
}

// Run executes the actions and returns per-action elapsed milliseconds.
//
// Serial topology runs actions strictly in order and aborts on the first
// error. Parallel topology launches every action at once and waits for all
// of them; every failure is reported, none are swallowed.
func (r *Runner) Run(ctx context.Context, cardEntry *models.CardEntry, actions []workflow.ActionDefinition, runInParallel bool) ([]int64, error) {
	if len(actions) == 0 {
		return nil, nil
	}
	if runInParallel {
		return r.runParallel(ctx, cardEntry, actions)
	}
	return r.runSerial(ctx, cardEntry, actions)
}

func (r *Runner) runSerial(ctx context.Context, cardEntry *models.CardEntry, actions []workflow.ActionDefinition) ([]int64, error) {
	elapsed := make([]int64, 0, len(actions))
	for i, action := range actions {
		start := time.Now()
		err := r.runOne(ctx, cardEntry, action)
		elapsed = append(elapsed, time.Since(start).Milliseconds())
		if err != nil {
			return elapsed, fmt.Errorf("action %d (%s): %w", i, action.Kind, err)
		}
	}
	return elapsed, nil
}

func (r *Runner) runParallel(ctx context.Context, cardEntry *models.CardEntry, actions []workflow.ActionDefinition) ([]int64, error) {
	elapsed := make([]int64, len(actions))
	errs := make([]error, len(actions))

	var wg sync.WaitGroup
	for i, action := range actions {
		wg.Add(1)
		go func(i int, action workflow.ActionDefinition) {
			defer wg.Done()
			start := time.Now()
			if err := r.runOne(ctx, cardEntry, action); err != nil {
				errs[i] = fmt.Errorf("action %d (%s): %w", i, action.Kind, err)
			}
			elapsed[i] = time.Since(start).Milliseconds()
		}(i, action)
	}
	wg.Wait()

	return elapsed, multierr.Combine(errs...)
}

func (r *Runner) runOne(ctx context.Context, cardEntry *models.CardEntry, action workflow.ActionDefinition) error {
	executor, ok := r.executors[action.Kind]
	if !ok {
		return fmt.Errorf("unsupported action kind %q", action.Kind)
	}

	resolved, err := placeholder.WithCard(cardEntry).ResolveDeep(action.Params)
	if err != nil {
		return err
	}
	resolvedParams, _ := resolved.(map[string]interface{})

	return executor.Execute(ctx, cardEntry, workflow.ActionDefinition{
		Kind:   action.Kind,
		Params: resolvedParams,
	})
}

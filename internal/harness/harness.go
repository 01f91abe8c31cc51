package harness

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/rollbook/internal/ledger"
	"github.com/roach88/rollbook/internal/testutil"
)

// Harness drives one ledger through a scenario.
type Harness struct {
	ledger  *ledger.Ledger
	logger  *slog.Logger
	aliases map[string]int64
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store. The clock hands out
// keys 1, 2, 3, ... and the session token is fixed, so repeated runs produce
// identical traces.
//
// Run returns an error only when the ledger cannot be opened; step and
// assertion failures are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, slog.New(slog.DiscardHandler))
}

// RunContext is Run with an explicit context and logger.
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	l, err := ledger.Open(ctx, testutil.NewMemoryStore(),
		ledger.WithClock(testutil.NewDeterministicClock()),
		ledger.WithLogger(logger),
		ledger.WithTokenGenerator(testutil.NewFixedSessionGenerator(scenario.SessionToken)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	h := &Harness{
		ledger:  l,
		logger:  logger.With("scenario", scenario.Name),
		aliases: make(map[string]int64),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i+1, step, result)
	}

	result.Final = l.Records()
	result.Identity = l.Identity()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h.aliases) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep runs one step, records its trace event and checks its
// expectation.
func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) {
	op := step.Op()
	event := TraceEvent{Step: n, Op: op}

	var (
		rec   *ledger.Record
		err   error
		bound = true
	)

	switch op {
	case OpIdentity:
		err = h.ledger.SetIdentity(*step.Identity)

	case OpCreate:
		event.Ref = step.Create.As
		var r ledger.Record
		r, err = h.ledger.Create(ctx, ledger.Fields{Name: step.Create.Name, Topic: step.Create.Topic})
		if err == nil || ledger.CodeOf(err) == ledger.CodeIO {
			rec = &r
			event.Key = r.CreatedAt
			if step.Create.As != "" {
				h.aliases[step.Create.As] = r.CreatedAt
			}
		}

	case OpToggle:
		event.Ref = step.Toggle
		if event.Key, bound = refKey(step.Toggle, h.aliases); !bound {
			break
		}
		var r ledger.Record
		r, err = h.ledger.ToggleReferenced(ctx, event.Key)
		if err == nil || ledger.CodeOf(err) == ledger.CodeIO {
			rec = &r
		}

	case OpEdit:
		event.Ref = step.Edit.Record
		if event.Key, bound = refKey(step.Edit.Record, h.aliases); !bound {
			break
		}
		var r ledger.Record
		r, err = h.ledger.Edit(ctx, event.Key, ledger.Patch{Name: step.Edit.Name, Topic: step.Edit.Topic})
		if err == nil || ledger.CodeOf(err) == ledger.CodeIO {
			rec = &r
		}

	case OpDelete:
		event.Ref = step.Delete
		if event.Key, bound = refKey(step.Delete, h.aliases); !bound {
			break
		}
		err = h.ledger.Delete(ctx, event.Key)

	case OpClear:
		err = h.ledger.ClearAll(ctx)

	case OpFilter:
		event.Query = *step.Filter
		for r := range h.ledger.Filter(*step.Filter) {
			event.IDs = append(event.IDs, r.ID)
		}
	}

	switch {
	case !bound:
		event.Outcome = OutcomeUnbound
	case err != nil:
		event.Outcome = string(ledger.CodeOf(err))
		if event.Outcome == "" {
			event.Outcome = err.Error()
		}
	default:
		event.Outcome = OutcomeOK
	}
	event.Record = rec
	event.Identity = h.ledger.Identity()
	event.Count = h.ledger.Len()
	result.AddTrace(event)

	h.logger.Debug("step executed",
		slog.Int("step", n),
		slog.String("op", op),
		slog.String("outcome", event.Outcome),
	)

	if !bound {
		// The step never ran, so its expectation says nothing.
		result.AddError(fmt.Sprintf("step %d (%s): alias %q was never bound", n, op, event.Ref))
		return
	}
	for _, msg := range checkExpect(step.Expect, event) {
		result.AddError(fmt.Sprintf("step %d (%s): %s", n, op, msg))
	}
}

// checkExpect compares a step's trace event against its expectation.
func checkExpect(expect *Expect, event TraceEvent) []string {
	want := OutcomeOK
	if expect != nil && expect.Error != "" {
		want = expect.Error
	}
	if event.Outcome != want {
		return []string{fmt.Sprintf("expected %s, got %s", want, event.Outcome)}
	}
	if expect == nil {
		return nil
	}

	var errs []string
	if len(expect.Record) > 0 {
		if event.Record == nil {
			errs = append(errs, "expected a record, step returned none")
		} else if msg := matchRecord(*event.Record, expect.Record); msg != "" {
			errs = append(errs, msg)
		}
	}
	if expect.IDs != nil && !slices.Equal(event.IDs, expect.IDs) {
		errs = append(errs, fmt.Sprintf("ids = %v, want %v", event.IDs, expect.IDs))
	}
	return errs
}

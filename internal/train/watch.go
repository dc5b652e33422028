package train

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/goccy/go-json"
)

// Step is one evaluated epoch together with the tracker state after it.
type Step struct {
	State    EpochState
	Tracker  EarlyStopping
	Decision Decision
}

// Sink receives every step, e.g. to persist it.
type Sink func(ctx context.Context, step Step) error

// report is an epoch report as written by the trainer. The metric is absent
// until the first evaluation has run.
type report struct {
	Epoch      float64  `json:"epoch"`
	BestMetric *float64 `json:"best_metric"`
}

// Watch reads JSON epoch reports from r, one per line, until the tracker
// decides to stop or the input ends. Reports without a metric are skipped.
// The returned step is the last one seen.
func Watch(ctx context.Context, r io.Reader, tracker EarlyStopping, sink Sink) (Step, error) {
	dec := json.NewDecoder(r)
	var last Step
	for {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		var rep report
		err := dec.Decode(&rep)
		if err == io.EOF {
			return last, nil
		}
		if err != nil {
			return last, fmt.Errorf("failed to decode epoch report: %w", err)
		}
		if rep.BestMetric == nil {
			slog.Default().Debug("skipping epoch without metric", "epoch", rep.Epoch)
			continue
		}
		state := EpochState{Epoch: rep.Epoch, BestMetric: *rep.BestMetric}

		var decision Decision
		tracker, decision = tracker.OnEpochEnd(state)
		last = Step{State: state, Tracker: tracker, Decision: decision}

		slog.Default().Debug("epoch end",
			"epoch", state.Epoch,
			"best_metric", state.BestMetric,
			"best", tracker.Best,
			"bad_epochs", tracker.Bad,
			"decision", decision,
		)

		if sink != nil {
			if err := sink(ctx, last); err != nil {
				return last, fmt.Errorf("failed to record epoch %v: %w", state.Epoch, err)
			}
		}
		if decision == Stop {
			slog.Default().Info("Early stopping", "epoch", state.Epoch, "best", tracker.Best)
			return last, nil
		}
	}
}

// Package train holds the training-side logic that sits next to the external
// trainer: deciding when to stop and recording what it reported.
package train

import "math"

const DefaultPatience = 2

type Decision int

const (
	Continue Decision = iota
	Stop
)

func (d Decision) String() string {
	if d == Stop {
		return "stop"
	}
	return "continue"
}

// EpochState is what the trainer reports at the end of an epoch.
type EpochState struct {
	Epoch      float64 `json:"epoch"`
	BestMetric float64 `json:"best_metric"`
}

// EarlyStopping tracks the best validation loss seen so far and the number
// of consecutive epochs without improvement.
type EarlyStopping struct {
	Patience int
	Best     float64
	Bad      int
}

func NewEarlyStopping(patience int) EarlyStopping {
	if patience <= 0 {
		patience = DefaultPatience
	}
	return EarlyStopping{
		Patience: patience,
		Best:     math.Inf(1),
	}
}

// OnEpochEnd returns the next tracker state and whether training should stop.
// Only a strictly lower metric counts as an improvement.
func (e EarlyStopping) OnEpochEnd(state EpochState) (EarlyStopping, Decision) {
	if state.BestMetric < e.Best {
		e.Best = state.BestMetric
		e.Bad = 0
		return e, Continue
	}
	e.Bad++
	if e.Bad >= e.Patience {
		return e, Stop
	}
	return e, Continue
}

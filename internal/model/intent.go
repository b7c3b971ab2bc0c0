package model

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Action is the coarse kind of answer the user wants.
type Action string

const (
	ActionUnknown Action = "unknown"
	ActionCompare Action = "compare"
	ActionTrend   Action = "trend"
	ActionDisplay Action = "display"
	ActionRank    Action = "rank"
	ActionAnalyze Action = "analyze"
	ActionPredict Action = "predict"
)

// Timeframe is the temporal orientation of a question.
type Timeframe string

const (
	TimeframePast    Timeframe = "past"
	TimeframeCurrent Timeframe = "current"
	TimeframeFuture  Timeframe = "future"
)

// Intent classifies a user utterance.
type Intent struct {
	Action     Action    `json:"action" validate:"oneof=unknown compare trend display rank analyze predict"`
	Comparison bool      `json:"comparison"`
	Trend      bool      `json:"trend"`
	Timeframe  Timeframe `json:"timeframe" validate:"oneof=past current future"`
}

var validate = validator.New()

// NewIntent builds an intent whose flags are derived from the action.
func NewIntent(action Action, timeframe Timeframe) (Intent, error) {
	intent := Intent{
		Action:     action,
		Comparison: action == ActionCompare,
		Trend:      action == ActionTrend,
		Timeframe:  timeframe,
	}
	if err := intent.Validate(); err != nil {
		return Intent{}, err
	}
	return intent, nil
}

// UnknownIntent is the intent of an utterance nothing could be classified from.
func UnknownIntent() Intent {
	return Intent{Action: ActionUnknown, Timeframe: TimeframeCurrent}
}

// Validate checks the enumerations and that the flags agree with the action.
func (i Intent) Validate() error {
	if err := validate.Struct(i); err != nil {
		return fmt.Errorf("invalid intent: %w", err)
	}
	if i.Comparison != (i.Action == ActionCompare) || i.Trend != (i.Action == ActionTrend) {
		return fmt.Errorf("invalid intent: flags disagree with action %q", i.Action)
	}
	return nil
}

// UnmarshalJSON accepts the empty object stored before the first turn. The
// flags are derived from the action again, and unknown enumerations are rejected.
func (i *Intent) UnmarshalJSON(data []byte) error {
	type plain Intent
	var in plain
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Action == "" {
		in.Action = ActionUnknown
	}
	if in.Timeframe == "" {
		in.Timeframe = TimeframeCurrent
	}
	intent, err := NewIntent(in.Action, in.Timeframe)
	if err != nil {
		return err
	}
	*i = intent
	return nil
}

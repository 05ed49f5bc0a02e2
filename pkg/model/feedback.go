package model

import "github.com/m-mizutani/goerr/v2"

var (
	ErrInvalidFeedback = goerr.New("invalid feedback")
)

type Feedback string

const (
	FeedbackNone     Feedback = ""
	FeedbackPositive Feedback = "positive"
	FeedbackNegative Feedback = "negative"
)

// feedbackTransitions maps (current state, requested rating) to the next state.
// Requesting the active rating clears it; requesting the other one replaces it.
var feedbackTransitions = map[Feedback]map[Feedback]Feedback{
	FeedbackNone: {
		FeedbackPositive: FeedbackPositive,
		FeedbackNegative: FeedbackNegative,
	},
	FeedbackPositive: {
		FeedbackPositive: FeedbackNone,
		FeedbackNegative: FeedbackNegative,
	},
	FeedbackNegative: {
		FeedbackPositive: FeedbackPositive,
		FeedbackNegative: FeedbackNone,
	},
}

// Validate checks that f is a rating a user can request
func (f Feedback) Validate() error {
	switch f {
	case FeedbackPositive, FeedbackNegative:
		return nil
	default:
		return goerr.Wrap(ErrInvalidFeedback, "feedback must be positive or negative", goerr.V("feedback", f))
	}
}

// Toggle returns the state after requesting rating input on a message currently rated f
func (f Feedback) Toggle(input Feedback) (Feedback, error) {
	if err := input.Validate(); err != nil {
		return f, err
	}

	next, ok := feedbackTransitions[f][input]
	if !ok {
		return f, goerr.Wrap(ErrInvalidFeedback, "unknown current feedback state", goerr.V("feedback", f))
	}
	return next, nil
}

// ParseFeedback accepts a rating name or its thumbs up/down shorthand
func ParseFeedback(s string) (Feedback, error) {
	switch s {
	case "positive", "up", "+":
		return FeedbackPositive, nil
	case "negative", "down", "-":
		return FeedbackNegative, nil
	default:
		return FeedbackNone, goerr.Wrap(ErrInvalidFeedback, "unknown feedback", goerr.V("input", s))
	}
}

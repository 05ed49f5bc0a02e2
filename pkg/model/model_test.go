package model_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/intellica/pkg/model"
)

func TestFeedbackToggle(t *testing.T) {
	testCases := []struct {
		current model.Feedback
		input   model.Feedback
		expect  model.Feedback
	}{
		{model.FeedbackNone, model.FeedbackPositive, model.FeedbackPositive},
		{model.FeedbackNone, model.FeedbackNegative, model.FeedbackNegative},
		{model.FeedbackPositive, model.FeedbackPositive, model.FeedbackNone},
		{model.FeedbackPositive, model.FeedbackNegative, model.FeedbackNegative},
		{model.FeedbackNegative, model.FeedbackPositive, model.FeedbackPositive},
		{model.FeedbackNegative, model.FeedbackNegative, model.FeedbackNone},
	}

	for _, tc := range testCases {
		t.Run(string(tc.current)+"->"+string(tc.input), func(t *testing.T) {
			next, err := tc.current.Toggle(tc.input)
			gt.NoError(t, err)
			gt.Equal(t, next, tc.expect)
		})
	}
}

func TestFeedbackToggleTwiceClears(t *testing.T) {
	for _, input := range []model.Feedback{model.FeedbackPositive, model.FeedbackNegative} {
		first, err := model.FeedbackNone.Toggle(input)
		gt.NoError(t, err)
		second, err := first.Toggle(input)
		gt.NoError(t, err)
		gt.Equal(t, second, model.FeedbackNone)
	}
}

func TestFeedbackToggleInvalidInput(t *testing.T) {
	next, err := model.FeedbackPositive.Toggle(model.FeedbackNone)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidFeedback))
	gt.Equal(t, next, model.FeedbackPositive)
}

func TestParseFeedback(t *testing.T) {
	fb, err := model.ParseFeedback("up")
	gt.NoError(t, err)
	gt.Equal(t, fb, model.FeedbackPositive)

	fb, err = model.ParseFeedback("negative")
	gt.NoError(t, err)
	gt.Equal(t, fb, model.FeedbackNegative)

	_, err = model.ParseFeedback("meh")
	gt.Error(t, err)
}

func TestDeriveTitle(t *testing.T) {
	exact := strings.Repeat("a", 30)
	gt.Equal(t, model.DeriveTitle([]*model.Message{model.NewUserMessage(exact)}), exact)

	long := strings.Repeat("b", 31)
	gt.Equal(t, model.DeriveTitle([]*model.Message{model.NewUserMessage(long)}), strings.Repeat("b", 30)+"...")

	gt.Equal(t, model.DeriveTitle([]*model.Message{model.NewUserMessage("Hello")}), "Hello")
	gt.Equal(t, model.DeriveTitle(nil), "")
}

func TestDeriveTitleMultibyte(t *testing.T) {
	content := strings.Repeat("量", 31)
	title := model.DeriveTitle([]*model.Message{model.NewUserMessage(content)})
	gt.Equal(t, title, strings.Repeat("量", 30)+"...")
}

func TestNewMessageIDIsStrictlyIncreasing(t *testing.T) {
	prev := model.NewMessageID()
	for i := 0; i < 10000; i++ {
		id := model.NewMessageID()
		gt.True(t, id > prev)
		prev = id
	}
}

func TestMessageClone(t *testing.T) {
	msg := model.NewAgentMessage(&model.AgentResponse{
		Answer:      "answer",
		Sources:     []model.Source{{Content: "excerpt", Origin: "doc.txt"}},
		Suggestions: []string{"Topic A"},
	})

	cloned := msg.Clone()
	cloned.Suggestions[0] = "changed"
	cloned.Sources[0].Origin = "changed"
	cloned.Feedback = model.FeedbackPositive

	gt.Equal(t, msg.Suggestions[0], "Topic A")
	gt.Equal(t, msg.Sources[0].Origin, "doc.txt")
	gt.Equal(t, msg.Feedback, model.FeedbackNone)
}

func TestErrorMessageRejectsFeedback(t *testing.T) {
	msg := model.NewErrorMessage()
	gt.Equal(t, msg.Role, model.RoleAgent)
	gt.Equal(t, msg.Content, model.AgentErrorText)
	gt.False(t, msg.AcceptsFeedback())
	gt.False(t, model.NewUserMessage("hi").AcceptsFeedback())
	gt.True(t, model.NewAgentMessage(nil).AcceptsFeedback())
}

func TestNormalizeAgentResponse(t *testing.T) {
	resp := (&model.RawAgentResponse{Answer: "Hi there"}).Normalize()
	gt.Equal(t, resp.Answer, "Hi there")
	gt.NotNil(t, resp.Sources)
	gt.NotNil(t, resp.Suggestions)
	gt.A(t, resp.Sources).Length(0)
	gt.A(t, resp.Suggestions).Length(0)

	alias := (&model.RawAgentResponse{Response: "from alias", Suggestions: []string{"A", "", "B"}}).Normalize()
	gt.Equal(t, alias.Answer, "from alias")
	gt.Equal(t, alias.Suggestions, []string{"A", "B"})
}

func TestRoleValidate(t *testing.T) {
	gt.NoError(t, model.RoleUser.Validate())
	gt.NoError(t, model.RoleAgent.Validate())
	gt.Error(t, model.Role("system").Validate())
}

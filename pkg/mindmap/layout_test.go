package mindmap_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/intellica/pkg/mindmap"
	"github.com/m-mizutani/intellica/pkg/model"
)

const epsilon = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestLayoutFourTopics(t *testing.T) {
	m, err := mindmap.Layout("center", []string{"a", "b", "c", "d"})
	gt.NoError(t, err)
	gt.A(t, m.Nodes).Length(4)
	gt.A(t, m.Edges).Length(4)
	gt.Equal(t, m.Center.Label, "center")

	expected := []struct {
		degrees float64
		x, y    float64
	}{
		{0, mindmap.Radius, 0},
		{90, 0, mindmap.Radius},
		{180, -mindmap.Radius, 0},
		{270, 0, -mindmap.Radius},
	}

	for i, e := range expected {
		node := m.Nodes[i]
		gt.True(t, near(node.Degrees(), e.degrees)).Describe("angle of node " + node.Label)
		gt.True(t, math.Abs(node.X-e.x) < 1e-6).Describe("x of node " + node.Label)
		gt.True(t, math.Abs(node.Y-e.y) < 1e-6).Describe("y of node " + node.Label)
		gt.True(t, near(math.Hypot(node.X, node.Y), mindmap.Radius))

		edge := m.Edges[i]
		gt.Equal(t, edge.To, i)
		gt.True(t, near(edge.Angle, node.Angle))
		gt.True(t, near(edge.Length, mindmap.Radius))
	}
}

func TestLayoutKeepsInputOrder(t *testing.T) {
	m, err := mindmap.Layout("c", []string{"first", "second", "third"})
	gt.NoError(t, err)
	gt.Equal(t, m.Nodes[0].Label, "first")
	gt.Equal(t, m.Nodes[1].Label, "second")
	gt.Equal(t, m.Nodes[2].Label, "third")
	gt.True(t, near(m.Nodes[1].Degrees(), 120))
	gt.True(t, near(m.Nodes[2].Degrees(), 240))
}

func TestLayoutIsDeterministic(t *testing.T) {
	topics := []string{"x", "y", "z", "w", "v"}
	a, err := mindmap.Layout("c", topics)
	gt.NoError(t, err)
	b, err := mindmap.Layout("c", topics)
	gt.NoError(t, err)
	gt.Equal(t, a, b)
}

func TestLayoutRejectsEmpty(t *testing.T) {
	_, err := mindmap.Layout("c", nil)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, mindmap.ErrNoTopics))
}

func TestForMessage(t *testing.T) {
	msg := model.NewAgentMessage(&model.AgentResponse{
		Answer:      "Hi there",
		Suggestions: []string{"Topic A", "Topic B"},
	})

	m := mindmap.ForMessage(msg)
	gt.Equal(t, m.Center.Label, mindmap.CenterLabel)
	gt.A(t, m.Nodes).Length(2)
	gt.True(t, near(m.Nodes[0].Degrees(), 0))
	gt.True(t, near(m.Nodes[1].Degrees(), 180))
}

func TestForMessageWithoutSuggestions(t *testing.T) {
	m := mindmap.ForMessage(model.NewAgentMessage(&model.AgentResponse{Answer: "plain"}))
	gt.A(t, m.Nodes).Length(1)
	gt.Equal(t, m.Nodes[0].Label, mindmap.Placeholder)
	gt.True(t, near(m.Nodes[0].X, mindmap.Radius))
}

func TestRender(t *testing.T) {
	m, err := mindmap.Layout("Key Concept", []string{"Topic A", "Topic B"})
	gt.NoError(t, err)

	buf := &bytes.Buffer{}
	gt.NoError(t, m.Render(buf))
	gt.S(t, buf.String()).Contains("(Key Concept)")
	gt.S(t, buf.String()).Contains("1. Topic A")
	gt.S(t, buf.String()).Contains("180.0°")
}

package mindmap

import (
	"fmt"
	"io"
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/intellica/pkg/model"
)

var (
	ErrNoTopics = goerr.New("mind map requires at least one topic")
)

const (
	// Radius is the distance between the center and every peripheral node
	Radius = 160.0

	// CenterLabel is the label of the center node of a message mind map
	CenterLabel = "Key Concept"

	// Placeholder replaces the topics of a message without suggestions
	Placeholder = "No data"
)

// Node is a positioned label. X and Y are offsets from the center node.
type Node struct {
	Label string
	Angle float64 // radians
	X     float64
	Y     float64
}

// Edge connects the center to a peripheral node
type Edge struct {
	To     int // index into Map.Nodes
	Angle  float64
	Length float64
}

// Map is a radial layout of topics around a center
type Map struct {
	Center Node
	Nodes  []Node
	Edges  []Edge
}

// Layout places topics evenly on a circle of Radius around center, in input order,
// starting at angle 0
func Layout(center string, topics []string) (*Map, error) {
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}

	n := float64(len(topics))
	m := &Map{
		Center: Node{Label: center},
		Nodes:  make([]Node, len(topics)),
		Edges:  make([]Edge, len(topics)),
	}

	for i, topic := range topics {
		angle := float64(i) / n * 2 * math.Pi
		m.Nodes[i] = Node{
			Label: topic,
			Angle: angle,
			X:     Radius * math.Cos(angle),
			Y:     Radius * math.Sin(angle),
		}
		m.Edges[i] = Edge{
			To:     i,
			Angle:  angle,
			Length: Radius,
		}
	}

	return m, nil
}

// ForMessage lays out the suggestions of an agent message. A message without
// suggestions gets a single placeholder node.
func ForMessage(msg *model.Message) *Map {
	topics := []string{Placeholder}
	if msg != nil && len(msg.Suggestions) > 0 {
		topics = msg.Suggestions
	}

	m, err := Layout(CenterLabel, topics)
	if err != nil {
		// unreachable: topics is never empty
		panic(err)
	}
	return m
}

// Degrees converts a node angle to degrees
func (n Node) Degrees() float64 {
	return n.Angle * 180 / math.Pi
}

// Render writes a plain text listing of the map, one peripheral node per line
func (m *Map) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "(%s)\n", m.Center.Label); err != nil {
		return goerr.Wrap(err, "failed to write mind map center")
	}
	for i, node := range m.Nodes {
		if _, err := fmt.Fprintf(w, "  %d. %-40s %6.1f°  (%7.1f, %7.1f)\n",
			i+1, node.Label, node.Degrees(), node.X, node.Y); err != nil {
			return goerr.Wrap(err, "failed to write mind map node", goerr.V("index", i))
		}
	}
	return nil
}

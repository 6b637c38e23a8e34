// Package mindmap builds a relevance graph over embedded chunks, shaped for
// direct rendering in a flow diagram frontend.
package mindmap

import (
	"fmt"
	"math"

	"github.com/thebtf/lifelog/internal/vector"
	"github.com/thebtf/lifelog/pkg/models"
)

// DefaultThreshold is the minimum cosine similarity for an edge.
const DefaultThreshold = 0.5

// labelLength is how much chunk text the node label shows.
const labelLength = 20

// NodeData is the payload attached to each graph node.
type NodeData struct {
	Label      string `json:"label"`
	Text       string `json:"text"`
	ActivityID int64  `json:"activity_id"`
}

// Position places a node in the rendered layout.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one chunk in the graph.
type Node struct {
	ID       string   `json:"id"`
	Data     NodeData `json:"data"`
	Position Position `json:"position"`
}

// Edge connects two chunks whose similarity clears the threshold.
type Edge struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Graph is the full relevance graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build computes the relevance graph over the given chunks. Every chunk
// becomes a node; pairs with cosine similarity above threshold become edges.
// Chunks with zero-norm vectors get nodes but never edges.
func Build(records []*models.EmbeddingRecord, threshold float64) Graph {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	g := Graph{
		Nodes: make([]Node, 0, len(records)),
		Edges: []Edge{},
	}
	for i, rec := range records {
		g.Nodes = append(g.Nodes, Node{
			ID: rec.ID,
			Data: NodeData{
				Label:      label(rec.Text),
				Text:       rec.Text,
				ActivityID: rec.ActivityID,
			},
			Position: place(i, len(records)),
		})
	}

	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			sim := vector.Cosine(records[i].Vector, records[j].Vector)
			if sim <= threshold {
				continue
			}
			g.Edges = append(g.Edges, Edge{
				ID:     fmt.Sprintf("e-%s-%s", records[i].ID, records[j].ID),
				Source: records[i].ID,
				Target: records[j].ID,
				Weight: sim,
			})
		}
	}

	return g
}

func label(text string) string {
	runes := []rune(text)
	if len(runes) <= labelLength {
		return text
	}
	return string(runes[:labelLength])
}

// place lays nodes out on a circle so the frontend has a sane starting
// layout.
func place(i, total int) Position {
	if total <= 1 {
		return Position{}
	}
	const radius = 400.0
	angle := 2 * math.Pi * float64(i) / float64(total)
	return Position{
		X: math.Round(radius * math.Cos(angle)),
		Y: math.Round(radius * math.Sin(angle)),
	}
}

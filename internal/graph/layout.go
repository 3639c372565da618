// Package graph computes the connection-graph layout shown next to an
// analysis: the active note in the middle and its linked notes on a circle.
package graph

import (
	"math"

	"github.com/starford/notelens/internal/models"
)

// Canvas geometry.
const (
	Width   = 800
	Height  = 600
	CenterX = 400.0
	CenterY = 300.0
	Radius  = 200.0

	// CenterLabel is the label of the active note's node.
	CenterLabel = "Current Note"
	// DefaultStrength is used when no connection strength is known.
	DefaultStrength = 0.5
)

// Node is a positioned note.
type Node struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Edge connects the active note to a linked note. Strength is in [0,1].
type Edge struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Strength float64 `json:"strength"`
}

// Layout is a complete positioned graph.
type Layout struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Nodes  []Node `json:"nodes"`
	Edges  []Edge `json:"edges"`
}

// Circular places active at the canvas centre and the linked notes evenly
// on a circle around it, the i-th at angle 2πi/n. connectionStrength is on
// the 0-100 scale; zero falls back to DefaultStrength.
func Circular(active string, linked []string, connectionStrength int) Layout {
	l := Layout{
		Width:  Width,
		Height: Height,
		Nodes:  []Node{{ID: active, Label: CenterLabel, X: CenterX, Y: CenterY}},
		Edges:  []Edge{},
	}
	strength := DefaultStrength
	if connectionStrength != 0 {
		strength = float64(connectionStrength) / 100
	}
	n := len(linked)
	for i, p := range linked {
		angle := 2 * math.Pi * float64(i) / float64(n)
		l.Nodes = append(l.Nodes, Node{
			ID:    p,
			Label: models.Basename(p),
			X:     CenterX + Radius*math.Cos(angle),
			Y:     CenterY + Radius*math.Sin(angle),
		})
		l.Edges = append(l.Edges, Edge{From: active, To: p, Strength: strength})
	}
	return l
}

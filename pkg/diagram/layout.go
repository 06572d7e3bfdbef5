package diagram

import (
	"fmt"

	"github.com/orgflowhq/orgflow/pkg/flow"
	"github.com/orgflowhq/orgflow/pkg/models"
)

// Geometry constants for the custom renderer. Widths and heights are in
// canvas units; text metrics use a fixed character-width heuristic.
const (
	CanvasWidth = 720.0

	charWidth  = 7.2
	lineHeight = 18.0

	nodeMinWidth = 140.0
	nodeMaxWidth = 300.0
	nodePadX     = 16.0
	nodePadY     = 14.0

	nodeSpacing   = 48.0
	canvasPadding = 40.0

	wrapColumns = 34

	edgeBend = 36.0
)

// minHeight returns the per-type minimum node height: terminal < action <
// decision.
func minHeight(t models.StepType) float64 {
	switch t {
	case models.StepTypeDecision:
		return 88.0
	case models.StepTypeAction:
		return 64.0
	default:
		return 48.0
	}
}

// Node is one positioned node of a layout. X and Y locate the node center.
type Node struct {
	StepID string          `json:"step_id"`
	Type   models.StepType `json:"type"`
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
	Lines  []string        `json:"lines"`
	Fill   string          `json:"fill"`
	Stroke string          `json:"stroke"`
}

// EdgePath is a rendered edge between two positioned nodes, anchored at the
// bottom center of the source and the top center of the target.
type EdgePath struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Label    string `json:"label,omitempty"`
	Path     string `json:"path"`
}

// Layout is the positioned output for the custom renderer.
type Layout struct {
	Nodes  []Node     `json:"nodes"`
	Edges  []EdgePath `json:"edges"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
}

// ComputeLayout positions the steps as a vertical stack. Node text drives
// node size; centers are spaced so adjacent nodes can never overlap
// regardless of their individual heights. The result depends only on the
// arguments, so identical input yields identical geometry.
func ComputeLayout(steps []*models.Step, lookup Lookup, opts Options) Layout {
	layout := Layout{
		Nodes: make([]Node, 0, len(steps)),
		Width: CanvasWidth,
	}

	center := canvasPadding

	for i, step := range steps {
		lines := nodeLines(step, steps, lookup, opts)

		width := float64(longestLine(lines))*charWidth + 2*nodePadX
		width = clamp(width, nodeMinWidth, nodeMaxWidth)

		height := float64(len(lines))*lineHeight + 2*nodePadY
		if floor := minHeight(step.Type); height < floor {
			height = floor
		}

		if i == 0 {
			center += height / 2
		} else {
			previous := layout.Nodes[i-1]
			center = previous.Y + previous.Height/2 + nodeSpacing + height/2
		}

		fill, stroke := nodeColors(step, lookup, opts)

		layout.Nodes = append(layout.Nodes, Node{
			StepID: step.ID,
			Type:   step.Type,
			X:      CanvasWidth / 2,
			Y:      center,
			Width:  width,
			Height: height,
			Lines:  lines,
			Fill:   fill,
			Stroke: stroke,
		})
	}

	if n := len(layout.Nodes); n > 0 {
		last := layout.Nodes[n-1]
		layout.Height = last.Y + last.Height/2 + canvasPadding
	}

	layout.Edges = edgePaths(steps, layout.Nodes)

	return layout
}

// nodeLines builds the display text of a node: the wrapped label plus the
// derived metadata lines for role, department and decision branches.
func nodeLines(step *models.Step, steps []*models.Step, lookup Lookup, opts Options) []string {
	lines := wrapLabel(step.DisplayLabel(), wrapColumns)

	if opts.ShowRoles {
		if role := lookup.Role(step); role != nil {
			lines = append(lines, role.Name)
		}
	}

	if opts.ShowDepartments {
		if department := lookup.Department(step); department != nil {
			lines = append(lines, department.Name)
		}
	}

	lines = append(lines, flow.BranchSummaries(step, steps)...)

	return lines
}

// nodeColors picks fill and stroke. An available role/department color is
// blended into the base fill at a fixed alpha instead of used solid, so the
// node text stays readable; the stroke uses the raw color.
func nodeColors(step *models.Step, lookup Lookup, opts Options) (fill, stroke string) {
	if opts.Colors {
		if color := lookup.stepColor(step); color != "" {
			return blendHex(color, fillAlpha), color
		}
	}

	return defaultFill, defaultInk
}

// edgePaths renders every resolved edge as a cubic curve from the source's
// bottom center to the target's top center.
func edgePaths(steps []*models.Step, nodes []Node) []EdgePath {
	byID := make(map[string]Node, len(nodes))
	for _, node := range nodes {
		byID[node.StepID] = node
	}

	edges := flow.ResolveEdges(steps)
	paths := make([]EdgePath, 0, len(edges))

	for _, edge := range edges {
		source, ok := byID[edge.SourceID]
		if !ok {
			continue
		}

		target, ok := byID[edge.TargetID]
		if !ok {
			continue
		}

		sx, sy := source.X, source.Y+source.Height/2
		tx, ty := target.X, target.Y-target.Height/2

		path := fmt.Sprintf("M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f",
			sx, sy, sx, sy+edgeBend, tx, ty-edgeBend, tx, ty)

		paths = append(paths, EdgePath{
			SourceID: edge.SourceID,
			TargetID: edge.TargetID,
			Label:    edge.Label,
			Path:     path,
		})
	}

	return paths
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}

	if v > high {
		return high
	}

	return v
}

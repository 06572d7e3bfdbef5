// Package flow computes the effective edges of a process step sequence,
// applying decision branch overrides with sequential fallback.
package flow

import (
	"github.com/orgflowhq/orgflow/pkg/models"
)

// Branch identifies which outgoing edge of a step an Edge represents.
type Branch string

const (
	BranchDefault Branch = ""    // Sequential next-step edge
	BranchYes     Branch = "yes" // Decision "yes" edge
	BranchNo      Branch = "no"  // Decision "no" edge
)

// Edge is one effective edge between two steps. Label is the display text
// for decision branches ("Yes"/"No") and empty for default edges.
type Edge struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Branch   Branch `json:"branch,omitempty"`
	Label    string `json:"label,omitempty"`
}

// ResolveEdges computes the ordered effective edges for a step list.
//
// The default edge of step i is to step i+1. A decision step instead emits a
// "yes" and a "no" edge; each uses the step's explicit target when that
// target names another live step in the list, and falls back to the default
// next step otherwise. Dangling targets are silently ignored, not errors.
// Branches may point backward; edges are presentation hints over a linear
// sequence, so no cycle detection is performed.
func ResolveEdges(steps []*models.Step) []Edge {
	if len(steps) < 2 {
		return nil
	}

	index := make(map[string]int, len(steps))
	for i, step := range steps {
		index[step.ID] = i
	}

	resolve := func(step *models.Step, targetID string, next string) (string, bool) {
		if targetID != "" && targetID != step.ID {
			if _, live := index[targetID]; live {
				return targetID, true
			}
		}

		return next, next != ""
	}

	edges := make([]Edge, 0, len(steps))

	for i, step := range steps {
		next := ""
		if i+1 < len(steps) {
			next = steps[i+1].ID
		}

		if step.Type == models.StepTypeDecision {
			if target, ok := resolve(step, step.YesTargetID, next); ok {
				edges = append(edges, Edge{SourceID: step.ID, TargetID: target, Branch: BranchYes, Label: "Yes"})
			}

			if target, ok := resolve(step, step.NoTargetID, next); ok {
				edges = append(edges, Edge{SourceID: step.ID, TargetID: target, Branch: BranchNo, Label: "No"})
			}

			continue
		}

		if next != "" {
			edges = append(edges, Edge{SourceID: step.ID, TargetID: next})
		}
	}

	return edges
}

// BranchSummaries derives the display summaries for a decision step's
// branches, e.g. "Yes → Approve order". The summaries are recomputed from
// the current labels of the resolved targets and never stored.
func BranchSummaries(step *models.Step, steps []*models.Step) []string {
	if step.Type != models.StepTypeDecision {
		return nil
	}

	targets := make(map[string]*models.Step, 2)

	for _, edge := range ResolveEdges(steps) {
		if edge.SourceID != step.ID {
			continue
		}

		for _, candidate := range steps {
			if candidate.ID == edge.TargetID {
				targets[string(edge.Branch)] = candidate
			}
		}
	}

	summaries := make([]string, 0, 2)

	if target, ok := targets[string(BranchYes)]; ok {
		summaries = append(summaries, "Yes → "+target.DisplayLabel())
	}

	if target, ok := targets[string(BranchNo)]; ok {
		summaries = append(summaries, "No → "+target.DisplayLabel())
	}

	return summaries
}

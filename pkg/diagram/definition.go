package diagram

import (
	"strings"

	"github.com/orgflowhq/orgflow/pkg/flow"
	"github.com/orgflowhq/orgflow/pkg/models"
)

// CompileDefinition renders the step list as a flowchart definition for the
// grammar-based renderer.
//
// Output layout: header, node declarations (optionally grouped by
// department), edges in branch-resolver order, style classes, then class
// assignments in step order. All sequences follow step order or first
// appearance, never map iteration, so equal input compiles to equal text.
func CompileDefinition(steps []*models.Step, lookup Lookup, opts Options) string {
	var b strings.Builder

	b.WriteString("flowchart TD\n")

	writeNodes(&b, steps, lookup, opts)
	writeEdges(&b, steps)
	writeStyles(&b, steps, lookup, opts)

	return b.String()
}

func writeNodes(b *strings.Builder, steps []*models.Step, lookup Lookup, opts Options) {
	if !opts.GroupByDepartment {
		for _, step := range steps {
			b.WriteString("    " + nodeDeclaration(step) + "\n")
		}

		return
	}

	grouped := make(map[string][]*models.Step)

	for _, step := range steps {
		if department := lookup.Department(step); department != nil {
			grouped[department.ID] = append(grouped[department.ID], step)
		}
	}

	// Walk the sequence once: a department block is emitted in full at the
	// position of its first step, ungrouped steps stay at their own position.
	emitted := make(map[string]bool, len(grouped))

	for _, step := range steps {
		department := lookup.Department(step)
		if department == nil {
			b.WriteString("    " + nodeDeclaration(step) + "\n")

			continue
		}

		if emitted[department.ID] {
			continue
		}

		emitted[department.ID] = true

		b.WriteString("    subgraph " + departmentToken(department.ID) + "[\"" + escapeLabel(department.Name) + "\"]\n")

		for _, member := range grouped[department.ID] {
			b.WriteString("        " + nodeDeclaration(member) + "\n")
		}

		b.WriteString("    end\n")
	}
}

func writeEdges(b *strings.Builder, steps []*models.Step) {
	for _, edge := range flow.ResolveEdges(steps) {
		source, target := sanitizeID(edge.SourceID), sanitizeID(edge.TargetID)

		if edge.Label == "" {
			b.WriteString("    " + source + " --> " + target + "\n")

			continue
		}

		b.WriteString("    " + source + " -->|" + edge.Label + "| " + target + "\n")
	}
}

func writeStyles(b *strings.Builder, steps []*models.Step, lookup Lookup, opts Options) {
	b.WriteString("    classDef step fill:#" + defaultFill + ",stroke:#" + defaultInk + "\n")
	b.WriteString("    classDef decision fill:#" + blendHex("D97706", fillAlpha) + ",stroke:#" + defaultInk + "\n")

	// Role classes in first-use order across the sequence.
	declared := make(map[string]bool)

	for _, step := range steps {
		class := stepClass(step, lookup, opts)
		if !strings.HasPrefix(class, "role_") || declared[class] {
			continue
		}

		declared[class] = true

		color := lookup.Role(step).Color
		b.WriteString("    classDef " + class + " fill:#" + blendHex(color, fillAlpha) + ",stroke:#" + color + "\n")
	}

	for _, step := range steps {
		b.WriteString("    class " + sanitizeID(step.ID) + " " + stepClass(step, lookup, opts) + "\n")
	}
}

// stepClass picks the style class for a step. Decision steps always use the
// decision style; a resolved role with a color wins next when coloring is
// enabled; everything else gets the default step style.
func stepClass(step *models.Step, lookup Lookup, opts Options) string {
	if step.Type == models.StepTypeDecision {
		return "decision"
	}

	if opts.Colors {
		if role := lookup.Role(step); role != nil && role.Color != "" {
			return "role_" + sanitizeID(role.ID)
		}
	}

	return "step"
}

// nodeDeclaration emits a node with the shape bracket for its type:
// pill for terminals, rectangle for actions, diamond for decisions.
func nodeDeclaration(step *models.Step) string {
	token := sanitizeID(step.ID)
	label := escapeLabel(step.DisplayLabel())

	switch step.Type {
	case models.StepTypeStart, models.StepTypeFinish:
		return token + "([\"" + label + "\"])"
	case models.StepTypeDecision:
		return token + "{\"" + label + "\"}"
	default:
		return token + "[\"" + label + "\"]"
	}
}

// escapeLabel keeps labels inside the definition grammar's quoted-string
// rules.
func escapeLabel(label string) string {
	return strings.ReplaceAll(label, `"`, "'")
}

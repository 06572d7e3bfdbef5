package editor

import "github.com/orgflowhq/orgflow/pkg/models"

// Palette hands out colors for entities created interactively in the
// editor. The cursor is explicit session state; two sessions never share
// it and replaying the same session yields the same assignment.
type Palette struct {
	colors []string
	cursor int
}

// NewPalette creates a palette over the default color set.
func NewPalette() *Palette {
	return &Palette{colors: models.PaletteColors}
}

// Next returns the next color, wrapping around at the end.
func (p *Palette) Next() string {
	color := p.colors[p.cursor%len(p.colors)]
	p.cursor++

	return color
}

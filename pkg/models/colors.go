package models

import "hash/fnv"

// PaletteColors is the default palette for departments and roles created
// without an explicit color, as 6-digit hex codes without the leading '#'.
var PaletteColors = []string{
	"2563EB", // blue
	"16A34A", // green
	"D97706", // amber
	"DC2626", // red
	"7C3AED", // violet
	"0891B2", // cyan
	"DB2777", // pink
	"65A30D", // lime
}

// ColorForName deterministically assigns a palette color to an entity name.
// The assignment hashes the normalized name, so the same name always gets
// the same color regardless of creation order or process state.
func ColorForName(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(NameKey(name)))

	return PaletteColors[h.Sum32()%uint32(len(PaletteColors))]
}

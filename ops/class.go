package ops

// ClassID is the combine-class tag of an op. Ops of different classes never
// combine, and comparing tags rejects them before any predicate runs.
type ClassID uint8

const (
	ClassClear    ClassID = iota + 1 // Clear a scissor rect to a color
	ClassFillRect                    // Batch of solid rectangles
	ClassTexture                     // Batch of textured polygons
	ClassCopy                        // Copy from another texture
	ClassResolve                     // Resolve MSAA samples
)

var classNames = [...]string{
	ClassClear:    "Clear",
	ClassFillRect: "FillRect",
	ClassTexture:  "Texture",
	ClassCopy:     "Copy",
	ClassResolve:  "Resolve",
}

// String returns the class name.
func (c ClassID) String() string {
	if int(c) < len(classNames) && classNames[c] != "" {
		return classNames[c]
	}
	return "Unknown"
}

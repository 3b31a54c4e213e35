package bump

import "strings"

// Flags selects how a bump is applied. The zero value is an absolute bump up.
type Flags uint8

const (
	// Relative scales the quote multiplicatively instead of adding a fixed amount.
	Relative Flags = 1 << iota
	// Down requests an algebraic decrease of the quote.
	Down
)

// Absolute and Up are the cleared facets, kept for readable call sites.
const (
	Absolute Flags = 0
	Up       Flags = 0
)

func (f Flags) IsRelative() bool { return f&Relative != 0 }
func (f Flags) IsDown() bool     { return f&Down != 0 }

// Flip returns the flags with the direction inverted.
func (f Flags) Flip() Flags { return f ^ Down }

func (f Flags) String() string {
	parts := make([]string, 0, 2)
	if f.IsRelative() {
		parts = append(parts, "Relative")
	} else {
		parts = append(parts, "Absolute")
	}
	if f.IsDown() {
		parts = append(parts, "Down")
	} else {
		parts = append(parts, "Up")
	}
	return strings.Join(parts, "|")
}

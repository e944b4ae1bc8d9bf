// Package category defines the tagged enumeration of rating dimensions.
//
// Every entity carries one rating per dimension. The global dimension is an
// aggregate updated on every vote; only the three category dimensions can be
// the direct subject of a vote. All field dispatch on ratings goes through
// this enumeration so a typo can never silently touch the wrong field.
package category

import "fmt"

// Dimension identifies one of the four rating dimensions.
type Dimension uint8

// Rating dimensions.
const (
	Global Dimension = iota
	Value
	Aesthetics
	Speed
)

// names is the canonical Dimension -> wire name lookup table.
var names = map[Dimension]string{
	Global:     "global",
	Value:      "value",
	Aesthetics: "aesthetics",
	Speed:      "speed",
}

// byName is the inverse lookup table, built once at init.
var byName = func() map[string]Dimension {
	m := make(map[string]Dimension, len(names))
	for d, n := range names {
		m[n] = d
	}
	return m
}()

// String returns the wire name of the dimension.
func (d Dimension) String() string {
	if n, ok := names[d]; ok {
		return n
	}
	return fmt.Sprintf("dimension(%d)", uint8(d))
}

// Valid reports whether d is a known dimension.
func (d Dimension) Valid() bool {
	_, ok := names[d]
	return ok
}

// Votable reports whether d can be the direct subject of a vote.
// The global dimension is never voted on directly.
func (d Dimension) Votable() bool {
	return d.Valid() && d != Global
}

// Parse resolves a wire name to a Dimension.
func Parse(name string) (Dimension, error) {
	d, ok := byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return d, nil
}

// ParseVotable resolves a wire name to a votable Dimension.
// The global dimension is rejected with ErrNotVotable.
func ParseVotable(name string) (Dimension, error) {
	d, err := Parse(name)
	if err != nil {
		return 0, err
	}
	if !d.Votable() {
		return 0, fmt.Errorf("%w: %q", ErrNotVotable, name)
	}
	return d, nil
}

// VotableDimensions returns the three dimensions that accept votes.
func VotableDimensions() []Dimension {
	return []Dimension{Value, Aesthetics, Speed}
}

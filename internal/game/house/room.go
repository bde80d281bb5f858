// Package house provides the haunted house model: rooms, the validated room
// catalog, and the per-room effect table.
package house

import (
	"errors"
	"iter"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

var (
	// ErrConfiguration marks a defect in the house definitions. It is fatal at
	// startup: duplicate names, dangling exits, or a missing start room.
	ErrConfiguration = errors.New("house configuration error")
	// ErrNotFound is returned by Catalog.Find when no room matches a name.
	ErrNotFound = errors.New("room not found")
)

// Normalize returns the lookup key for a room name. Surrounding whitespace is
// dropped and the remainder is Unicode case-folded, so "Front Hall",
// "front hall" and " FRONT HALL " share a key.
func Normalize(name string) string {
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Fold().String(strings.TrimSpace(name))
}

// Room is a single node of the house graph.
type Room struct {
	// Name is the display name, unique within a catalog after normalization.
	Name string
	// Description is the narrative text. Placeholder rooms may leave it empty.
	Description string
	// ImageRef is an opaque presentation asset handle.
	ImageRef string
	// Exits names the rooms reachable from this one, in display order.
	Exits []string
}

// Key returns the normalized catalog key for the room.
func (r Room) Key() string {
	return Normalize(r.Name)
}

// HasExit reports whether name matches one of the room's exits.
func (r Room) HasExit(name string) bool {
	key := Normalize(name)
	for _, e := range r.Exits {
		if Normalize(e) == key {
			return true
		}
	}
	return false
}

// ExitSeq yields the room's exits in declaration order. Duplicates are kept.
func (r Room) ExitSeq() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, e := range r.Exits {
			if !yield(e) {
				return
			}
		}
	}
}

func (r Room) clone() Room {
	r.Exits = slices.Clone(r.Exits)
	return r
}

// Definition is one literal room record as authored in house content.
type Definition struct {
	Name        string
	Description string
	ImageRef    string
	Exits       []string
	// Effect is played on entry. The zero value plays nothing.
	Effect EffectKind
}

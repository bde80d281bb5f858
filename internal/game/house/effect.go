package house

import (
	"fmt"
	"strings"
)

// EffectKind identifies a presentation effect triggered on entering a room.
type EffectKind int

const (
	// EffectNone plays nothing.
	EffectNone EffectKind = iota
	// EffectFlicker briefly oscillates the room's lighting.
	EffectFlicker
	// EffectGhostAppearance fades a ghost overlay in and back out.
	EffectGhostAppearance
)

var effectNames = map[EffectKind]string{
	EffectNone:            "none",
	EffectFlicker:         "flicker",
	EffectGhostAppearance: "ghost",
}

// String returns the content-file spelling of the effect.
func (k EffectKind) String() string {
	if name, ok := effectNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EffectKind(%d)", int(k))
}

// Valid reports whether k is a known effect.
func (k EffectKind) Valid() bool {
	_, ok := effectNames[k]
	return ok
}

// ParseEffectKind converts a content-file effect name to an EffectKind.
// The empty string means EffectNone.
//
// Postcondition: Returns a valid EffectKind or an error wrapping ErrConfiguration.
func ParseEffectKind(s string) (EffectKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return EffectNone, nil
	case "flicker":
		return EffectFlicker, nil
	case "ghost", "ghost_appearance":
		return EffectGhostAppearance, nil
	default:
		return EffectNone, fmt.Errorf("%w: unknown effect %q", ErrConfiguration, s)
	}
}

// EffectTable maps normalized room names to the effect played on entry.
// Rooms absent from the table play EffectNone.
type EffectTable map[string]EffectKind

// Lookup returns the effect mapped to the named room.
func (t EffectTable) Lookup(name string) EffectKind {
	if k, ok := t[Normalize(name)]; ok {
		return k
	}
	return EffectNone
}

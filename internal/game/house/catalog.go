package house

import (
	"errors"
	"fmt"
	"iter"
)

// Catalog is the validated, read-only set of rooms indexed by normalized name.
// It is safe to share between goroutines once Load has returned.
type Catalog struct {
	rooms   map[string]Room
	order   []string
	effects EffectTable
}

// Load builds a Catalog from room definitions.
//
// Precondition: defs should contain at least one definition.
// Postcondition: Returns a Catalog in which every exit resolves, or an error
// wrapping ErrConfiguration that lists every violation found.
func Load(defs []Definition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: house must contain at least one room", ErrConfiguration)
	}

	c := &Catalog{
		rooms:   make(map[string]Room, len(defs)),
		order:   make([]string, 0, len(defs)),
		effects: make(EffectTable),
	}

	var errs []error
	for i, d := range defs {
		key := Normalize(d.Name)
		if key == "" {
			errs = append(errs, fmt.Errorf("%w: room #%d: name must not be empty", ErrConfiguration, i+1))
			continue
		}
		if existing, ok := c.rooms[key]; ok {
			errs = append(errs, fmt.Errorf("%w: duplicate room name %q (already defined as %q)", ErrConfiguration, d.Name, existing.Name))
			continue
		}
		if !d.Effect.Valid() {
			errs = append(errs, fmt.Errorf("%w: room %q: invalid effect %s", ErrConfiguration, d.Name, d.Effect))
		}
		c.rooms[key] = Room{
			Name:        d.Name,
			Description: d.Description,
			ImageRef:    d.ImageRef,
			Exits:       append([]string(nil), d.Exits...),
		}
		c.order = append(c.order, key)
		if d.Effect != EffectNone {
			c.effects[key] = d.Effect
		}
	}

	for _, key := range c.order {
		room := c.rooms[key]
		for _, exit := range room.Exits {
			if _, ok := c.rooms[Normalize(exit)]; !ok {
				errs = append(errs, fmt.Errorf("%w: room %q: exit %q targets unknown room", ErrConfiguration, room.Name, exit))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// Find returns the room whose normalized name matches name.
//
// Postcondition: Returns (room, nil) or an error wrapping ErrNotFound.
func (c *Catalog) Find(name string) (Room, error) {
	r, ok := c.rooms[Normalize(name)]
	if !ok {
		return Room{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return r.clone(), nil
}

// Effect returns the effect played on entering the named room.
func (c *Catalog) Effect(name string) EffectKind {
	return c.effects.Lookup(name)
}

// Rooms yields every room in declaration order.
func (c *Catalog) Rooms() iter.Seq[Room] {
	return func(yield func(Room) bool) {
		for _, key := range c.order {
			if !yield(c.rooms[key].clone()) {
				return
			}
		}
	}
}

// Len returns the number of rooms.
func (c *Catalog) Len() int {
	return len(c.rooms)
}

// HauntedCount returns how many rooms carry an effect.
func (c *Catalog) HauntedCount() int {
	return len(c.effects)
}

package command

import (
	"fmt"
	"strings"
)

// Registry maps command names and aliases to Command definitions.
type Registry struct {
	ordered []*Command          // declaration order
	byName  map[string]*Command // canonical name or alias → command
}

// NewRegistry creates a Registry populated with the given commands.
//
// Precondition: No two commands may share a canonical name or alias.
// Postcondition: Returns a Registry or an error on name/alias collisions.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		ordered: make([]*Command, 0, len(cmds)),
		byName:  make(map[string]*Command),
	}

	for i := range cmds {
		cmd := &cmds[i]
		for _, word := range append([]string{cmd.Name}, cmd.Aliases...) {
			key := strings.ToLower(word)
			if existing, exists := r.byName[key]; exists {
				return nil, fmt.Errorf("command word %q used by both %q and %q", word, existing.Name, cmd.Name)
			}
			r.byName[key] = cmd
		}
		r.ordered = append(r.ordered, cmd)
	}

	return r, nil
}

// DefaultRegistry creates a Registry with all built-in commands.
//
// Postcondition: Returns a Registry with all built-in commands registered.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by name or alias, ignoring case.
//
// Postcondition: Returns (command, true) if found, or (nil, false).
func (r *Registry) Resolve(word string) (*Command, bool) {
	cmd, ok := r.byName[strings.ToLower(word)]
	return cmd, ok
}

// Commands returns all registered commands in declaration order.
func (r *Registry) Commands() []*Command {
	return append([]*Command(nil), r.ordered...)
}

// CommandsByCategory returns commands grouped by category, each group in
// declaration order.
func (r *Registry) CommandsByCategory() map[string][]*Command {
	categories := make(map[string][]*Command)
	for _, cmd := range r.ordered {
		categories[cmd.Category] = append(categories[cmd.Category], cmd)
	}
	return categories
}

// Package command provides the explorer command registry, parser, and built-in
// command definitions.
package command

// Categories for organizing commands in help output.
const (
	CategoryMovement = "movement"
	CategoryWorld    = "world"
	CategorySystem   = "system"
)

// Handler identifiers mapping commands to session actions.
const (
	HandlerGo     = "go"
	HandlerLook   = "look"
	HandlerExits  = "exits"
	HandlerWho    = "who"
	HandlerVisits = "visits"
	HandlerHelp   = "help"
	HandlerQuit   = "quit"
)

// Command defines an explorer-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage is the argument synopsis shown in help, e.g. "<exit|number>".
	Usage string
	// Help is the short help text displayed to explorers.
	Help string
	// Category groups the command (movement, world, system).
	Category string
	// Handler maps to the session action.
	Handler string
}

// BuiltinCommands returns all built-in commands in help order.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "go", Aliases: []string{"g", "enter", "walk"}, Usage: "<exit|number>", Help: "Walk through one of the listed exits", Category: CategoryMovement, Handler: HandlerGo},

		{Name: "look", Aliases: []string{"l"}, Help: "Look around the current room again", Category: CategoryWorld, Handler: HandlerLook},
		{Name: "exits", Aliases: []string{"x"}, Help: "List the exits of the current room", Category: CategoryWorld, Handler: HandlerExits},
		{Name: "who", Help: "Sense the other explorers in the house", Category: CategoryWorld, Handler: HandlerWho},
		{Name: "visits", Aliases: []string{"tally"}, Help: "Show the rooms most often entered", Category: CategoryWorld, Handler: HandlerVisits},

		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"q", "bye"}, Help: "Leave the house", Category: CategorySystem, Handler: HandlerQuit},
	}
}

// CategoryOrder lists categories in the order help output presents them.
var CategoryOrder = []struct {
	Name  string
	Label string
}{
	{CategoryMovement, "Movement"},
	{CategoryWorld, "World"},
	{CategorySystem, "System"},
}

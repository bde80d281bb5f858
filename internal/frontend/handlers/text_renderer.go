package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/cory-johannsen/hauntedhouse/internal/frontend/telnet"
	"github.com/cory-johannsen/hauntedhouse/internal/game/command"
	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
	"github.com/cory-johannsen/hauntedhouse/internal/storage/visits"
)

// crlf converts wrapped text to Telnet line endings.
func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// RenderBanner formats the greeting shown when an explorer arrives.
func RenderBanner(h *house.House, width int) string {
	var b strings.Builder
	b.WriteString("\r\n")
	b.WriteString(telnet.Colorize(telnet.Bold+telnet.BrightRed, h.Name))
	b.WriteString("\r\n")
	if h.Ambient != "" {
		b.WriteString(telnet.Colorf(telnet.Dim+telnet.Italic, "Somewhere, faintly, music plays (%s).", h.Ambient))
		b.WriteString("\r\n")
	}
	b.WriteString(crlf(wordwrap.String("Choose an exit by number or by name. Type 'help' for commands.", width)))
	b.WriteString("\r\n")
	return b.String()
}

// RenderRoom formats a room as colored Telnet text: title, wrapped
// description, and numbered exits.
func RenderRoom(room house.Room, width int) string {
	var b strings.Builder

	b.WriteString("\r\n")
	b.WriteString(telnet.Colorize(telnet.BrightYellow, room.Name))
	b.WriteString("\r\n")
	if room.Description != "" {
		b.WriteString(telnet.Colorize(telnet.White, crlf(wordwrap.String(room.Description, width))))
		b.WriteString("\r\n")
	}
	b.WriteString(RenderExits(room))
	return b.String()
}

// RenderExits formats the numbered exit list of a room.
func RenderExits(room house.Room) string {
	if len(room.Exits) == 0 {
		return telnet.Colorize(telnet.Dim, "There is no way out.") + "\r\n"
	}

	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.Cyan, "Exits:"))
	b.WriteString("\r\n")
	for i, exit := range room.Exits {
		b.WriteString(fmt.Sprintf("  %s%2d)%s %s\r\n",
			telnet.Dim, i+1, telnet.Reset,
			telnet.Colorize(telnet.BrightCyan, exit)))
	}
	return b.String()
}

// ImageCaption names the picture that hangs over a room, or "" if it has none.
func ImageCaption(room house.Room) string {
	if room.ImageRef == "" {
		return ""
	}
	return "[ " + room.ImageRef + " ]"
}

// RenderPresence describes how many other explorers share the room.
func RenderPresence(others int) string {
	switch {
	case others <= 0:
		return ""
	case others == 1:
		return telnet.Colorize(telnet.Green, "You sense another presence here.") + "\r\n"
	default:
		return telnet.Colorf(telnet.Green, "You sense %d other presences here.", others) + "\r\n"
	}
}

// RenderWho lists how many explorers occupy each room, busiest first.
func RenderWho(counts map[string]int, here string) string {
	rooms := make([]string, 0, len(counts))
	total := 0
	for room, n := range counts {
		rooms = append(rooms, room)
		total += n
	}
	sort.Slice(rooms, func(i, j int) bool {
		if counts[rooms[i]] != counts[rooms[j]] {
			return counts[rooms[i]] > counts[rooms[j]]
		}
		return rooms[i] < rooms[j]
	})

	var b strings.Builder
	b.WriteString(telnet.Colorf(telnet.BrightWhite, "Souls in the house: %d", total))
	b.WriteString("\r\n")
	for _, room := range rooms {
		marker := ""
		if house.Normalize(room) == house.Normalize(here) {
			marker = telnet.Colorize(telnet.Dim, " (you are here)")
		}
		b.WriteString(fmt.Sprintf("  %-16s %d%s\r\n", room, counts[room], marker))
	}
	return b.String()
}

// RenderVisits lists the most visited rooms.
func RenderVisits(tallies []visits.Tally) string {
	if len(tallies) == 0 {
		return telnet.Colorize(telnet.Dim, "No footprints mark the dust yet.") + "\r\n"
	}
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightWhite, "The most trodden rooms:"))
	b.WriteString("\r\n")
	for _, t := range tallies {
		b.WriteString(fmt.Sprintf("  %-16s %d\r\n", t.Room, t.Visits))
	}
	return b.String()
}

// RenderHelp lists commands grouped by category.
func RenderHelp(registry *command.Registry) string {
	byCategory := registry.CommandsByCategory()

	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightWhite, "Commands:"))
	b.WriteString("\r\n")
	for _, cat := range command.CategoryOrder {
		cmds := byCategory[cat.Name]
		if len(cmds) == 0 {
			continue
		}
		b.WriteString(telnet.Colorize(telnet.Cyan, cat.Label))
		b.WriteString("\r\n")
		for _, cmd := range cmds {
			usage := cmd.Name
			if cmd.Usage != "" {
				usage += " " + cmd.Usage
			}
			line := fmt.Sprintf("  %-18s %s", usage, cmd.Help)
			if len(cmd.Aliases) > 0 {
				line += telnet.Colorf(telnet.Dim, " (%s)", strings.Join(cmd.Aliases, ", "))
			}
			b.WriteString(line)
			b.WriteString("\r\n")
		}
	}
	b.WriteString(telnet.Colorize(telnet.Dim, "A number or an exit name on its own also walks through that exit."))
	b.WriteString("\r\n")
	return b.String()
}

// Prompt returns the input prompt for an explorer standing in room.
func Prompt(room string) string {
	return telnet.Colorf(telnet.BrightCyan, "[%s]> ", room)
}

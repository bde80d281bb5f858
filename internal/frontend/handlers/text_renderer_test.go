package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/hauntedhouse/internal/frontend/telnet"
	"github.com/cory-johannsen/hauntedhouse/internal/game/command"
	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
	"github.com/cory-johannsen/hauntedhouse/internal/storage/visits"
)

func TestRenderRoom(t *testing.T) {
	room := house.Room{
		Name:        "Front Hall",
		Description: "A long dusty hall with a staircase.",
		Exits:       []string{"Parlor", "Upstairs Loft", "Dining Room"},
	}

	stripped := telnet.StripANSI(RenderRoom(room, 78))

	assert.Contains(t, stripped, "Front Hall\r\n")
	assert.Contains(t, stripped, "A long dusty hall with a staircase.")
	assert.Contains(t, stripped, "Exits:")
	assert.Contains(t, stripped, " 1) Parlor")
	assert.Contains(t, stripped, " 2) Upstairs Loft")
	assert.Contains(t, stripped, " 3) Dining Room")
	assert.Less(t, strings.Index(stripped, "Parlor"), strings.Index(stripped, "Dining Room"))
}

func TestRenderRoom_NoExits(t *testing.T) {
	stripped := telnet.StripANSI(RenderRoom(house.Room{Name: "Closet"}, 78))
	assert.Contains(t, stripped, "There is no way out.")
	assert.NotContains(t, stripped, "Exits:")
}

func TestRenderRoom_WrapsDescription(t *testing.T) {
	room := house.Room{
		Name:        "Attic",
		Description: strings.Repeat("dust and old letters ", 20),
	}
	stripped := telnet.StripANSI(RenderRoom(room, 30))
	for _, line := range strings.Split(stripped, "\r\n") {
		assert.LessOrEqual(t, len(line), 30, "line %q", line)
	}
}

func TestImageCaption(t *testing.T) {
	assert.Equal(t, "[ image/Attic.png ]", ImageCaption(house.Room{ImageRef: "image/Attic.png"}))
	assert.Empty(t, ImageCaption(house.Room{Name: "Attic"}))
}

func TestRenderPresence(t *testing.T) {
	assert.Empty(t, RenderPresence(0))
	assert.Contains(t, telnet.StripANSI(RenderPresence(1)), "another presence")
	assert.Contains(t, telnet.StripANSI(RenderPresence(3)), "3 other presences")
}

func TestRenderWho(t *testing.T) {
	stripped := telnet.StripANSI(RenderWho(map[string]int{"Parlor": 1, "Attic": 2}, "parlor"))

	assert.Contains(t, stripped, "Souls in the house: 3")
	assert.Less(t, strings.Index(stripped, "Attic"), strings.Index(stripped, "Parlor"), "busiest room first")
	assert.Contains(t, stripped, "(you are here)")
	assert.Equal(t, 1, strings.Count(stripped, "(you are here)"))
}

func TestRenderVisits(t *testing.T) {
	assert.Contains(t, telnet.StripANSI(RenderVisits(nil)), "No footprints")

	stripped := telnet.StripANSI(RenderVisits([]visits.Tally{{Room: "Kitchen", Visits: 4}, {Room: "Attic", Visits: 1}}))
	assert.Contains(t, stripped, "The most trodden rooms:")
	assert.Contains(t, stripped, "Kitchen")
	assert.Less(t, strings.Index(stripped, "Kitchen"), strings.Index(stripped, "Attic"))
}

func TestRenderHelp(t *testing.T) {
	stripped := telnet.StripANSI(RenderHelp(command.DefaultRegistry()))

	assert.Contains(t, stripped, "Movement")
	assert.Contains(t, stripped, "World")
	assert.Contains(t, stripped, "System")
	assert.Contains(t, stripped, "go <exit|number>")
	assert.Contains(t, stripped, "(g, enter, walk)")
	assert.Less(t, strings.Index(stripped, "Movement"), strings.Index(stripped, "System"))
}

func TestRenderBanner(t *testing.T) {
	h := &house.House{Name: "The House Off the Highway", Ambient: "media/Music.mp3"}
	stripped := telnet.StripANSI(RenderBanner(h, 78))
	assert.Contains(t, stripped, "The House Off the Highway")
	assert.Contains(t, stripped, "media/Music.mp3")

	h.Ambient = ""
	assert.NotContains(t, telnet.StripANSI(RenderBanner(h, 78)), "music")
}

func TestPrompt(t *testing.T) {
	assert.Equal(t, "[Kitchen]> ", telnet.StripANSI(Prompt("Kitchen")))
}

// Property: every exit of a room appears in its rendering, numbered in order.
func TestPropertyRenderExitsNumbersEveryExit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		exits := rapid.SliceOfDistinct(rapid.StringMatching(`[A-Z][a-z]{2,10}`), func(s string) string { return s }).Draw(t, "exits")
		stripped := telnet.StripANSI(RenderExits(house.Room{Name: "Room", Exits: exits}))

		last := -1
		for _, exit := range exits {
			i := strings.Index(stripped, ") "+exit+"\r\n")
			if i < 0 {
				t.Fatalf("exit %q missing from %q", exit, stripped)
			}
			if i < last {
				t.Fatalf("exit %q out of order", exit)
			}
			last = i
		}
	})
}

package console

import (
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/hauntedhouse/content"
	"github.com/cory-johannsen/hauntedhouse/internal/config"
	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
	"github.com/cory-johannsen/hauntedhouse/internal/storage/visits"
)

// TestMain renders without color so assertions can match plain text.
func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func testConfig() config.Config {
	return config.Config{
		Server:  config.ServerConfig{Mode: "console"},
		Logging: config.LoggingConfig{Level: "info", Format: "console"},
		Game:    config.GameConfig{WrapWidth: 78},
		Effects: config.EffectsConfig{
			FlickerHalfCycle:  100 * time.Millisecond,
			FlickerCycles:     4,
			FlickerMinOpacity: 0.2,
			GhostFadeIn:       2 * time.Second,
			GhostHold:         2 * time.Second,
			GhostFadeOut:      2 * time.Second,
			GhostPeakOpacity:  0.6,
			FrameInterval:     100 * time.Millisecond,
			RoomFade:          time.Second,
		},
		Store: config.StoreConfig{Key: "test", Timeout: time.Second},
	}
}

// echoHouse has exits whose names are also command words.
const echoHouse = `
house:
  name: "Echoes"
  start_room: "Hall"
  rooms:
    - name: "Hall"
      exits: ["Look Out", "Who"]
    - name: "Look Out"
      exits: ["Hall"]
    - name: "Who"
      exits: ["Hall"]
`

func newTestModel(t *testing.T) *Model {
	t.Helper()
	h, err := house.LoadHouseFromBytes(content.House)
	require.NoError(t, err)
	m, err := New(h, "", visits.NewMemoryStore(), testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	m.Init()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// enter types line and presses enter.
func enter(m *Model, line string) tea.Cmd {
	m.input.SetValue(line)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func findAnim(m *Model, kind animKind) (int, bool) {
	for id, a := range m.anims {
		if a.kind == kind {
			return id, true
		}
	}
	return 0, false
}

// runAnimation delivers frames to the animation of kind until it finishes,
// returning every opacity shown.
func runAnimation(m *Model, kind animKind) []float64 {
	var shown []float64
	for {
		id, ok := findAnim(m, kind)
		if !ok {
			return shown
		}
		a := m.anims[id]
		shown = append(shown, a.opacity)
		m.Update(frameMsg{id: id})
		if _, still := m.anims[id]; !still {
			shown = append(shown, a.opacity)
		}
	}
}

func lastBlock(m *Model) string {
	return m.blocks[len(m.blocks)-1]
}

func TestNew_StartsInStartRoom(t *testing.T) {
	m := newTestModel(t)

	assert.Equal(t, "Front Yard", m.CurrentRoom().Name)
	view := m.View()
	assert.Contains(t, view, "Front Yard")
	assert.Contains(t, view, "Front Hall")
}

func TestNew_UnknownStartRoom(t *testing.T) {
	h, err := house.LoadHouseFromBytes(content.House)
	require.NoError(t, err)
	_, err = New(h, "Ballroom", visits.NewMemoryStore(), testConfig(), nil)
	assert.ErrorIs(t, err, house.ErrConfiguration)
}

func TestView_BeforeWindowSize(t *testing.T) {
	h, err := house.LoadHouseFromBytes(content.House)
	require.NoError(t, err)
	m, err := New(h, "", visits.NewMemoryStore(), testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Approaching the house...\n", m.View())
}

func TestExecute_SelectByNumberAndName(t *testing.T) {
	m := newTestModel(t)

	enter(m, "1")
	assert.Equal(t, "Front Hall", m.CurrentRoom().Name)

	enter(m, "dining room")
	assert.Equal(t, "Dining Room", m.CurrentRoom().Name)

	enter(m, "go 1")
	assert.Equal(t, "Front Hall", m.CurrentRoom().Name)
}

func TestExecute_InvalidSelectionIgnored(t *testing.T) {
	m := newTestModel(t)

	enter(m, "kitchen")
	assert.Equal(t, "Front Yard", m.CurrentRoom().Name)
	assert.Contains(t, lastBlock(m), "Nothing happens")

	enter(m, "9")
	assert.Equal(t, "Front Yard", m.CurrentRoom().Name)

	enter(m, "go attic")
	assert.Equal(t, "Front Yard", m.CurrentRoom().Name)
	assert.Contains(t, lastBlock(m), `There is no way to "attic" from here.`)
}

func TestExecute_ExitNamedLikeCommand(t *testing.T) {
	h, err := house.LoadHouseFromBytes([]byte(echoHouse))
	require.NoError(t, err)
	m, err := New(h, "", visits.NewMemoryStore(), testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	m.Init()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	enter(m, "Look Out")
	assert.Equal(t, "Look Out", m.CurrentRoom().Name)

	enter(m, "hall")
	require.Equal(t, "Hall", m.CurrentRoom().Name)
	enter(m, "who")
	assert.Equal(t, "Who", m.CurrentRoom().Name)

	// No exit here is called "who", so the command runs.
	enter(m, "who")
	assert.Equal(t, "Who", m.CurrentRoom().Name)
	assert.Contains(t, lastBlock(m), "alone")
}

func TestExecute_InfoCommands(t *testing.T) {
	m := newTestModel(t)

	enter(m, "exits")
	assert.Contains(t, lastBlock(m), "1) Front Hall")

	enter(m, "help")
	assert.Contains(t, lastBlock(m), "go <exit|number>")

	enter(m, "who")
	assert.Contains(t, lastBlock(m), "alone")

	enter(m, "look")
	assert.Contains(t, lastBlock(m), "[ image/FrontYard.png ]")

	enter(m, "1")
	enter(m, "tally")
	assert.Contains(t, lastBlock(m), "Front Yard")
	assert.Contains(t, lastBlock(m), "Front Hall")
}

func TestRoomFade(t *testing.T) {
	m := newTestModel(t)
	enter(m, "1")

	assert.Equal(t, 0.0, m.titleOpacity)
	shown := runAnimation(m, animFade)
	require.NotEmpty(t, shown)
	assert.Equal(t, 1.0, shown[len(shown)-1])
	assert.Equal(t, 1.0, m.titleOpacity)
}

func TestGhostAppearsAndVanishes(t *testing.T) {
	m := newTestModel(t)
	enter(m, "1")
	enter(m, "upstairs loft")
	require.Equal(t, "Upstairs Loft", m.CurrentRoom().Name)

	_, ok := findAnim(m, animGhost)
	require.True(t, ok)
	assert.Contains(t, m.effectLine(), ghostText)

	var peak float64
	for _, op := range runAnimation(m, animGhost) {
		peak = max(peak, op)
	}
	assert.InDelta(t, 0.6, peak, 1e-9)
	assert.Empty(t, m.effectLine())
}

func TestFlickerLeavesAMark(t *testing.T) {
	m := newTestModel(t)
	for _, step := range []string{"1", "3", "kitchen"} {
		enter(m, step)
	}
	require.Equal(t, "Kitchen", m.CurrentRoom().Name)
	assert.Contains(t, m.effectLine(), flickerText)

	shown := runAnimation(m, animFlicker)
	assert.Contains(t, shown, 0.2)
	assert.Equal(t, flickerText, lastBlock(m))
}

func TestEffectsSurviveNavigation(t *testing.T) {
	m := newTestModel(t)
	enter(m, "1")
	enter(m, "upstairs loft")
	enter(m, "front hall")

	_, ok := findAnim(m, animGhost)
	assert.True(t, ok, "leaving the room does not cancel its effect")
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	cmd := enter(m, "quit")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, farewell+"\n", m.View())
}

func TestEscQuits(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestFadeColor(t *testing.T) {
	assert.Equal(t, "232", string(fadeColor(0)))
	assert.Equal(t, "255", string(fadeColor(1)))
	assert.Equal(t, "255", string(fadeColor(3)))
	assert.Equal(t, "232", string(fadeColor(-1)))
}

// Property: any sequence of input lines leaves the explorer in a room of the
// house, and moves only happen along listed exits.
func TestPropertyInputKeepsExplorerInHouse(t *testing.T) {
	h, err := house.LoadHouseFromBytes(content.House)
	require.NoError(t, err)

	rapid.Check(t, func(rt *rapid.T) {
		m, err := New(h, "", visits.NewMemoryStore(), testConfig(), nil)
		if err != nil {
			rt.Fatalf("new: %v", err)
		}
		m.Init()

		lines := rapid.SliceOfN(rapid.OneOf(
			rapid.StringMatching(`[1-5]`),
			rapid.SampledFrom([]string{"look", "exits", "kitchen", "front hall", "go 2", "who", ""}),
		), 0, 30).Draw(rt, "lines")

		for _, line := range lines {
			before := m.CurrentRoom()
			enter(m, line)
			after := m.CurrentRoom()
			if before.Key() != after.Key() && !before.HasExit(after.Name) {
				rt.Fatalf("moved from %q to %q, which is not an exit", before.Name, after.Name)
			}
			if _, err := h.Catalog.Find(after.Name); err != nil {
				rt.Fatalf("explorer left the house: %v", err)
			}
		}
	})
}

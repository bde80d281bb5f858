package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/hauntedhouse/content"
	"github.com/cory-johannsen/hauntedhouse/internal/config"
	"github.com/cory-johannsen/hauntedhouse/internal/frontend/telnet"
	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
	"github.com/cory-johannsen/hauntedhouse/internal/game/session"
	"github.com/cory-johannsen/hauntedhouse/internal/storage/visits"
	"github.com/cory-johannsen/hauntedhouse/internal/testutil"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Mode: "telnet"},
		Telnet: config.TelnetConfig{
			Host:         "127.0.0.1",
			Port:         0,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Logging: config.LoggingConfig{Level: "debug", Format: "console"},
		Game:    config.GameConfig{WrapWidth: 78},
		Effects: config.EffectsConfig{
			FlickerHalfCycle:  2 * time.Millisecond,
			FlickerCycles:     4,
			FlickerMinOpacity: 0.2,
			GhostFadeIn:       4 * time.Millisecond,
			GhostHold:         2 * time.Millisecond,
			GhostFadeOut:      4 * time.Millisecond,
			GhostPeakOpacity:  0.6,
			FrameInterval:     time.Millisecond,
			RoomFade:          3 * time.Millisecond,
		},
		Store: config.StoreConfig{Key: "test:visits", Timeout: time.Second},
	}
}

func loadTestHouse(t *testing.T) *house.House {
	t.Helper()
	h, err := house.LoadHouseFromBytes(content.House)
	require.NoError(t, err)
	return h
}

// startHouse serves the embedded house on a random port.
func startHouse(t *testing.T, maxSessions int) (string, *session.Manager) {
	t.Helper()
	return serveHouse(t, loadTestHouse(t), maxSessions)
}

// serveHouse serves h on a random port.
func serveHouse(t *testing.T, h *house.House, maxSessions int) (string, *session.Manager) {
	t.Helper()
	cfg := testConfig()
	sessions := session.NewManager(maxSessions)
	handler, err := NewGameHandler(h, "", sessions, visits.NewMemoryStore(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	acc := telnet.NewAcceptor(cfg.Telnet, handler, zaptest.NewLogger(t))
	go func() { _ = acc.ListenAndServe() }()
	require.Eventually(t, func() bool { return acc.Addr() != "" }, 2*time.Second, 5*time.Millisecond)
	t.Cleanup(acc.Stop)
	return acc.Addr(), sessions
}

func TestNewGameHandler_StartRoom(t *testing.T) {
	h := loadTestHouse(t)
	cfg := testConfig()

	handler, err := NewGameHandler(h, "", session.NewManager(0), visits.NewMemoryStore(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "Front Yard", handler.startRoom)

	handler, err = NewGameHandler(h, "  front HALL ", session.NewManager(0), visits.NewMemoryStore(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "Front Hall", handler.startRoom)

	_, err = NewGameHandler(h, "Ballroom", session.NewManager(0), visits.NewMemoryStore(), cfg, nil)
	assert.ErrorIs(t, err, house.ErrConfiguration)
	assert.ErrorIs(t, err, house.ErrNotFound)
}

func TestGameHandler_WalkThroughHouse(t *testing.T) {
	addr, sessions := startHouse(t, 0)
	c := testutil.NewTelnetClient(t, addr)

	c.Expect("The House Off the Highway")
	c.Expect("Front Yard")
	c.Expect("[ image/FrontYard.png ]")
	c.Expect("[Front Yard]> ")
	require.Eventually(t, func() bool { return sessions.Count() == 1 }, time.Second, 5*time.Millisecond)

	c.Send("exits")
	c.Expect("1) Front Hall")

	// Not an exit of the Front Yard: ignored.
	c.Send("kitchen")
	c.Expect("Nothing happens")
	c.Send("go kitchen")
	c.Expect(`There is no way to "kitchen" from here.`)

	c.Send("1")
	c.Expect("[Front Hall]> ")

	c.Send("go upstairs loft")
	c.Expect("Upstairs Loft")
	c.Expect("A pale figure drifts out of the wall.")
	c.Expect("[Upstairs Loft]> ")

	c.Send("front hall")
	c.Expect("[Front Hall]> ")
	c.Send("walk 3")
	c.Expect("[Dining Room]> ")
	c.Send("Kitchen")
	c.Expect("The lights flicker.")
	c.Expect("[Kitchen]> ")

	c.Send("quit")
	c.Expect("You slip back out into the night.")
	c.ExpectClosed()
	require.Eventually(t, func() bool { return sessions.Count() == 0 }, time.Second, 5*time.Millisecond)
}

func TestGameHandler_ExitNamedLikeCommand(t *testing.T) {
	h, err := house.LoadHouseFromBytes([]byte(`
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
`))
	require.NoError(t, err)
	addr, _ := serveHouse(t, h, 0)
	c := testutil.NewTelnetClient(t, addr)
	c.Expect("[Hall]> ")

	c.Send("look out")
	c.Expect("[Look Out]> ")
	c.Send("Hall")
	c.Expect("[Hall]> ")
	c.Send("who")
	c.Expect("[Who]> ")

	// No exit here is called "who", so the command runs.
	c.Send("who")
	out := c.Expect("(you are here)")
	assert.Contains(t, out, "Souls in the house: 1")
}

func TestGameHandler_LookHelpWho(t *testing.T) {
	addr, _ := startHouse(t, 0)
	c := testutil.NewTelnetClient(t, addr)
	c.Expect("[Front Yard]> ")

	c.Send("l")
	c.Expect("Front Yard")
	c.Expect("Exits:")
	c.Expect("[ image/FrontYard.png ]")

	c.Send("help")
	out := c.Expect("A number or an exit name on its own also walks through that exit.")
	assert.Contains(t, out, "Movement")
	assert.Contains(t, out, "go <exit|number>")
	assert.Contains(t, out, "quit")

	c.Send("who")
	out = c.Expect("(you are here)")
	assert.Contains(t, out, "Souls in the house: 1")
	assert.Contains(t, out, "Front Yard")

	c.Send("go")
	c.Expect("Go where?")
	c.Expect("1) Front Hall")

	c.Send("1")
	c.Expect("[Front Hall]> ")
	c.Send("visits")
	out = c.Expect("The most trodden rooms:")
	assert.NotEmpty(t, out)
	out = c.Expect("[Front Hall]> ")
	assert.Contains(t, out, "Front Yard")
	assert.Contains(t, out, "Front Hall")
}

func TestGameHandler_ExplorersSenseEachOther(t *testing.T) {
	addr, sessions := startHouse(t, 0)

	alice := testutil.NewTelnetClient(t, addr)
	alice.Expect("[Front Yard]> ")
	require.Eventually(t, func() bool { return sessions.Count() == 1 }, time.Second, 5*time.Millisecond)

	bob := testutil.NewTelnetClient(t, addr)
	bob.Expect("You sense another presence here.")
	bob.Expect("[Front Yard]> ")
	alice.Expect("the front door creaks open")

	bob.Send("1")
	bob.Expect("[Front Hall]> ")
	alice.Expect("Footsteps fade away toward the Front Hall.")

	alice.Send("who")
	out := alice.Expect("Souls in the house: 2")
	assert.NotEmpty(t, out)

	alice.Send("1")
	alice.Expect("You sense another presence here.")
	bob.Expect("Footsteps approach from the Front Yard. You are not alone.")
}

func TestGameHandler_HouseFull(t *testing.T) {
	addr, sessions := startHouse(t, 1)

	first := testutil.NewTelnetClient(t, addr)
	first.Expect("[Front Yard]> ")
	require.Eventually(t, func() bool { return sessions.Count() == 1 }, time.Second, 5*time.Millisecond)

	second := testutil.NewTelnetClient(t, addr)
	second.Expect("The house is full tonight.")
	second.ExpectClosed()

	assert.Equal(t, 1, sessions.Count())
}

func TestGameHandler_DisconnectLeavesHouse(t *testing.T) {
	addr, sessions := startHouse(t, 0)
	c := testutil.NewTelnetClient(t, addr)
	c.Expect("[Front Yard]> ")
	require.Eventually(t, func() bool { return sessions.Count() == 1 }, time.Second, 5*time.Millisecond)

	c.Close()
	assert.Eventually(t, func() bool { return sessions.Count() == 0 }, 2*time.Second, 5*time.Millisecond)
}

// Package console runs a single explorer through the house in the local
// terminal using Bubble Tea.
package console

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hauntedhouse/internal/config"
	"github.com/cory-johannsen/hauntedhouse/internal/game/command"
	"github.com/cory-johannsen/hauntedhouse/internal/game/effect"
	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
	"github.com/cory-johannsen/hauntedhouse/internal/game/navigator"
	"github.com/cory-johannsen/hauntedhouse/internal/storage/visits"
)

const (
	flickerText = "The lights flicker."
	ghostText   = "A pale figure drifts out of the wall."
	farewell    = "You slip back out into the night."
)

type animKind int

const (
	animFade animKind = iota
	animFlicker
	animGhost
)

// animation is an effect in progress. next indexes the frame to show next.
type animation struct {
	kind    animKind
	frames  []effect.Frame
	next    int
	opacity float64
}

// frameMsg asks the model to show the next frame of animation id.
type frameMsg struct {
	id int
}

// Model is the Bubble Tea model for one explorer. It is the navigator's
// Presenter: room entries are queued during Update and rendered before
// Update returns.
type Model struct {
	house    *house.House
	nav      *navigator.Navigator
	registry *command.Registry
	store    visits.Store
	effects  config.EffectsConfig
	wrap     int
	logger   *zap.Logger

	viewport viewport.Model
	input    textinput.Model
	ready    bool
	width    int
	height   int
	quitting bool

	blocks       []string
	entered      []navigator.RoomEntered
	anims        map[int]*animation
	nextAnim     int
	titleOpacity float64
}

// New creates a Model with the explorer standing in startRoom, or in the
// house's start room when startRoom is empty.
//
// Precondition: h and store must be non-nil; cfg must be valid.
// Postcondition: Returns a Model, or an error wrapping house.ErrConfiguration
// if the start room is not in the catalog.
func New(h *house.House, startRoom string, store visits.Store, cfg config.Config, logger *zap.Logger) (*Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if startRoom == "" {
		startRoom = h.StartRoom
	}

	ti := textinput.New()
	ti.Placeholder = "an exit number, an exit name, or 'help'"
	ti.Prompt = promptStyle.Render(":: ")
	ti.CharLimit = 120
	ti.Width = 50
	ti.Focus()

	m := &Model{
		house:        h,
		registry:     command.DefaultRegistry(),
		store:        store,
		effects:      cfg.Effects,
		wrap:         cfg.Game.WrapWidth,
		logger:       logger,
		viewport:     viewport.New(80, 20),
		input:        ti,
		anims:        make(map[int]*animation),
		titleOpacity: 1,
	}
	m.blocks = append(m.blocks, m.renderBanner())

	nav, err := navigator.Start(h.Catalog, startRoom, m, logger)
	if err != nil {
		return nil, err
	}
	m.nav = nav
	return m, nil
}

// OnRoomEntered queues ev for rendering by the current Update.
func (m *Model) OnRoomEntered(ev navigator.RoomEntered) {
	m.entered = append(m.entered, ev)
}

// Init renders the starting room and starts its effects.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.drainEntered())
}

// Update handles key presses, window resizes and animation frames.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		// Title, effect line, input and spacing.
		m.viewport.Height = max(msg.Height-5, 3)
		m.input.Width = max(msg.Width-6, 10)
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input.Value()
			m.input.Reset()
			cmd := m.execute(line)
			m.refresh()
			return m, cmd
		}

	case frameMsg:
		return m, m.step(msg.id)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View renders the title, the scrollback, any running effects and the input.
func (m *Model) View() string {
	if m.quitting {
		return farewell + "\n"
	}
	if !m.ready {
		return "Approaching the house...\n"
	}

	title := titleStyle.Foreground(fadeColor(m.titleOpacity))
	if m.titleOpacity >= 1 {
		title = titleStyle
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title.Render(m.nav.CurrentRoom().Name),
		m.viewport.View(),
		m.effectLine(),
		m.input.View(),
	)
}

// CurrentRoom returns the room the explorer stands in.
func (m *Model) CurrentRoom() house.Room {
	return m.nav.CurrentRoom()
}

// execute runs one line of explorer input and returns any follow-up command.
func (m *Model) execute(line string) tea.Cmd {
	parsed := command.Parse(line)
	if parsed.Command == "" {
		return nil
	}
	m.blocks = append(m.blocks, echoStyle.Render("> "+parsed.Raw))

	// An exit named like a command ("Look Out") is still an exit.
	if m.nav.CurrentRoom().HasExit(parsed.Raw) {
		m.selectExit(parsed.Raw)
		return m.drainEntered()
	}

	cmd, ok := m.registry.Resolve(parsed.Command)
	if !ok {
		if !m.selectExit(parsed.Raw) {
			m.blocks = append(m.blocks, hintStyle.Render("Nothing happens. Pick one of the exits, or type 'help'."))
		}
		return m.drainEntered()
	}

	room := m.nav.CurrentRoom()
	switch cmd.Handler {
	case command.HandlerGo:
		if parsed.RawArgs == "" {
			m.blocks = append(m.blocks, "Go where?\n"+m.renderExits(room))
		} else if !m.selectExit(parsed.RawArgs) {
			m.blocks = append(m.blocks, hintStyle.Render(fmt.Sprintf("There is no way to %q from here.", parsed.RawArgs)))
		}
	case command.HandlerLook:
		m.blocks = append(m.blocks, m.renderRoom(room))
	case command.HandlerExits:
		m.blocks = append(m.blocks, m.renderExits(room))
	case command.HandlerWho:
		m.blocks = append(m.blocks, hintStyle.Render("You are alone in the house. Or so it seems."))
	case command.HandlerVisits:
		m.blocks = append(m.blocks, m.renderVisits())
	case command.HandlerHelp:
		m.blocks = append(m.blocks, m.renderHelp())
	case command.HandlerQuit:
		m.quitting = true
		return tea.Quit
	}
	return m.drainEntered()
}

// selectExit resolves target as an exit number or name and walks through it.
func (m *Model) selectExit(target string) bool {
	exits := slices.Collect(m.nav.AvailableExits())
	if i, ok := command.ExitIndex(target, len(exits)); ok {
		target = exits[i]
	}
	return m.nav.SelectExit(target)
}

// drainEntered renders queued room entries and starts their animations.
func (m *Model) drainEntered() tea.Cmd {
	var cmds []tea.Cmd
	for _, ev := range m.entered {
		m.blocks = append(m.blocks, m.renderRoom(ev.Room))
		if err := m.store.Record(context.Background(), ev.Room.Name); err != nil {
			m.logger.Warn("recording visit", zap.String("room", ev.Room.Name), zap.Error(err))
		}

		// A new room replaces the title, so an unfinished fade is dropped.
		for id, a := range m.anims {
			if a.kind == animFade {
				delete(m.anims, id)
			}
		}
		m.titleOpacity = 1
		cmds = append(cmds, m.startAnimation(animFade, effect.RoomFade(m.effects)))

		switch ev.Effect {
		case house.EffectFlicker:
			cmds = append(cmds, m.startAnimation(animFlicker, effect.Flicker(m.effects)))
		case house.EffectGhostAppearance:
			cmds = append(cmds, m.startAnimation(animGhost, effect.Ghost(m.effects)))
		}
	}
	m.entered = m.entered[:0]
	m.refresh()
	return tea.Batch(cmds...)
}

// startAnimation shows the first frame of frames and schedules the rest.
func (m *Model) startAnimation(kind animKind, frames []effect.Frame) tea.Cmd {
	if len(frames) == 0 {
		return nil
	}
	id := m.nextAnim
	m.nextAnim++
	m.anims[id] = &animation{kind: kind, frames: frames}
	return m.step(id)
}

// step shows the next frame of animation id and schedules the one after it.
func (m *Model) step(id int) tea.Cmd {
	a, ok := m.anims[id]
	if !ok {
		return nil
	}
	a.opacity = a.frames[a.next].Opacity
	if a.kind == animFade {
		m.titleOpacity = a.opacity
	}
	a.next++
	if a.next >= len(a.frames) {
		m.finish(id, a)
		return nil
	}
	return tea.Tick(a.frames[a.next].Delay, func(time.Time) tea.Msg {
		return frameMsg{id: id}
	})
}

func (m *Model) finish(id int, a *animation) {
	delete(m.anims, id)
	switch a.kind {
	case animFade:
		m.titleOpacity = 1
	case animFlicker:
		m.blocks = append(m.blocks, flickerStyle.Render(flickerText))
		m.refresh()
	}
}

// effectLine renders the running flicker and ghost animations.
func (m *Model) effectLine() string {
	ids := make([]int, 0, len(m.anims))
	for id, a := range m.anims {
		if a.kind != animFade {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		a := m.anims[id]
		text := ghostText
		if a.kind == animFlicker {
			text = flickerText
		}
		parts = append(parts, effectStyle.Foreground(fadeColor(a.opacity)).Render(text))
	}
	return strings.Join(parts, "  ")
}

// refresh rewrites the scrollback into the viewport and scrolls to the end.
func (m *Model) refresh() {
	m.viewport.SetContent(strings.Join(m.blocks, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *Model) wrapWidth() int {
	w := m.wrap
	if m.width > 0 {
		w = min(w, m.width-2)
	}
	return max(w, 20)
}

func (m *Model) renderBanner() string {
	var b strings.Builder
	b.WriteString(houseStyle.Render(m.house.Name))
	if m.house.Ambient != "" {
		b.WriteString("\n")
		b.WriteString(captionStyle.Render(fmt.Sprintf("Somewhere, faintly, music plays (%s).", m.house.Ambient)))
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Choose an exit by number or by name. Type 'help' for commands, Esc to leave."))
	return b.String()
}

func (m *Model) renderRoom(room house.Room) string {
	var b strings.Builder
	b.WriteString(titleStyle.UnsetPaddingLeft().Render(room.Name))
	b.WriteString("\n")
	if room.Description != "" {
		b.WriteString(descriptionStyle.Render(wordwrap.String(room.Description, m.wrapWidth())))
		b.WriteString("\n")
	}
	if room.ImageRef != "" {
		b.WriteString(captionStyle.Render("[ " + room.ImageRef + " ]"))
		b.WriteString("\n")
	}
	b.WriteString(m.renderExits(room))
	return b.String()
}

func (m *Model) renderExits(room house.Room) string {
	if len(room.Exits) == 0 {
		return hintStyle.Render("There is no way out.")
	}
	lines := []string{exitLabelStyle.Render("Exits:")}
	for i, exit := range room.Exits {
		lines = append(lines, fmt.Sprintf("  %2d) %s", i+1, exitStyle.Render(exit)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderVisits() string {
	counts, err := m.store.Counts(context.Background())
	if err != nil {
		m.logger.Warn("reading visit tallies", zap.Error(err))
		return hintStyle.Render("The house keeps its secrets tonight.")
	}
	tallies := visits.Top(counts, 5)
	if len(tallies) == 0 {
		return hintStyle.Render("No footprints mark the dust yet.")
	}
	lines := []string{exitLabelStyle.Render("The most trodden rooms:")}
	for _, t := range tallies {
		lines = append(lines, fmt.Sprintf("  %-16s %d", t.Room, t.Visits))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderHelp() string {
	byCategory := m.registry.CommandsByCategory()
	var lines []string
	for _, cat := range command.CategoryOrder {
		cmds := byCategory[cat.Name]
		if len(cmds) == 0 {
			continue
		}
		lines = append(lines, exitLabelStyle.Render(cat.Label))
		for _, cmd := range cmds {
			usage := cmd.Name
			if cmd.Usage != "" {
				usage += " " + cmd.Usage
			}
			lines = append(lines, fmt.Sprintf("  %-18s %s", usage, cmd.Help))
		}
	}
	lines = append(lines, hintStyle.Render("A number or an exit name on its own also walks through that exit."))
	return strings.Join(lines, "\n")
}

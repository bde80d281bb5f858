// Package handlers runs explorer sessions on Telnet connections: it drives a
// navigator per explorer, renders rooms, and plays room effects.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hauntedhouse/internal/config"
	"github.com/cory-johannsen/hauntedhouse/internal/frontend/telnet"
	"github.com/cory-johannsen/hauntedhouse/internal/game/command"
	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
	"github.com/cory-johannsen/hauntedhouse/internal/game/navigator"
	"github.com/cory-johannsen/hauntedhouse/internal/game/session"
	"github.com/cory-johannsen/hauntedhouse/internal/storage/visits"
)

// visitsShown caps the rooms listed by the visits command.
const visitsShown = 5

// GameHandler implements telnet.SessionHandler. Every connection gets its own
// Navigator over the shared, read-only house catalog.
type GameHandler struct {
	house     *house.House
	startRoom string
	sessions  *session.Manager
	visits    visits.Store
	registry  *command.Registry
	wrapWidth int
	effects   config.EffectsConfig
	logger    *zap.Logger
}

// NewGameHandler creates a GameHandler.
//
// Precondition: h, sessions and store must be non-nil; startRoom must name a
// room in h.Catalog or be empty to use h.StartRoom; cfg must be valid.
// Postcondition: Returns a GameHandler, or an error wrapping house.ErrConfiguration
// if startRoom is not in the catalog.
func NewGameHandler(h *house.House, startRoom string, sessions *session.Manager, store visits.Store, cfg config.Config, logger *zap.Logger) (*GameHandler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if startRoom == "" {
		startRoom = h.StartRoom
	}
	start, err := h.Catalog.Find(startRoom)
	if err != nil {
		return nil, fmt.Errorf("%w: start room: %w", house.ErrConfiguration, err)
	}
	return &GameHandler{
		house:     h,
		startRoom: start.Name,
		sessions:  sessions,
		visits:    store,
		registry:  command.DefaultRegistry(),
		wrapWidth: cfg.Game.WrapWidth,
		effects:   cfg.Effects,
		logger:    logger,
	}, nil
}

// explorerSession is the state of one connected explorer. It is the
// navigator's Presenter.
type explorerSession struct {
	ctx      context.Context
	handler  *GameHandler
	conn     *telnet.Conn
	explorer session.Explorer
	player   *EffectPlayer
	nav      *navigator.Navigator
	logger   *zap.Logger
}

// write sends text to the explorer, skipping empty output.
func (s *explorerSession) write(text string) {
	if text == "" {
		return
	}
	if err := s.conn.Write([]byte(text)); err != nil {
		s.logger.Debug("writing output", zap.Error(err))
	}
}

// OnRoomEntered renders the room and starts its effects without blocking.
func (s *explorerSession) OnRoomEntered(ev navigator.RoomEntered) {
	s.conn.SetPrompt(Prompt(ev.Room.Name))
	if err := s.conn.Write([]byte(RenderRoom(ev.Room, s.handler.wrapWidth))); err != nil {
		s.logger.Debug("writing room", zap.Error(err))
		return
	}
	s.player.Play(s.ctx, ev)
}

// HandleSession runs one explorer from arrival to departure.
//
// Postcondition: Returns nil when the explorer quits, ctx.Err() on shutdown,
// session.ErrHouseFull when the house is at capacity, or a wrapped read error.
func (h *GameHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	explorer, inbox, err := h.sessions.Join(conn.RemoteAddr().String(), h.startRoom)
	if err != nil {
		if errors.Is(err, session.ErrHouseFull) {
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "The door will not open. The house is full tonight."))
		}
		return err
	}
	logger := h.logger.With(zap.String("explorer", explorer.ID))
	logger.Info("explorer entered the house", zap.String("remote_addr", explorer.RemoteAddr))

	ctx, cancel := context.WithCancel(ctx)
	s := &explorerSession{
		ctx:      ctx,
		handler:  h,
		conn:     conn,
		explorer: explorer,
		player:   NewEffectPlayer(conn, h.effects, logger),
		logger:   logger,
	}

	var wg sync.WaitGroup
	defer func() {
		cancel()
		if err := h.sessions.Leave(explorer.ID); err != nil {
			logger.Warn("leaving session", zap.Error(err))
		}
		wg.Wait()
		s.player.Wait()
		logger.Info("explorer left the house")
	}()

	if err := conn.Write([]byte(RenderBanner(h.house, h.wrapWidth))); err != nil {
		return fmt.Errorf("writing banner: %w", err)
	}

	s.nav, err = navigator.Start(h.house.Catalog, h.startRoom, s, logger)
	if err != nil {
		return err
	}
	h.recordVisit(s)
	h.announceArrival(s)

	wg.Add(1)
	go func() {
		defer wg.Done()
		forwardNotices(ctx, conn, inbox)
	}()

	return h.commandLoop(ctx, s)
}

// forwardNotices writes inbox notices to conn until ctx ends or the inbox closes.
func forwardNotices(ctx context.Context, conn *telnet.Conn, inbox *session.Inbox) {
	for {
		select {
		case <-ctx.Done():
			return
		case notice, ok := <-inbox.Notices():
			if !ok {
				return
			}
			if err := conn.WriteAsync(telnet.Colorize(telnet.Dim+telnet.Italic, notice)); err != nil {
				return
			}
		}
	}
}

// commandLoop reads lines from the connection and dispatches them.
//
// Postcondition: Returns nil on quit, ctx.Err() on cancellation, or a wrapped
// read error.
func (h *GameHandler) commandLoop(ctx context.Context, s *explorerSession) error {
	for {
		if err := s.conn.WritePrompt(Prompt(s.nav.CurrentRoom().Name)); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}

		line, err := s.conn.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading input: %w", err)
		}

		parsed := command.Parse(line)
		if parsed.Command == "" {
			continue
		}

		// An exit named like a command ("Look Out") is still an exit.
		if s.nav.CurrentRoom().HasExit(parsed.Raw) {
			h.selectExit(s, parsed.Raw)
			continue
		}

		cmd, ok := h.registry.Resolve(parsed.Command)
		if !ok {
			// A bare number or exit name walks through that exit.
			if !h.selectExit(s, parsed.Raw) {
				_ = s.conn.WriteLine(telnet.Colorize(telnet.Dim, "Nothing happens. Pick one of the exits, or type 'help'."))
			}
			continue
		}

		if quit := h.dispatch(s, cmd, parsed); quit {
			_ = s.conn.WriteLine(telnet.Colorize(telnet.Dim, "You slip back out into the night."))
			return nil
		}
	}
}

// dispatch runs a resolved command. It reports true when the explorer quits.
func (h *GameHandler) dispatch(s *explorerSession, cmd *command.Command, parsed command.ParseResult) bool {
	room := s.nav.CurrentRoom()

	switch cmd.Handler {
	case command.HandlerGo:
		if parsed.RawArgs == "" {
			_ = s.conn.WriteLine("Go where?")
			s.write(RenderExits(room))
		} else if !h.selectExit(s, parsed.RawArgs) {
			_ = s.conn.WriteLine(telnet.Colorf(telnet.Dim, "There is no way to %q from here.", parsed.RawArgs))
		}
	case command.HandlerLook:
		out := RenderRoom(room, h.wrapWidth)
		if caption := ImageCaption(room); caption != "" {
			out += telnet.Colorize(telnet.Dim, caption) + "\r\n"
		}
		out += RenderPresence(len(h.sessions.Occupants(room.Name)) - 1)
		s.write(out)
	case command.HandlerExits:
		s.write(RenderExits(room))
	case command.HandlerWho:
		s.write(RenderWho(h.sessions.RoomCounts(), room.Name))
	case command.HandlerVisits:
		counts, err := h.visits.Counts(s.ctx)
		if err != nil {
			s.logger.Warn("reading visit tallies", zap.Error(err))
			s.write(telnet.Colorize(telnet.Dim, "The house keeps its secrets tonight.") + "\r\n")
			break
		}
		s.write(RenderVisits(visits.Top(counts, visitsShown)))
	case command.HandlerHelp:
		s.write(RenderHelp(h.registry))
	case command.HandlerQuit:
		return true
	}
	return false
}

// selectExit resolves target as an exit number or name and walks through it.
// An unknown selection is ignored and leaves the explorer where they are.
//
// Postcondition: Returns true if the explorer moved.
func (h *GameHandler) selectExit(s *explorerSession, target string) bool {
	exits := slices.Collect(s.nav.AvailableExits())
	if i, ok := command.ExitIndex(target, len(exits)); ok {
		target = exits[i]
	}

	from := s.nav.CurrentRoom().Name
	if !s.nav.SelectExit(target) {
		return false
	}
	to := s.nav.CurrentRoom().Name

	if _, err := h.sessions.Move(s.explorer.ID, to); err != nil {
		s.logger.Warn("recording move", zap.Error(err))
	}
	h.recordVisit(s)
	h.sessions.Notify(from, s.explorer.ID, fmt.Sprintf("Footsteps fade away toward the %s.", to))
	h.sessions.Notify(to, s.explorer.ID, fmt.Sprintf("Footsteps approach from the %s. You are not alone.", from))
	s.write(RenderPresence(len(h.sessions.Occupants(to)) - 1))
	return true
}

// recordVisit tallies the explorer's current room. Store failures are logged
// and otherwise ignored.
func (h *GameHandler) recordVisit(s *explorerSession) {
	room := s.nav.CurrentRoom().Name
	if err := h.visits.Record(s.ctx, room); err != nil {
		s.logger.Warn("recording visit", zap.String("room", room), zap.Error(err))
	}
}

// announceArrival tells explorers in the start room that someone came in.
func (h *GameHandler) announceArrival(s *explorerSession) {
	room := s.nav.CurrentRoom().Name
	h.sessions.Notify(room, s.explorer.ID, "Somewhere behind you, the front door creaks open.")
	s.write(RenderPresence(len(h.sessions.Occupants(room)) - 1))
}

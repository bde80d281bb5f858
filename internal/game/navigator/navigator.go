// Package navigator tracks an explorer's current room and moves them through
// the house one exit at a time.
package navigator

import (
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
)

// RoomEntered is raised every time the explorer arrives in a room, including
// the initial room on Start.
type RoomEntered struct {
	// Room is the room just entered.
	Room house.Room
	// Effect is the effect mapped to the room, EffectNone when unmapped.
	Effect house.EffectKind
}

// Presenter displays rooms to the explorer. It is called synchronously from
// Start and SelectExit; effect playback must not block the caller.
type Presenter interface {
	OnRoomEntered(ev RoomEntered)
}

// PresenterFunc adapts a plain function to the Presenter interface.
type PresenterFunc func(ev RoomEntered)

// OnRoomEntered calls f(ev).
func (f PresenterFunc) OnRoomEntered(ev RoomEntered) { f(ev) }

// Navigator holds the navigation state of one explorer.
// A Navigator is owned by a single goroutine and is not safe for concurrent use.
type Navigator struct {
	catalog   *house.Catalog
	presenter Presenter
	logger    *zap.Logger
	current   house.Room
}

// Start places a new explorer in the named room and announces it.
//
// Precondition: catalog and presenter must be non-nil. A nil logger disables logging.
// Postcondition: Returns a Navigator positioned in initialRoom after emitting
// RoomEntered, or an error wrapping house.ErrConfiguration if the room is absent.
func Start(catalog *house.Catalog, initialRoom string, presenter Presenter, logger *zap.Logger) (*Navigator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	room, err := catalog.Find(initialRoom)
	if err != nil {
		return nil, fmt.Errorf("%w: initial room: %w", house.ErrConfiguration, err)
	}
	n := &Navigator{
		catalog:   catalog,
		presenter: presenter,
		logger:    logger,
	}
	n.enter(room)
	return n, nil
}

// CurrentRoom returns the room the explorer occupies.
func (n *Navigator) CurrentRoom() house.Room {
	return n.current
}

// AvailableExits yields the current room's exits in declaration order. The
// sequence may be iterated any number of times.
func (n *Navigator) AvailableExits() iter.Seq[string] {
	return n.current.ExitSeq()
}

// SelectExit moves the explorer through the named exit.
//
// Postcondition: If exitName is one of AvailableExits (compared after
// normalization) the explorer is moved, RoomEntered is emitted and true is
// returned. Otherwise nothing changes and false is returned.
func (n *Navigator) SelectExit(exitName string) bool {
	if !n.current.HasExit(exitName) {
		n.logger.Debug("ignoring unlisted exit",
			zap.String("room", n.current.Name),
			zap.String("exit", exitName),
		)
		return false
	}
	target, err := n.catalog.Find(exitName)
	if err != nil {
		// Load guarantees listed exits resolve.
		n.logger.Error("listed exit does not resolve",
			zap.String("room", n.current.Name),
			zap.String("exit", exitName),
			zap.Error(err),
		)
		return false
	}
	from := n.current.Name
	n.enter(target)
	n.logger.Debug("moved",
		zap.String("from", from),
		zap.String("to", target.Name),
	)
	return true
}

func (n *Navigator) enter(room house.Room) {
	n.current = room
	n.presenter.OnRoomEntered(RoomEntered{
		Room:   room,
		Effect: n.catalog.Effect(room.Name),
	})
}

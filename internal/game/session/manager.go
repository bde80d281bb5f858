package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
)

// ErrHouseFull is returned by Join when the explorer limit is reached.
var ErrHouseFull = errors.New("the house cannot hold another soul")

// Explorer is a snapshot of one connected explorer.
type Explorer struct {
	// ID uniquely identifies the explorer for the life of the connection.
	ID string
	// RemoteAddr is the client address, for logging.
	RemoteAddr string
	// Joined is when the explorer connected.
	Joined time.Time
	// Room is the display name of the room the explorer occupies.
	Room string
}

type entry struct {
	explorer Explorer
	inbox    *Inbox
}

// Manager tracks all active explorers and room occupancy.
// All methods are safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	max       int
	explorers map[string]*entry          // id → entry
	rooms     map[string]map[string]bool // normalized room → set of ids
}

// NewManager creates an empty Manager. max caps concurrent explorers; 0 means
// unlimited.
func NewManager(max int) *Manager {
	return &Manager{
		max:       max,
		explorers: make(map[string]*entry),
		rooms:     make(map[string]map[string]bool),
	}
}

// Join registers a new explorer standing in room.
//
// Precondition: room must be non-empty.
// Postcondition: Returns the explorer and its inbox, or ErrHouseFull.
func (m *Manager) Join(remoteAddr, room string) (Explorer, *Inbox, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.max > 0 && len(m.explorers) >= m.max {
		return Explorer{}, nil, ErrHouseFull
	}

	id := uuid.NewString()
	e := &entry{
		explorer: Explorer{
			ID:         id,
			RemoteAddr: remoteAddr,
			Joined:     time.Now(),
			Room:       room,
		},
		inbox: NewInbox(id, 16),
	}
	m.explorers[id] = e
	m.addToRoom(room, id)
	return e.explorer, e.inbox, nil
}

// Leave removes an explorer and closes its inbox.
//
// Postcondition: The explorer is no longer tracked. Returns an error if unknown.
func (m *Manager) Leave(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.explorers[id]
	if !ok {
		return fmt.Errorf("explorer %q not found", id)
	}
	m.removeFromRoom(e.explorer.Room, id)
	delete(m.explorers, id)
	e.inbox.Close()
	return nil
}

// Move records that an explorer entered room.
//
// Postcondition: Returns the previously occupied room, or an error if the
// explorer is unknown.
func (m *Manager) Move(id, room string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.explorers[id]
	if !ok {
		return "", fmt.Errorf("explorer %q not found", id)
	}
	old := e.explorer.Room
	m.removeFromRoom(old, id)
	e.explorer.Room = room
	m.addToRoom(room, id)
	return old, nil
}

// Get returns a snapshot of the explorer.
func (m *Manager) Get(id string) (Explorer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.explorers[id]
	if !ok {
		return Explorer{}, false
	}
	return e.explorer, true
}

// Count returns the number of connected explorers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.explorers)
}

// Occupants returns the IDs of explorers in room, sorted.
func (m *Manager) Occupants(room string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.rooms[house.Normalize(room)]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RoomCounts returns how many explorers occupy each room, keyed by the
// display name of the room.
func (m *Manager) RoomCounts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, e := range m.explorers {
		counts[e.explorer.Room]++
	}
	return counts
}

// Notify pushes a notice to every explorer in room except the one with
// exceptID. Full inboxes drop the notice.
//
// Postcondition: Returns the number of explorers notified.
func (m *Manager) Notify(room, exceptID, notice string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sent := 0
	for id := range m.rooms[house.Normalize(room)] {
		if id == exceptID {
			continue
		}
		if err := m.explorers[id].inbox.Push(notice); err == nil {
			sent++
		}
	}
	return sent
}

func (m *Manager) addToRoom(room, id string) {
	key := house.Normalize(room)
	if m.rooms[key] == nil {
		m.rooms[key] = make(map[string]bool)
	}
	m.rooms[key][id] = true
}

func (m *Manager) removeFromRoom(room, id string) {
	key := house.Normalize(room)
	if set, ok := m.rooms[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(m.rooms, key)
		}
	}
}

// Package session tracks the explorers wandering the house and which room
// each of them occupies.
package session

import (
	"fmt"
	"sync"
)

// Inbox queues notices for one explorer, such as footsteps of another explorer
// entering the same room. The telnet session drains it onto the connection.
type Inbox struct {
	owner   string
	notices chan string
	mu      sync.Mutex
	closed  bool
}

// NewInbox creates an Inbox for the given explorer.
//
// Postcondition: Returns an open Inbox. A non-positive size defaults to 16.
func NewInbox(owner string, size int) *Inbox {
	if size <= 0 {
		size = 16
	}
	return &Inbox{
		owner:   owner,
		notices: make(chan string, size),
	}
}

// Push enqueues a notice without blocking.
//
// Postcondition: The notice is queued, or an error is returned if the inbox
// is closed or full. A full inbox drops the notice.
func (b *Inbox) Push(notice string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("inbox of %s is closed", b.owner)
	}
	select {
	case b.notices <- notice:
		return nil
	default:
		return fmt.Errorf("inbox of %s is full", b.owner)
	}
}

// Notices returns the receive side of the inbox. It is closed by Close.
func (b *Inbox) Notices() <-chan string {
	return b.notices
}

// Close closes the inbox. It is safe to call more than once.
func (b *Inbox) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.notices)
	}
}

// IsClosed reports whether the inbox has been closed.
func (b *Inbox) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

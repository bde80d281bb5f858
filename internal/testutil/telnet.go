// Package testutil provides helpers shared by integration tests.
package testutil

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cory-johannsen/hauntedhouse/internal/frontend/telnet"
)

// DefaultTimeout bounds every read made by Expect and ExpectClosed.
const DefaultTimeout = 5 * time.Second

// TelnetClient is a minimal Telnet client that matches against what the
// server sent with ANSI sequences and IAC negotiation removed.
type TelnetClient struct {
	conn net.Conn
	t    *testing.T
	raw  []byte
	// consumed is the length of plain text already returned by a match.
	consumed int
}

// NewTelnetClient dials the given address and returns a test client.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, DefaultTimeout)
	if err != nil {
		t.Fatalf("connecting to %s: %v", addr, err)
	}
	t.Cleanup(func() { conn.Close() })
	return &TelnetClient{conn: conn, t: t}
}

// ReadUntil reads until the unconsumed plain text contains substr and returns
// it up to and including the match. Text after the match is kept for the
// next call.
//
// Precondition: substr must be non-empty.
// Postcondition: Returns the consumed text, or fails the test on timeout.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	tmp := make([]byte, 1024)
	for {
		pending := c.pending()
		if i := strings.Index(pending, substr); i >= 0 {
			end := i + len(substr)
			c.consumed += end
			return pending[:end]
		}
		n, err := c.conn.Read(tmp)
		c.raw = append(c.raw, tmp[:n]...)
		if err != nil {
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, c.pending(), err)
		}
	}
}

// Expect is ReadUntil with DefaultTimeout.
func (c *TelnetClient) Expect(substr string) string {
	c.t.Helper()
	return c.ReadUntil(substr, DefaultTimeout)
}

// ExpectClosed reads until the server closes the connection.
//
// Postcondition: Returns the remaining plain text, or fails the test if the
// connection is still open after DefaultTimeout.
func (c *TelnetClient) ExpectClosed() string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(DefaultTimeout))

	tmp := make([]byte, 1024)
	for {
		n, err := c.conn.Read(tmp)
		c.raw = append(c.raw, tmp[:n]...)
		if err == nil {
			continue
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			c.t.Fatalf("connection still open, got %q", c.pending())
		}
		rest := c.pending()
		c.consumed += len(rest)
		return rest
	}
}

// Send writes a line of text to the server, appending \r\n.
//
// Precondition: text should not contain trailing newline characters.
// Postcondition: text + \r\n is written to the connection.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(DefaultTimeout))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Close closes the underlying connection.
func (c *TelnetClient) Close() {
	c.conn.Close()
}

// pending returns the plain text not yet consumed by a match.
func (c *TelnetClient) pending() string {
	return plain(c.raw)[c.consumed:]
}

// plain drops three-byte IAC negotiations and ANSI escapes from server output.
func plain(raw []byte) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == telnet.IAC {
			i += 2
			continue
		}
		b.WriteByte(raw[i])
	}
	return telnet.StripANSI(b.String())
}

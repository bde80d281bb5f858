package telnet

import (
	"bufio"
	"bytes"
	"net"
	"sync"
	"time"
)

// Telnet IAC (Interpret As Command) constants per RFC 854.
const (
	IAC  byte = 255 // Interpret As Command
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250 // Sub-negotiation Begin
	SE   byte = 240 // Sub-negotiation End
	NOP  byte = 241
	GA   byte = 249 // Go Ahead

	// Telnet options
	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
	OptLinemode        byte = 34
)

// Conn wraps a TCP connection with Telnet protocol handling.
// Reads are line based with IAC sequences filtered out. Writes are serialized,
// so effect animations and notices may write while a read is blocked.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	mu     sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration

	// prompt is redrawn after asynchronous output interrupts the input line.
	prompt string
	// shown is true while prompt sits at the end of the client's screen.
	shown bool
}

// NewConn wraps a raw TCP connection with Telnet protocol handling.
//
// Precondition: raw must be a valid, open network connection.
// Postcondition: Returns a Conn ready for reading and writing.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate asks the client to suppress go-ahead.
//
// Postcondition: Negotiation bytes are written to the connection.
func (c *Conn) Negotiate() error {
	return c.Write([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine reads a single line of input, filtering Telnet IAC sequences and
// control characters other than tab. The returned line has no line terminator.
//
// Postcondition: Returns the next line of text input, or an error (including io.EOF).
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	defer c.markInputLine()

	var line bytes.Buffer
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return line.String(), err
		}

		switch {
		case b == IAC:
			if err := c.skipCommand(); err != nil {
				return line.String(), err
			}
		case b == '\n':
			return line.String(), nil
		case b == '\r':
			// Accept CR LF and CR NUL as well as a bare CR.
			if next, err := c.reader.Peek(1); err == nil && (next[0] == '\n' || next[0] == 0) {
				_, _ = c.reader.ReadByte()
			}
			return line.String(), nil
		case b < 32 && b != '\t':
		default:
			line.WriteByte(b)
		}
	}
}

// markInputLine records that the client's enter key moved past the prompt.
func (c *Conn) markInputLine() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shown = false
}

// skipCommand consumes the remainder of a Telnet command after IAC.
func (c *Conn) skipCommand() error {
	cmd, err := c.reader.ReadByte()
	if err != nil {
		return err
	}

	switch cmd {
	case WILL, WONT, DO, DONT:
		_, err := c.reader.ReadByte()
		return err
	case SB:
		var prev byte
		for {
			b, err := c.reader.ReadByte()
			if err != nil {
				return err
			}
			if prev == IAC && b == SE {
				return nil
			}
			prev = b
		}
	default:
		// NOP, GA, and escaped 0xFF carry no payload worth keeping.
		return nil
	}
}

// SetPrompt sets the prompt that WriteAsync and ClearLine restore, without
// writing it.
func (c *Conn) SetPrompt(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = prompt
}

// WriteLine sends a line of text followed by \r\n to the client.
//
// Precondition: text should not contain trailing newline characters.
// Postcondition: text + \r\n is written to the connection.
func (c *Conn) WriteLine(text string) error {
	return c.Write([]byte(text + "\r\n"))
}

// WritePrompt sends a prompt string without a trailing newline and remembers
// it for WriteAsync. A prompt already on screen is redrawn in place, and an
// identical one is left alone so partially typed input survives.
//
// Postcondition: The prompt is the last thing on the client's screen.
func (c *Conn) WritePrompt(prompt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shown && c.prompt == prompt {
		return nil
	}
	out := prompt
	if c.shown {
		out = "\r" + EraseLine + prompt
	}
	c.prompt = prompt
	c.shown = true
	return c.writeLocked([]byte(out))
}

// WriteAsync writes output that arrives while the explorer may be typing: the
// current input line is erased, text is written, and the prompt is redrawn.
//
// Postcondition: text + \r\n and the prompt are written to the connection.
func (c *Conn) WriteAsync(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shown = c.prompt != ""
	return c.writeLocked([]byte("\r" + EraseLine + text + "\r\n" + c.prompt))
}

// WriteFrame redraws the current line with frame, without advancing the
// cursor. Animations call it repeatedly to overwrite one line in place.
//
// Postcondition: The line under the cursor shows frame.
func (c *Conn) WriteFrame(frame string) error {
	return c.Write([]byte("\r" + EraseLine + frame))
}

// ClearLine erases the line under the cursor and redraws the prompt.
func (c *Conn) ClearLine() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shown = c.prompt != ""
	return c.writeLocked([]byte("\r" + EraseLine + c.prompt))
}

// Write sends raw bytes to the client.
//
// Postcondition: The data is written to the connection.
func (c *Conn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shown = false
	return c.writeLocked(data)
}

func (c *Conn) writeLocked(data []byte) error {
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(data)
	return err
}

// Close closes the underlying TCP connection. A blocked ReadLine returns an error.
//
// Postcondition: The connection is closed and no longer usable.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the remote network address of the client.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

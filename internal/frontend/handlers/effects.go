package handlers

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hauntedhouse/internal/config"
	"github.com/cory-johannsen/hauntedhouse/internal/frontend/telnet"
	"github.com/cory-johannsen/hauntedhouse/internal/game/effect"
	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
	"github.com/cory-johannsen/hauntedhouse/internal/game/navigator"
)

const (
	flickerText = "The lights flicker."
	ghostText   = "A pale figure drifts out of the wall."
)

// EffectPlayer animates room entries on one Telnet connection. Each call to
// Play runs on its own goroutine; animations are never cancelled by further
// navigation, only by the session context.
type EffectPlayer struct {
	conn   *telnet.Conn
	cfg    config.EffectsConfig
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewEffectPlayer creates an EffectPlayer writing to conn.
//
// Precondition: conn must be non-nil.
func NewEffectPlayer(conn *telnet.Conn, cfg config.EffectsConfig, logger *zap.Logger) *EffectPlayer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EffectPlayer{conn: conn, cfg: cfg, logger: logger}
}

// Play starts the animations for ev and returns immediately.
//
// Postcondition: The room image caption fades in, then the room's effect (if
// any) plays, all on a goroutine bounded by ctx.
func (p *EffectPlayer) Play(ctx context.Context, ev navigator.RoomEntered) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.play(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Debug("effect interrupted",
				zap.String("room", ev.Room.Name),
				zap.Stringer("effect", ev.Effect),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every started animation has returned.
func (p *EffectPlayer) Wait() {
	p.wg.Wait()
}

func (p *EffectPlayer) play(ctx context.Context, ev navigator.RoomEntered) error {
	if caption := ImageCaption(ev.Room); caption != "" {
		if err := effect.Play(ctx, effect.RoomFade(p.cfg), p.frameWriter(caption)); err != nil {
			return err
		}
		if err := p.conn.WriteAsync(telnet.Colorize(telnet.Dim, caption)); err != nil {
			return err
		}
	}

	switch ev.Effect {
	case house.EffectFlicker:
		if err := effect.Play(ctx, effect.Flicker(p.cfg), p.frameWriter(flickerText)); err != nil {
			return err
		}
		return p.conn.WriteAsync(telnet.Colorize(telnet.Yellow, flickerText))
	case house.EffectGhostAppearance:
		if err := effect.Play(ctx, effect.Ghost(p.cfg), p.frameWriter(ghostText)); err != nil {
			return err
		}
		// The figure has faded to nothing; take it off the screen.
		return p.conn.ClearLine()
	}
	return nil
}

// frameWriter renders text on the current line at the frame's opacity.
func (p *EffectPlayer) frameWriter(text string) func(effect.Frame) error {
	return func(f effect.Frame) error {
		return p.conn.WriteFrame(telnet.Opacity(f.Opacity) + text + telnet.Reset)
	}
}

// Package effect computes the opacity animations played when an explorer
// enters a haunted room, and plays them against a render callback.
package effect

import (
	"context"
	"time"

	"github.com/cory-johannsen/hauntedhouse/internal/config"
	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
)

// Frame is one step of an animation.
type Frame struct {
	// Opacity is the visibility of the animated element, in [0,1].
	Opacity float64
	// Delay is the time to wait after the previous frame before showing this one.
	Delay time.Duration
}

// Flicker returns the light flicker: opacity swings from 1 to cfg.FlickerMinOpacity
// and back, one half cycle per swing, starting and ending fully lit when the
// number of half cycles is even.
//
// Postcondition: The first frame is {1, 0}. The total delay equals
// FlickerCycles * FlickerHalfCycle.
func Flicker(cfg config.EffectsConfig) []Frame {
	frames := []Frame{{Opacity: 1}}
	from, to := 1.0, cfg.FlickerMinOpacity
	for range cfg.FlickerCycles {
		frames = append(frames, ramp(from, to, cfg.FlickerHalfCycle, cfg.FrameInterval)...)
		from, to = to, from
	}
	return frames
}

// Ghost returns the apparition: a fade in from 0 to cfg.GhostPeakOpacity, a hold
// at the peak, and a fade out back to 0, after which the figure is gone.
//
// Postcondition: The first frame is {0, 0} and the last frame has opacity 0.
// The total delay equals GhostFadeIn + GhostHold + GhostFadeOut.
func Ghost(cfg config.EffectsConfig) []Frame {
	peak := cfg.GhostPeakOpacity
	frames := []Frame{{Opacity: 0}}
	frames = append(frames, ramp(0, peak, cfg.GhostFadeIn, cfg.FrameInterval)...)
	if cfg.GhostHold > 0 {
		frames = append(frames, Frame{Opacity: peak, Delay: cfg.GhostHold})
	}
	return append(frames, ramp(peak, 0, cfg.GhostFadeOut, cfg.FrameInterval)...)
}

// RoomFade returns the fade in shown on every room entry, or nil when
// cfg.RoomFade is zero.
func RoomFade(cfg config.EffectsConfig) []Frame {
	if cfg.RoomFade <= 0 {
		return nil
	}
	return append([]Frame{{Opacity: 0}}, ramp(0, 1, cfg.RoomFade, cfg.FrameInterval)...)
}

// For returns the animation for kind, or nil for EffectNone.
func For(kind house.EffectKind, cfg config.EffectsConfig) []Frame {
	switch kind {
	case house.EffectFlicker:
		return Flicker(cfg)
	case house.EffectGhostAppearance:
		return Ghost(cfg)
	default:
		return nil
	}
}

// Duration returns the total running time of frames.
func Duration(frames []Frame) time.Duration {
	var total time.Duration
	for _, f := range frames {
		total += f.Delay
	}
	return total
}

// ramp interpolates linearly from from to to over d, one frame per interval.
// The starting value is not included. A non-positive d jumps straight to to.
func ramp(from, to float64, d, interval time.Duration) []Frame {
	if d <= 0 {
		return []Frame{{Opacity: to}}
	}
	steps := 1
	if interval > 0 && d > interval {
		steps = int(d / interval)
	}
	step := d / time.Duration(steps)
	frames := make([]Frame, 0, steps)
	for i := 1; i <= steps; i++ {
		f := Frame{
			Opacity: from + (to-from)*float64(i)/float64(steps),
			Delay:   step,
		}
		if i == steps {
			// Land exactly on the target and absorb the rounding remainder.
			f.Opacity = to
			f.Delay = d - step*time.Duration(steps-1)
		}
		frames = append(frames, f)
	}
	return frames
}

// Play shows frames in order, sleeping each frame's Delay before rendering it.
// It returns ctx.Err() if the context ends first, or the first render error.
func Play(ctx context.Context, frames []Frame, render func(Frame) error) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for _, f := range frames {
		if f.Delay > 0 {
			timer.Reset(f.Delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := render(f); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"fmt"
	"time"
)

// timer modes
const (
	modeFocus = "focus"
	modeBreak = "break"
)

// Timer is a focus/break study timer driven by Tick; it owns no other state.
type Timer struct {
	focus, brk time.Duration

	mode      string
	remaining time.Duration
	running   bool
	sessions  int // completed focus phases
}

func NewTimer(focus, brk time.Duration) *Timer {
	t := &Timer{focus: focus, brk: brk, mode: modeFocus}
	t.remaining = focus
	return t
}

func (t *Timer) duration(mode string) time.Duration {
	if mode == modeBreak {
		return t.brk
	}
	return t.focus
}

// Toggle starts or pauses the timer and returns whether it now runs.
func (t *Timer) Toggle() bool {
	t.running = !t.running
	return t.running
}

// Reset stops the timer and rewinds the current phase.
func (t *Timer) Reset() {
	t.running = false
	t.remaining = t.duration(t.mode)
}

// Tick advances a running timer by one second.
// When the phase runs out the timer stops and switches to the other phase; Tick then returns true.
func (t *Timer) Tick() bool {
	if !t.running {
		return false
	}
	t.remaining -= time.Second
	if t.remaining > 0 {
		return false
	}

	t.running = false
	if t.mode == modeFocus {
		t.sessions++
		t.mode = modeBreak
	} else {
		t.mode = modeFocus
	}
	t.remaining = t.duration(t.mode)
	return true
}

func (t *Timer) Mode() string             { return t.mode }
func (t *Timer) Running() bool            { return t.running }
func (t *Timer) Remaining() time.Duration { return t.remaining }
func (t *Timer) Sessions() int            { return t.sessions }

// String renders the remaining time as mm:ss.
func (t *Timer) String() string {
	secs := int(t.remaining / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Label is the phase title shown next to the clock.
func (t *Timer) Label() string {
	if t.mode == modeBreak {
		return "Break Time"
	}
	return "Focus Time"
}

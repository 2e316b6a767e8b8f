// Package meter implements the APM engine: a process-wide input event
// counter, the session state machine, and the tick-driven rate stats
// that the dashboard and report writer consume.
package meter

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Status is the session lifecycle state.
type Status int32

const (
	StatusStopped Status = iota
	StatusRunning
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "RUNNING"
	case StatusPaused:
		return "PAUSED"
	default:
		return "STOPPED"
	}
}

// ErrNotStopped is returned by Start when a session is already active.
var ErrNotStopped = errors.New("session already in progress")

// ErrNoSession is returned by Stop when no session is active.
var ErrNoSession = errors.New("no active session")

// DefaultVeFactor is the virtual-effective-APM weighting applied when
// none is given: veAPM = averageAPM * factor.
const DefaultVeFactor = 0.7

// DefaultTrendWindow is the number of tick samples kept for the trend
// graph (5 minutes at a 1s tick).
const DefaultTrendWindow = 300

// Snapshot is the read-only view model consumed by the TUI.
type Snapshot struct {
	Status         Status
	Tag            string
	CurrentAPM     int
	PeakAPM        int
	AverageAPM     int
	AverageVeAPM   int
	TotalActions   int64
	ActiveDuration time.Duration
	Trend          []int
}

// Summary is the immutable result of a finished session, handed to the
// report writer.
type Summary struct {
	SessionID      string
	Tag            string
	VeFactor       float64
	TotalActions   int64
	PeakAPM        int
	AverageAPM     int
	AverageVeAPM   int
	ActiveDuration time.Duration
	StartedAt      time.Time
	StoppedAt      time.Time
	Trend          []int
}

// Engine counts input events and derives APM statistics on each tick.
//
// Record is safe to call from the input-hook goroutine without locking:
// the only shared state it touches is the status word and the total
// counter, both atomics. Everything else is guarded by mu and only
// touched from the tick/command side.
type Engine struct {
	status atomic.Int32
	total  atomic.Int64

	mu            sync.Mutex
	now           func() time.Time
	interval      time.Duration
	sessionID     string
	tag           string
	veFactor      float64
	startedAt     time.Time
	lastTick      time.Time // zero while paused or stopped
	active        time.Duration
	lastTickCount int64
	peak          int
	history       *Ring
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock. Tests use this to drive ticks
// deterministically.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithInterval sets the tick interval used to scale per-tick deltas to
// a per-minute rate.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithTrendWindow sets the number of samples kept for the trend graph.
func WithTrendWindow(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.history = NewRing(n)
		}
	}
}

// New returns a stopped Engine with a 1s tick interval.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:      time.Now,
		interval: time.Second,
		veFactor: DefaultVeFactor,
		history:  NewRing(DefaultTrendWindow),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Record counts one input event. Events arriving while the session is
// not running are ignored.
func (e *Engine) Record() {
	if Status(e.status.Load()) != StatusRunning {
		return
	}
	e.total.Add(1)
}

// Status returns the current lifecycle state.
func (e *Engine) Status() Status {
	return Status(e.status.Load())
}

// Start begins a new session with the given tag and veAPM factor.
// Returns ErrNotStopped if a session is already running or paused.
func (e *Engine) Start(tag string, veFactor float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if Status(e.status.Load()) != StatusStopped {
		return ErrNotStopped
	}
	if tag == "" {
		tag = "untagged"
	}
	if veFactor < 0 || veFactor > 1 {
		veFactor = DefaultVeFactor
	}

	e.sessionID = uuid.New().String()
	e.tag = tag
	e.veFactor = veFactor
	e.total.Store(0)
	e.lastTickCount = 0
	e.peak = 0
	e.active = 0
	e.history.Reset()
	e.startedAt = e.now()
	e.lastTick = e.startedAt
	e.status.Store(int32(StatusRunning))
	return nil
}

// Pause freezes event counting and active-time accounting. No-op
// unless the session is running.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if Status(e.status.Load()) != StatusRunning {
		return
	}
	// Bank the time since the last tick so the pause boundary is exact.
	now := e.now()
	if !e.lastTick.IsZero() {
		e.active += now.Sub(e.lastTick)
	}
	e.lastTick = time.Time{}
	e.status.Store(int32(StatusPaused))
}

// Resume continues a paused session. Paused wall time is excluded from
// the active duration. No-op unless the session is paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if Status(e.status.Load()) != StatusPaused {
		return
	}
	e.lastTick = e.now()
	e.status.Store(int32(StatusRunning))
}

// SetTag relabels the active session. No-op when stopped.
func (e *Engine) SetTag(tag string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if Status(e.status.Load()) == StatusStopped {
		return
	}
	if tag == "" {
		tag = "untagged"
	}
	e.tag = tag
}

// Tick advances time accounting, computes the current APM from the
// events seen since the previous tick, records a trend sample, and
// returns a fresh snapshot. Call it at the configured interval.
func (e *Engine) Tick() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	total := e.total.Load()
	status := Status(e.status.Load())

	if status == StatusRunning {
		if !e.lastTick.IsZero() {
			e.active += now.Sub(e.lastTick)
		}
		e.lastTick = now

		delta := total - e.lastTickCount
		e.lastTickCount = total
		current := int(float64(delta) * (60.0 / e.interval.Seconds()))
		if current > e.peak {
			e.peak = current
		}
		e.history.Push(Sample{At: now, APM: current})
		return e.snapshotLocked(status, total, current)
	}

	// Paused or stopped: nothing accumulates, current rate is zero.
	e.lastTickCount = total
	return e.snapshotLocked(status, total, 0)
}

// Snapshot returns the current stats without advancing the clock.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(Status(e.status.Load()), e.total.Load(), e.currentLocked())
}

func (e *Engine) currentLocked() int {
	if vals := e.history.Values(); len(vals) > 0 {
		return vals[len(vals)-1]
	}
	return 0
}

func (e *Engine) snapshotLocked(status Status, total int64, current int) Snapshot {
	avg := averageAPM(total, e.active)
	return Snapshot{
		Status:         status,
		Tag:            e.tag,
		CurrentAPM:     current,
		PeakAPM:        e.peak,
		AverageAPM:     avg,
		AverageVeAPM:   int(float64(avg) * e.veFactor),
		TotalActions:   total,
		ActiveDuration: e.active,
		Trend:          e.history.Values(),
	}
}

// averageAPM is total actions over active minutes; zero elapsed time
// yields zero by convention. Computed against whole seconds so exact
// durations divide exactly.
func averageAPM(total int64, active time.Duration) int {
	secs := active.Seconds()
	if secs <= 0 {
		return 0
	}
	return int(float64(total) * 60.0 / secs)
}

// Stop finalizes the session and returns its Summary. The engine goes
// back to Stopped and is ready for a new Start. Returns ErrNoSession
// if nothing is active.
func (e *Engine) Stop() (*Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := Status(e.status.Load())
	if status == StatusStopped {
		return nil, ErrNoSession
	}

	now := e.now()
	if status == StatusRunning && !e.lastTick.IsZero() {
		e.active += now.Sub(e.lastTick)
	}
	e.status.Store(int32(StatusStopped))
	e.lastTick = time.Time{}

	total := e.total.Load()
	avg := averageAPM(total, e.active)
	return &Summary{
		SessionID:      e.sessionID,
		Tag:            e.tag,
		VeFactor:       e.veFactor,
		TotalActions:   total,
		PeakAPM:        e.peak,
		AverageAPM:     avg,
		AverageVeAPM:   int(float64(avg) * e.veFactor),
		ActiveDuration: e.active,
		StartedAt:      e.startedAt,
		StoppedAt:      now,
		Trend:          e.history.Values(),
	}, nil
}

// Reset stops any active session and immediately starts a new one with
// the given tag and factor. The summary of the stopped session is
// returned so the caller can archive it; nil when nothing was active.
func (e *Engine) Reset(tag string, veFactor float64) (*Summary, error) {
	var summary *Summary
	if Status(e.status.Load()) != StatusStopped {
		s, err := e.Stop()
		if err != nil {
			return nil, err
		}
		summary = s
	}
	return summary, e.Start(tag, veFactor)
}

// Package pet is the surface a renderer drives: a busy-guarded trigger, a
// result channel and a periodic auto-trigger, plus the read-only views of
// the activity and favorability records.
package pet

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/miaomiao/miaomiao/internal/activity"
	"github.com/miaomiao/miaomiao/internal/cycle"
	"github.com/miaomiao/miaomiao/internal/favor"
)

// Runner runs one analysis cycle. *cycle.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context) cycle.Result
}

// Pet owns the busy guard. At most one cycle is in flight; triggers that
// arrive while busy are dropped.
type Pet struct {
	runner  Runner
	tracker *activity.Tracker
	engine  *favor.Engine
	logger  *slog.Logger

	busy     atomic.Bool
	results  chan cycle.Result
	interval chan time.Duration
	wg       sync.WaitGroup
}

// New returns a Pet driving runner.
func New(runner Runner, tracker *activity.Tracker, engine *favor.Engine, logger *slog.Logger) *Pet {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pet{
		runner:   runner,
		tracker:  tracker,
		engine:   engine,
		logger:   logger,
		results:  make(chan cycle.Result, 1),
		interval: make(chan time.Duration),
	}
}

// Trigger starts a cycle in the background. It returns false, doing
// nothing, when a cycle is already in flight. The busy flag clears once the
// result has been delivered on Results or ctx is done.
func (p *Pet) Trigger(ctx context.Context) bool {
	if !p.busy.CompareAndSwap(false, true) {
		p.logger.Debug("pet: trigger dropped, busy")
		return false
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.busy.Store(false)

		res := p.runner.Run(ctx)
		// A caller that gave up must not leave its result for the next one.
		if ctx.Err() != nil {
			p.logger.Debug("pet: result discarded", "err", ctx.Err())
			return
		}
		select {
		case p.results <- res:
		case <-ctx.Done():
			p.logger.Debug("pet: result discarded", "err", ctx.Err())
		}
	}()
	return true
}

// Analyze runs one cycle under the busy guard and returns its result
// directly instead of sending it on Results. ok is false when a cycle is
// already in flight.
func (p *Pet) Analyze(ctx context.Context) (res cycle.Result, ok bool) {
	if !p.busy.CompareAndSwap(false, true) {
		p.logger.Debug("pet: analyze dropped, busy")
		return cycle.Result{}, false
	}
	p.wg.Add(1)
	defer p.wg.Done()
	defer p.busy.Store(false)
	return p.runner.Run(ctx), true
}

// Results delivers each finished cycle.
func (p *Pet) Results() <-chan cycle.Result {
	return p.results
}

// Busy reports whether a cycle is in flight.
func (p *Pet) Busy() bool {
	return p.busy.Load()
}

// Wait blocks until the in-flight cycle, if any, has delivered or given up.
func (p *Pet) Wait() {
	p.wg.Wait()
}

// RunTimer calls Trigger every interval until ctx is done. An interval of 0
// pauses the timer; SetInterval changes it while running.
func (p *Pet) RunTimer(ctx context.Context, interval time.Duration) {
	var (
		ticker *time.Ticker
		tick   <-chan time.Time
	)
	reset := func(d time.Duration) {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if d > 0 {
			ticker = time.NewTicker(d)
			tick = ticker.C
		}
		p.logger.Info("pet: auto analysis interval", "interval", d)
	}
	reset(interval)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-p.interval:
			reset(d)
		case <-tick:
			p.Trigger(ctx)
		}
	}
}

// SetInterval changes the interval of a running RunTimer. It returns false
// when no timer picked the change up before ctx was done.
func (p *Pet) SetInterval(ctx context.Context, d time.Duration) bool {
	select {
	case p.interval <- d:
		return true
	case <-ctx.Done():
		return false
	}
}

// ActivityReport returns the formatted activity statistics.
func (p *Pet) ActivityReport() string {
	return p.tracker.FormattedReport()
}

// FavorabilityDisplay returns the tier label, hearts and color hint.
func (p *Pet) FavorabilityDisplay() favor.Display {
	return p.engine.Display()
}

// Tracker exposes the activity record for read-only views.
func (p *Pet) Tracker() *activity.Tracker { return p.tracker }

// Engine exposes the favorability record for read-only views.
func (p *Pet) Engine() *favor.Engine { return p.engine }

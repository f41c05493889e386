package schedule

import (
	"sync"
	"time"

	"github.com/flintbot/flint/internal/logging"
)

// Runner fires named jobs either daily at a wall-clock time or on a fixed
// interval. One goroutine per job, all torn down by Stop.
type Runner struct {
	loc *time.Location

	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// NewRunner creates a runner scheduling in the given location.
func NewRunner(loc *time.Location) *Runner {
	if loc == nil {
		loc = time.Local
	}
	return &Runner{loc: loc, stopChan: make(chan struct{})}
}

// DailyAt schedules fn every day at "HH:MM" local wall-clock time.
func (r *Runner) DailyAt(clock, name string, fn func()) error {
	at, err := time.ParseInLocation("15:04", clock, r.loc)
	if err != nil {
		return err
	}

	stop := r.start()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			next := nextAfter(time.Now().In(r.loc), at.Hour(), at.Minute())
			logging.Debug("schedule", "%s next run at %s", name, next.Format(time.RFC3339))
			timer := time.NewTimer(time.Until(next))
			select {
			case <-stop:
				timer.Stop()
				return
			case <-timer.C:
				logging.Info("schedule", "Running %s", name)
				fn()
			}
		}
	}()
	logging.Info("schedule", "Scheduled %s daily at %s", name, clock)
	return nil
}

// Every schedules fn on a fixed interval, after an initial delay.
func (r *Runner) Every(interval, initialDelay time.Duration, name string, fn func()) {
	stop := r.start()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		initial := time.NewTimer(initialDelay)
		select {
		case <-stop:
			initial.Stop()
			return
		case <-initial.C:
		}

		fn()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				logging.Debug("schedule", "Running %s", name)
				fn()
			}
		}
	}()
	logging.Info("schedule", "Scheduled %s every %s", name, interval)
}

// start marks the runner running, replacing the stop channel after a Stop
// so jobs registered later still fire. Jobs hold the channel they were
// started with.
func (r *Runner) start() chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		r.running = true
		r.stopChan = make(chan struct{})
	}
	return r.stopChan
}

// Stop cancels all jobs and waits for their goroutines to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.running {
		close(r.stopChan)
		r.running = false
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// nextAfter returns the next occurrence of hour:minute strictly after now.
func nextAfter(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

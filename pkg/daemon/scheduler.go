package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/magtag-badge/badge/pkg/config"
)

const (
	preCheckMaxTimes = 30
	preCheckInterval = time.Second * 10
)

type NotifyFunc func(data any)

// TaskFunc represents a runnable task.
type TaskFunc func() error

// Scheduler runs Task on a cron schedule. Before each run PreCheck must
// pass; it is retried every preCheckInterval, up to preCheckMaxTimes, after
// which the run is dropped.
type Scheduler struct {
	OnError  NotifyFunc // called on precheck and task errors
	Task     TaskFunc
	PreCheck TaskFunc // may be nil

	mu       sync.Mutex
	schedule cron.Schedule
	nextRun  time.Time
	running  bool

	// wake tells the run loop that schedule or nextRun changed.
	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

func NewScheduler(task, preCheck TaskFunc, onError NotifyFunc) *Scheduler {
	if task == nil {
		panic("task function cannot be nil")
	}

	return &Scheduler{
		OnError:  onError,
		Task:     task,
		PreCheck: preCheck,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.run()
}

// Stop ends the run loop. A stopped scheduler cannot be started again.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Schedule replaces the schedule. It may be called while running.
func (s *Scheduler) Schedule(cronExpr string) error {
	sh, err := config.ScheduleParser.Parse(cronExpr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.schedule = sh
	s.nextRun = sh.Next(time.Now())
	s.mu.Unlock()

	s.poke()
	return nil
}

// Clear removes the schedule; the scheduler idles until the next Schedule.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	s.schedule = nil
	s.nextRun = time.Time{}
	s.mu.Unlock()

	s.poke()
}

// Skip drops the next scheduled run.
func (s *Scheduler) Skip() error {
	s.mu.Lock()
	if s.schedule == nil || s.nextRun.IsZero() {
		s.mu.Unlock()
		return fmt.Errorf("no active schedule to skip")
	}
	s.nextRun = s.schedule.Next(s.nextRun)
	s.mu.Unlock()

	s.poke()
	return nil
}

// Status reports the next run, zero when nothing is scheduled.
func (s *Scheduler) Status() (nextRun time.Time, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun, s.running
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run() {
	logrus.Debug("scheduler started")
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		logrus.Debug("scheduler stopped")
	}()

	var (
		attempts int
		lastErr  string
		retryAt  time.Time
	)

	for {
		due, _ := s.Status()
		if attempts > 0 {
			due = retryAt
		}

		var fire <-chan time.Time
		var timer *time.Timer
		if !due.IsZero() {
			timer = time.NewTimer(max(time.Until(due), 0))
			fire = timer.C
		}

		select {
		case <-s.stop:
			stopTimer(timer)
			return
		case <-s.wake:
			stopTimer(timer)
			attempts, lastErr = 0, ""
			continue
		case <-fire:
		}

		logrus.Debugf("running scheduled task due at %s", due.Format(time.DateTime))

		if s.PreCheck != nil {
			if err := s.PreCheck(); err != nil {
				if err.Error() != lastErr {
					lastErr = err.Error()
					s.notify(fmt.Errorf("precheck failed: %v", err))
				}

				attempts++
				if attempts <= preCheckMaxTimes {
					logrus.Debugf("precheck failed (%d/%d): %v; retrying in %s", attempts, preCheckMaxTimes, err, preCheckInterval)
					retryAt = time.Now().Add(preCheckInterval)
					continue
				}

				logrus.Warnf("dropping scheduled run after %d failed prechecks", preCheckMaxTimes)
				attempts, lastErr = 0, ""
				s.advance()
				continue
			}
		}

		attempts, lastErr = 0, ""
		go func() {
			if err := s.Task(); err != nil {
				s.notify(fmt.Errorf("task failed: %v", err))
			}
		}()
		s.advance()
	}
}

func (s *Scheduler) advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil {
		return
	}
	// After a suspend nextRun may lie far behind; do not replay missed runs.
	from := s.nextRun
	if now := time.Now(); from.Before(now) {
		from = now
	}
	s.nextRun = s.schedule.Next(from)
}

func (s *Scheduler) notify(err error) {
	if s.OnError == nil {
		return
	}
	go s.OnError(err)
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

package game

import (
	"context"
	"sync"
	"time"
)

// TickFunc receives the remaining seconds of a round. It runs on the
// countdown goroutine and must not call Start or Cancel for the same game.
type TickFunc func(gameID string, round, timeLeft int)

// ExpireFunc runs on its own goroutine once a countdown reaches zero and its
// grace window has passed.
type ExpireFunc func(gameID string, round int)

// Scheduler keeps at most one running countdown per game id.
type Scheduler struct {
	mu       sync.Mutex
	timers   map[string]*countdown
	interval time.Duration
	onTick   TickFunc
	onExpire ExpireFunc
}

type countdown struct {
	round  int
	grace  int
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(interval time.Duration, onTick TickFunc, onExpire ExpireFunc) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	if onTick == nil {
		onTick = func(string, int, int) {}
	}
	if onExpire == nil {
		onExpire = func(string, int) {}
	}
	return &Scheduler{
		timers:   make(map[string]*countdown),
		interval: interval,
		onTick:   onTick,
		onExpire: onExpire,
	}
}

// Start replaces any countdown for gameID. The previous countdown has fully
// stopped before the new one emits its first tick.
func (s *Scheduler) Start(gameID string, round, seconds int) {
	s.StartWithGrace(gameID, round, seconds, 0)
}

// StartWithGrace is Start with a silent window of grace intervals between the
// zero tick and expiry. Cancel stops it during the grace window too.
func (s *Scheduler) StartWithGrace(gameID string, round, seconds, grace int) {
	ctx, cancel := context.WithCancel(context.Background())
	next := &countdown{
		round:  round,
		grace:  max(grace, 0),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.mu.Lock()
	prev := s.timers[gameID]
	s.timers[gameID] = next
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}
	go s.run(ctx, gameID, seconds, next)
}

// Cancel stops the countdown for gameID and waits for it to exit. Cancelling
// an absent or finished countdown is a no-op.
func (s *Scheduler) Cancel(gameID string) {
	s.mu.Lock()
	current := s.timers[gameID]
	delete(s.timers, gameID)
	s.mu.Unlock()
	if current == nil {
		return
	}
	current.cancel()
	<-current.done
}

// Active reports whether a countdown is running for gameID.
func (s *Scheduler) Active(gameID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[gameID]
	return ok
}

// Len is the number of running countdowns.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every countdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.Cancel(id)
	}
}

func (s *Scheduler) run(ctx context.Context, gameID string, seconds int, self *countdown) {
	defer func() {
		s.mu.Lock()
		if s.timers[gameID] == self {
			delete(s.timers, gameID)
		}
		s.mu.Unlock()
		close(self.done)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for left := max(seconds, 0); ; left-- {
		if ctx.Err() != nil {
			return
		}
		s.onTick(gameID, self.round, left)
		if left == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
	if self.grace > 0 {
		wait := time.NewTimer(time.Duration(self.grace) * s.interval)
		defer wait.Stop()
		select {
		case <-ctx.Done():
			return
		case <-wait.C:
		}
	}
	if ctx.Err() != nil {
		return
	}
	go s.onExpire(gameID, self.round)
}

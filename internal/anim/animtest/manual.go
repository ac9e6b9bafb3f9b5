// Package animtest 提供测试用的手动时钟调度器。
package animtest

import (
	"sort"
	"sync"
	"time"

	"soumiSpace/internal/anim"
)

// ManualScheduler 只在 Advance 时触发到期的回调。
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	s       *ManualScheduler
	at      time.Time
	seq     int
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

var _ anim.Scheduler = (*ManualScheduler)(nil)

// NewManualScheduler 从一个固定时间点开始计时。
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) anim.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{s: s, at: s.now.Add(d), seq: s.seq, f: f}
	s.pending = append(s.pending, t)
	return t
}

func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance 推进时钟并按时间顺序执行所有到期回调，包括推进过程中新登记的回调。
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	deadline := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.popDueLocked(deadline)
		if next == nil {
			s.now = deadline
			s.mu.Unlock()
			return
		}
		s.now = next.at
		s.mu.Unlock()
		next.f()
	}
}

func (s *ManualScheduler) popDueLocked(deadline time.Time) *manualTimer {
	live := s.pending[:0]
	for _, t := range s.pending {
		if !t.stopped {
			live = append(live, t)
		}
	}
	s.pending = live
	if len(s.pending) == 0 {
		return nil
	}
	sort.Slice(s.pending, func(i, j int) bool {
		if s.pending[i].at.Equal(s.pending[j].at) {
			return s.pending[i].seq < s.pending[j].seq
		}
		return s.pending[i].at.Before(s.pending[j].at)
	})
	first := s.pending[0]
	if first.at.After(deadline) {
		return nil
	}
	s.pending = s.pending[1:]
	first.stopped = true
	return first
}

// Pending 返回尚未触发且未停止的定时器数量。
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

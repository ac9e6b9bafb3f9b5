// Package anim 提供可取消的动画任务：打字机、数字递增与错峰显现。
// 每个任务绑定一个节点键，重建节点前先取消旧任务，避免遗留的定时器。
package anim

import (
	"sync"
	"time"
)

// 动画时序常量。
const (
	TypeDelay       = 100 * time.Millisecond
	DeleteDelay     = 50 * time.Millisecond
	PauseFull       = 2000 * time.Millisecond
	PauseEmpty      = 500 * time.Millisecond
	CounterDuration = 2000 * time.Millisecond
	StatStride      = 200 * time.Millisecond
	CategoryStride  = 200 * time.Millisecond
	SkillStride     = 100 * time.Millisecond
	FrameInterval   = 16 * time.Millisecond
)

// Timer 是可停止的定时器，*time.Timer 满足该接口。
type Timer interface {
	Stop() bool
}

// Scheduler 抽象出定时与单调时钟，测试中可替换为手动时钟。
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

type realScheduler struct{}

// RealScheduler 返回基于 time 包的调度器。
func RealScheduler() Scheduler { return realScheduler{} }

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
func (realScheduler) Now() time.Time                            { return time.Now() }

// StepFunc 执行一帧并返回下一帧的延迟；ok 为 false 时任务结束。
type StepFunc func() (next time.Duration, ok bool)

// Task 是一个自我续约的定时任务句柄。
type Task struct {
	mu        sync.Mutex
	sched     Scheduler
	step      StepFunc
	timer     Timer
	cancelled bool
	finished  bool
	done      chan struct{}
	onFinish  func()
}

// Run 在 initial 之后开始执行 step，并按其返回值不断续约。
func Run(s Scheduler, initial time.Duration, step StepFunc) *Task {
	t := &Task{sched: s, step: step, done: make(chan struct{})}
	t.schedule(initial)
	return t
}

func (t *Task) schedule(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled || t.finished {
		return
	}
	t.timer = t.sched.AfterFunc(d, t.fire)
}

func (t *Task) fire() {
	t.mu.Lock()
	if t.cancelled || t.finished {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	next, ok := t.step()
	if !ok {
		t.finish()
		return
	}
	t.schedule(next)
}

func (t *Task) finish() {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	onFinish := t.onFinish
	close(t.done)
	t.mu.Unlock()

	if onFinish != nil {
		onFinish()
	}
}

// Cancel 停止任务；对已结束的任务无副作用。
func (t *Task) Cancel() {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.cancelled = true
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()
	t.finish()
}

// Cancelled 报告任务是否被显式取消。
func (t *Task) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Done 在任务结束（完成或取消）后关闭。
func (t *Task) Done() <-chan struct{} { return t.done }

package anim

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Tasks 按节点键登记动画任务。同一键只保留一个任务。
type Tasks struct {
	mu    sync.Mutex
	sched Scheduler
	tasks map[string]*Task
}

// NewTasks 构造任务登记表。
func NewTasks(s Scheduler) *Tasks {
	if s == nil {
		s = RealScheduler()
	}
	return &Tasks{sched: s, tasks: map[string]*Task{}}
}

// Scheduler 返回登记表使用的调度器。
func (r *Tasks) Scheduler() Scheduler { return r.sched }

// Start 取消 key 上已有的任务后启动新任务。
func (r *Tasks) Start(key string, initial time.Duration, step StepFunc) *Task {
	t := &Task{sched: r.sched, step: step, done: make(chan struct{})}
	t.onFinish = func() {
		r.mu.Lock()
		if r.tasks[key] == t {
			delete(r.tasks, key)
		}
		r.mu.Unlock()
	}

	r.mu.Lock()
	prev := r.tasks[key]
	r.tasks[key] = t
	r.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}

	t.schedule(initial)
	return t
}

// Cancel 取消单个键上的任务。
func (r *Tasks) Cancel(key string) {
	r.mu.Lock()
	t := r.tasks[key]
	delete(r.tasks, key)
	r.mu.Unlock()
	if t != nil {
		t.Cancel()
	}
}

// CancelPrefix 取消所有以 prefix 开头的任务，返回取消数量。
func (r *Tasks) CancelPrefix(prefix string) int {
	r.mu.Lock()
	var victims []*Task
	for key, t := range r.tasks {
		if strings.HasPrefix(key, prefix) {
			victims = append(victims, t)
			delete(r.tasks, key)
		}
	}
	r.mu.Unlock()
	for _, t := range victims {
		t.Cancel()
	}
	return len(victims)
}

// CancelAll 取消全部任务。
func (r *Tasks) CancelAll() { r.CancelPrefix("") }

// Active 返回仍在运行的任务键，已排序。
func (r *Tasks) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.tasks))
	for key := range r.tasks {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

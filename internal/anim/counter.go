package anim

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// CountUp 返回线性递增动画在 elapsed 时刻的值。
func CountUp(target int, elapsed, duration time.Duration) int {
	if duration <= 0 || elapsed >= duration {
		return target
	}
	if elapsed <= 0 {
		return 0
	}
	return int(float64(target) * float64(elapsed) / float64(duration))
}

// Stagger 返回第 i 个元素的错峰延迟。
func Stagger(i int, stride time.Duration) time.Duration {
	if i < 0 {
		return 0
	}
	return time.Duration(i) * stride
}

// SplitNumber 把 "500+"、"95%" 这类统计值拆成数字与后缀；没有前导数字时 ok 为 false。
func SplitNumber(s string) (n int, suffix string, ok bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (unicode.IsDigit(rune(s[end])) || s[end] == ',') {
		end++
	}
	digits := strings.ReplaceAll(s[:end], ",", "")
	if digits == "" {
		return 0, s, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, s, false
	}
	return n, s[end:], true
}

// CountUpTask 启动一个逐帧递增任务，sink 返回 false 表示目标节点已不存在。
func CountUpTask(r *Tasks, key string, delay time.Duration, target int, duration time.Duration, sink func(v int) bool) *Task {
	var start time.Time
	started := false
	return r.Start(key, delay, func() (time.Duration, bool) {
		now := r.sched.Now()
		if !started {
			start = now
			started = true
		}
		elapsed := now.Sub(start)
		v := CountUp(target, elapsed, duration)
		if !sink(v) {
			return 0, false
		}
		if v >= target && elapsed >= duration {
			return 0, false
		}
		return FrameInterval, true
	})
}

// TypewriterTask 以状态机驱动一个无限循环的打字机任务。
func TypewriterTask(r *Tasks, key string, tw *Typewriter, sink func(text string) bool) *Task {
	return r.Start(key, 0, func() (time.Duration, bool) {
		text, next := tw.Step()
		if !sink(text) {
			return 0, false
		}
		return next, true
	})
}

// RevealTask 在 delay 之后执行一次 sink。
func RevealTask(r *Tasks, key string, delay time.Duration, sink func() bool) *Task {
	return r.Start(key, delay, func() (time.Duration, bool) {
		sink()
		return 0, false
	})
}

package anim

import "time"

// TypewriterState 是打字机状态机的状态。
type TypewriterState int

const (
	Typing TypewriterState = iota
	PausedFull
	Deleting
	PausedEmpty
)

func (s TypewriterState) String() string {
	switch s {
	case Typing:
		return "typing"
	case PausedFull:
		return "paused_full"
	case Deleting:
		return "deleting"
	case PausedEmpty:
		return "paused_empty"
	}
	return "unknown"
}

// Typewriter 循环打出并删除一组标题：
// Typing → PausedFull → Deleting → PausedEmpty → Typing(下一个标题)。
type Typewriter struct {
	titles [][]rune
	title  int
	chars  int
	state  TypewriterState
}

// NewTypewriter 构造状态机；titles 为空时使用 fallback。
func NewTypewriter(titles []string, fallback []string) *Typewriter {
	src := make([]string, 0, len(titles))
	for _, t := range titles {
		if t != "" {
			src = append(src, t)
		}
	}
	if len(src) == 0 {
		src = fallback
	}
	tw := &Typewriter{state: Typing}
	for _, t := range src {
		tw.titles = append(tw.titles, []rune(t))
	}
	return tw
}

// State 返回当前状态。
func (t *Typewriter) State() TypewriterState { return t.state }

// Title 返回当前标题。
func (t *Typewriter) Title() string {
	if len(t.titles) == 0 {
		return ""
	}
	return string(t.titles[t.title])
}

// Step 推进一步，返回应显示的文字以及到下一步的延迟。
func (t *Typewriter) Step() (string, time.Duration) {
	if len(t.titles) == 0 {
		return "", PauseEmpty
	}
	current := t.titles[t.title]

	switch t.state {
	case PausedEmpty:
		t.title = (t.title + 1) % len(t.titles)
		current = t.titles[t.title]
		t.chars = 0
		t.state = Typing
		fallthrough
	case Typing:
		if t.chars < len(current) {
			t.chars++
		}
		if t.chars >= len(current) {
			t.state = PausedFull
			return string(current), PauseFull
		}
		return string(current[:t.chars]), TypeDelay
	case PausedFull:
		t.state = Deleting
		fallthrough
	case Deleting:
		if t.chars > 0 {
			t.chars--
		}
		if t.chars == 0 {
			t.state = PausedEmpty
			return "", PauseEmpty
		}
		return string(current[:t.chars]), DeleteDelay
	}
	return string(current[:t.chars]), TypeDelay
}

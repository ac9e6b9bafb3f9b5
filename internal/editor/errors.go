package editor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownSection  = errors.New("unknown section")
	ErrNotListSection  = errors.New("section is not a list")
	ErrUnknownItem     = errors.New("unknown item")
	ErrUnknownCategory = errors.New("unknown skill category")
	ErrUnknownTarget   = errors.New("unknown image target")
	ErrInvalidTheme    = errors.New("invalid theme")
)

// MissingFieldError 表示表单缺少某个必填字段，该分区不能保存。
type MissingFieldError struct {
	Section string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %s.%s", e.Section, e.Field)
}

// InvalidFieldError 表示字段值无法解析（例如数字字段填了文字）。
type InvalidFieldError struct {
	Section string
	Field   string
	Err     error
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %s.%s: %v", e.Section, e.Field, e.Err)
}

func (e *InvalidFieldError) Unwrap() error { return e.Err }

// CollectError 汇总一次收集中的全部字段错误。
type CollectError struct {
	Errors []error
}

func (e *CollectError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return "collect form: " + strings.Join(msgs, "; ")
}

func (e *CollectError) Unwrap() []error { return e.Errors }

// Sections 返回出错的分区名，去重并保持首次出现的顺序。
func (e *CollectError) Sections() []string {
	seen := map[string]bool{}
	var out []string
	for _, err := range e.Errors {
		name := errorSection(err)
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func errorSection(err error) string {
	var missing *MissingFieldError
	if errors.As(err, &missing) {
		return missing.Section
	}
	var invalid *InvalidFieldError
	if errors.As(err, &invalid) {
		return invalid.Section
	}
	return ""
}

package store

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable 表示无法连接或认证到内容表，调用方应回退到默认内容。
var ErrStoreUnavailable = errors.New("content store unavailable")

// StoreError 表示某次具体的读写失败，保存时按分区上报。
type StoreError struct {
	Section string
	Op      string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s section %q: %v", e.Op, e.Section, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsUnavailable 判断错误链中是否含有 ErrStoreUnavailable。
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

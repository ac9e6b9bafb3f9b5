package errcode

import "net/http"

// 错误码约定：
// - 0：无错误
// - 4xxx：可恢复的错误，编辑状态保持不变
// - 5xxx：系统错误
const (
	OK               = 0
	ResourceMissing  = 4004
	UploadRejected   = 4150
	ValidationFailed = 4220
	SystemError      = 5000
	StoreUnavailable = 5030
)

// HTTPStatus 返回错误码对应的 HTTP 状态。
func HTTPStatus(code int) int {
	switch code {
	case OK:
		return http.StatusOK
	case ResourceMissing:
		return http.StatusNotFound
	case UploadRejected, ValidationFailed:
		return http.StatusUnprocessableEntity
	case StoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Package upload 校验编辑器上传的图片并转换为 data URI。
package upload

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dutchcoders/go-clamd"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes 是单个图片的默认上限。
const DefaultMaxBytes int64 = 5 << 20

// 拒绝原因。
const (
	ReasonEmpty       = "empty"
	ReasonTooLarge    = "too_large"
	ReasonUnsupported = "unsupported_type"
	ReasonMalware     = "malware"
)

// AllowedTypes 是允许内联的图片类型。
var AllowedTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp", "image/svg+xml"}

// ValidationWarning 表示上传被拒绝；被拒绝的上传不会产生任何修改。
type ValidationWarning struct {
	Reason string
	Detail string
}

func (w *ValidationWarning) Error() string {
	if w.Detail == "" {
		return "upload rejected: " + w.Reason
	}
	return fmt.Sprintf("upload rejected: %s (%s)", w.Reason, w.Detail)
}

// IsValidationWarning 判断 err 是否为上传校验失败。
func IsValidationWarning(err error) bool {
	var w *ValidationWarning
	return errors.As(err, &w)
}

// Scanner 扫描上传内容。发现恶意内容时返回 *ValidationWarning，扫描本身失败时返回其它错误。
type Scanner interface {
	Scan(r io.Reader) error
}

// ClamdScanner 通过 clamd 扫描文件流。
type ClamdScanner struct {
	addr string
}

func NewClamdScanner(addr string) *ClamdScanner {
	return &ClamdScanner{addr: addr}
}

func (s *ClamdScanner) Scan(r io.Reader) error {
	client := clamd.NewClamd(s.addr)
	abort := make(chan bool)
	defer close(abort)

	results, err := client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("clamd scan: %w", err)
	}
	for result := range results {
		switch result.Status {
		case clamd.RES_OK:
		case clamd.RES_FOUND:
			return &ValidationWarning{Reason: ReasonMalware, Detail: result.Description}
		default:
			return fmt.Errorf("clamd scan: %s %s", result.Status, result.Description)
		}
	}
	return nil
}

// Validator 负责大小、类型与病毒检查。
type Validator struct {
	maxBytes int64
	allowed  []string
	scanner  Scanner
}

// NewValidator 构造校验器；scanner 为空时跳过病毒扫描。
func NewValidator(maxBytes int64, scanner Scanner) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Validator{maxBytes: maxBytes, allowed: AllowedTypes, scanner: scanner}
}

// MaxBytes 返回大小上限。
func (v *Validator) MaxBytes() int64 { return v.maxBytes }

// Result 是一次成功的转换。
type Result struct {
	DataURI string `json:"dataUri"`
	MIME    string `json:"mime"`
	Size    int    `json:"size"`
}

// ToDataURI 读取 r 的全部内容，校验通过后编码为 data:<mime>;base64,...。
func (v *Validator) ToDataURI(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, v.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, &ValidationWarning{Reason: ReasonEmpty}
	}
	if int64(len(data)) > v.maxBytes {
		return nil, &ValidationWarning{Reason: ReasonTooLarge, Detail: fmt.Sprintf("limit %d bytes", v.maxBytes)}
	}

	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), v.allowed...) {
		return nil, &ValidationWarning{Reason: ReasonUnsupported, Detail: mime.String()}
	}

	if v.scanner != nil {
		if err := v.scanner.Scan(bytes.NewReader(data)); err != nil {
			if IsValidationWarning(err) {
				return nil, err
			}
			return nil, fmt.Errorf("scan upload: %w", err)
		}
	}

	base := strings.SplitN(mime.String(), ";", 2)[0]
	return &Result{
		DataURI: "data:" + base + ";base64," + base64.StdEncoding.EncodeToString(data),
		MIME:    base,
		Size:    len(data),
	}, nil
}

// IsDataURI 判断字符串是否为图片 data URI。
func IsDataURI(s string) bool {
	head, _, ok := strings.Cut(s, ",")
	return ok && strings.HasPrefix(head, "data:image/") && strings.HasSuffix(head, ";base64")
}

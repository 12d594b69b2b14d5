package request

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTargetLine 输入在请求行之前结束
	ErrNoTargetLine = errors.New("no request line")
	// ErrRequestTargetBadlyFormated 请求行不符合 METHOD SP TARGET SP VERSION
	ErrRequestTargetBadlyFormated = errors.New("request line badly formatted")
	// ErrRequestHeaderBadlyFormated 头部行不符合 name: value
	ErrRequestHeaderBadlyFormated = errors.New("request header badly formatted")
)

// HeaderError 头部行格式错误
type HeaderError struct {
	Line string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("%s: %q", ErrRequestHeaderBadlyFormated, e.Line)
}

// Is 使 errors.Is(err, ErrRequestHeaderBadlyFormated) 成立
func (e *HeaderError) Is(target error) bool {
	return target == ErrRequestHeaderBadlyFormated
}

// Kind 返回错误分类，用于指标标签与日志
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNoTargetLine):
		return "no_target_line"
	case errors.Is(err, ErrRequestTargetBadlyFormated):
		return "bad_request_line"
	case errors.Is(err, ErrRequestHeaderBadlyFormated):
		return "bad_header"
	default:
		return "read_error"
	}
}

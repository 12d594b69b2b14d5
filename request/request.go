package request

import (
	"net/textproto"
	"strings"
)

// Version HTTP 协议版本
type Version uint8

const (
	Version11 Version = iota + 1
	Version2
	Version3
)

// String 返回版本号，如 "1.1"、"2.0"
func (v Version) String() string {
	switch v {
	case Version11:
		return "1.1"
	case Version2:
		return "2.0"
	case Version3:
		return "3.0"
	default:
		return "unknown"
	}
}

// Proto 返回请求行中的版本字面量
func (v Version) Proto() string {
	switch v {
	case Version11:
		return "HTTP/1.1"
	case Version2:
		return "HTTP/2"
	case Version3:
		return "HTTP/3"
	default:
		return ""
	}
}

// ParseVersion 按字面量匹配版本
func ParseVersion(proto string) (Version, bool) {
	switch proto {
	case "HTTP/1.1":
		return Version11, true
	case "HTTP/2":
		return Version2, true
	case "HTTP/3":
		return Version3, true
	default:
		return 0, false
	}
}

// Header 请求头部，键均为小写
type Header map[string]string

// Get 大小写不敏感地读取头部
func (h Header) Get(name string) string {
	return h[strings.ToLower(name)]
}

// Lookup 大小写不敏感地读取头部并报告是否存在
func (h Header) Lookup(name string) (string, bool) {
	v, ok := h[strings.ToLower(name)]
	return v, ok
}

// Set 写入头部，覆盖同名的旧值
func (h Header) Set(name, value string) {
	h[strings.ToLower(name)] = value
}

// Canonical 返回规范化的头部名称，如 content-type -> Content-Type
func Canonical(name string) string {
	return textproto.CanonicalMIMEHeaderKey(name)
}

// Request 已解析的请求头
type Request struct {
	Method  string  `json:"method"`
	Target  string  `json:"target"`
	Version Version `json:"version"`
	Header  Header  `json:"headers"`
}

// Proto 返回请求行中的版本字面量
func (r *Request) Proto() string {
	return r.Version.Proto()
}

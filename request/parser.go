package request

import (
	"fmt"
	"iter"
	"strings"
)

// LineSource 可按行迭代的输入，例如缓冲连接
type LineSource interface {
	Lines() iter.Seq2[string, error]
}

// Parse 从 src 解析请求头
func Parse(src LineSource) (*Request, error) {
	return ParseLines(src.Lines())
}

// ParseLines 从行序列解析请求头，在第一个空行处停止，不再读取后续行。
//
// 头部行格式错误时返回 *HeaderError，同时返回已解析头部的部分请求。
func ParseLines(lines iter.Seq2[string, error]) (*Request, error) {
	next, stop := iter.Pull2(lines)
	defer stop()

	line, err, ok := next()
	if !ok {
		return nil, ErrNoTargetLine
	}
	if err != nil {
		return nil, fmt.Errorf("read request line: %w", err)
	}

	req, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	for {
		line, err, ok := next()
		if !ok {
			// 流在空行之前结束，保留已读取的头部
			return req, nil
		}
		if err != nil {
			return req, fmt.Errorf("read header: %w", err)
		}
		if line == "" {
			return req, nil
		}

		name, value, ok := parseHeader(line)
		if !ok {
			return req, &HeaderError{Line: line}
		}
		req.Header[strings.ToLower(name)] = value
	}
}

func parseRequestLine(line string) (*Request, error) {
	method, rest, ok := cutSpaces(line)
	if !ok || !isMethod(method) {
		return nil, ErrRequestTargetBadlyFormated
	}
	target, proto, ok := cutSpaces(rest)
	if !ok || target == "" {
		return nil, ErrRequestTargetBadlyFormated
	}
	version, ok := ParseVersion(proto)
	if !ok {
		return nil, ErrRequestTargetBadlyFormated
	}

	return &Request{
		Method:  method,
		Target:  target,
		Version: version,
		Header:  make(Header),
	}, nil
}

// cutSpaces 在第一段空格处切分，空格可以连续出现
func cutSpaces(s string) (before, after string, ok bool) {
	i := strings.IndexByte(s, ' ')
	if i <= 0 {
		return "", "", false
	}
	after = strings.TrimLeft(s[i:], " ")
	if after == "" {
		return "", "", false
	}
	return s[:i], after, true
}

func isMethod(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func parseHeader(line string) (name, value string, ok bool) {
	i := 0
	for i < len(line) && isNameByte(line[i]) {
		i++
	}
	if i == 0 || i == len(line) || line[i] != ':' {
		return "", "", false
	}
	value = line[i+1:]
	value = strings.TrimPrefix(value, " ")
	return line[:i], value, true
}

func isNameByte(c byte) bool {
	return c == '-' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

// Package fixtures holds raw request heads used across engine tests.
package fixtures

import (
	"fmt"
	"strings"
)

// 常用请求头
const (
	GetRoot = "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"

	GetWithHeaders = "GET /index.html HTTP/1.1\r\n" +
		"Host: localhost\r\n" +
		"User-Agent: fixture\r\n" +
		"Accept: */*\r\n" +
		"\r\n"

	// 请求行缺少版本
	BadRequestLine = "GET /\r\nHost: localhost\r\n\r\n"

	// 头部缺少冒号
	BadHeader = "GET / HTTP/1.1\r\nHost localhost\r\n\r\n"

	// 不支持的版本
	BadVersion = "GET / HTTP/1.0\r\n\r\n"
)

// Post 构造带 content-length 与请求体的 POST 请求
func Post(target, body string) string {
	return fmt.Sprintf("POST %s HTTP/1.1\r\nHost: localhost\r\nContent-Length: %d\r\n\r\n%s",
		target, len(body), body)
}

// Get 构造带任意头部的 GET 请求，headers 形如 "Name: value"
func Get(target string, headers ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.1\r\n", target)
	for _, h := range headers {
		b.WriteString(h)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return b.String()
}

// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/hardwire-http/hardwire/request"
)

// ErrMalformedResponse indicates that the bytes read from the
// connection could not be parsed as an HTTP/1.1 response because the
// status line was missing or unintelligible.
var ErrMalformedResponse = errors.New("hardwire/wire: malformed response")

// BuildRequest serializes a request plan into HTTP/1.1 wire format.
//
// The serialized form is the request line, a Host header, the plan's
// headers, a Content-Length header when the body is non-empty, and a
// Connection header reflecting keepAlive, followed by a blank line and
// the body. Because the plan's Header is a map, its entries are
// written in sorted key order so the output is deterministic.
//
// The Host, Content-Length, and Connection headers are owned by the
// codec: same-named entries in the plan's Header are ignored. Header
// entries whose name or value fails RFC 7230 validation are skipped
// rather than corrupting the request framing.
func BuildRequest(p *request.Plan, u request.URLInfo, keepAlive bool) []byte {
	var b bytes.Buffer

	method := p.Method
	if method == "" {
		method = "GET"
	}
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", method, u.Path)

	host := p.Host
	if host == "" {
		host = u.Host
	}
	fmt.Fprintf(&b, "Host: %s\r\n", host)

	keys := make([]string, 0, len(p.Header))
	for k := range p.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if reservedHeader(k) {
			continue
		}
		if !httpguts.ValidHeaderFieldName(k) {
			continue
		}
		for _, v := range p.Header.Values(k) {
			if !httpguts.ValidHeaderFieldValue(v) {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\r\n", k, v)
		}
	}

	if len(p.Body) > 0 {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(p.Body))
	}

	if keepAlive && !p.Close {
		b.WriteString("Connection: keep-alive\r\n")
	} else {
		b.WriteString("Connection: close\r\n")
	}

	b.WriteString("\r\n")
	b.Write(p.Body)

	return b.Bytes()
}

func reservedHeader(k string) bool {
	switch http.CanonicalHeaderKey(k) {
	case "Host", "Content-Length", "Connection":
		return true
	}
	return false
}

// ParseResponse parses a complete raw HTTP/1.1 response byte sequence.
//
// The first line must be "HTTP/version status reason"; subsequent
// lines up to the first blank line are headers, split on the first
// colon with surrounding whitespace trimmed, and duplicate keys
// overwriting earlier values. Everything after the blank line is the
// body, verbatim: there is no chunked decoding and no Content-Length
// truncation, because the transport frames responses by reading the
// connection to EOF.
func ParseResponse(raw []byte) (*request.Response, error) {
	head, body := splitHead(raw)

	lines := strings.Split(string(head), "\n")
	if len(lines) == 0 {
		return nil, ErrMalformedResponse
	}

	status := strings.TrimRight(lines[0], "\r")
	resp, err := parseStatusLine(status)
	if err != nil {
		return nil, err
	}

	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		key := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		if key == "" {
			continue
		}
		resp.Header.Set(key, value)
	}

	resp.Body = body
	return resp, nil
}

// ResponseComplete reports whether raw already holds a complete
// response to a request made with the given method. The response is
// complete once the head has ended and the body has reached the
// declared Content-Length, or immediately at the end of the head for
// responses that carry no body at all: answers to HEAD, informational
// statuses, 204, and 304 (RFC 7230 section 3.3.3), whose
// Content-Length describes a body the peer will not send.
//
// A body-bearing response without a Content-Length header is never
// reported complete; its only framing signal is the peer closing the
// connection, so the reader must continue to EOF. The transport uses
// ResponseComplete to stop reading early on keep-alive connections,
// which never deliver an EOF while healthy.
func ResponseComplete(method string, raw []byte) bool {
	headLen := bytes.Index(raw, []byte("\r\n\r\n"))
	sepLen := 4
	if headLen < 0 {
		headLen = bytes.Index(raw, []byte("\n\n"))
		sepLen = 2
	}
	if headLen < 0 {
		return false
	}
	head := raw[:headLen]
	if bodilessResponse(method, head) {
		return true
	}
	cl := contentLength(head)
	if cl < 0 {
		return false
	}
	return len(raw)-headLen-sepLen >= cl
}

// bodilessResponse reports whether the head announces a response that
// never carries a body, regardless of its Content-Length header.
func bodilessResponse(method string, head []byte) bool {
	if strings.EqualFold(method, http.MethodHead) {
		return true
	}
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	resp, err := parseStatusLine(strings.TrimRight(line, "\r"))
	if err != nil {
		return false
	}
	return resp.StatusCode < 200 || resp.StatusCode == 204 || resp.StatusCode == 304
}

// contentLength extracts the Content-Length value from a response
// head, or -1 when absent or unparsable.
func contentLength(head []byte) int {
	for _, line := range strings.Split(string(head), "\n") {
		line = strings.TrimRight(line, "\r")
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(line[:colon]), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(line[colon+1:]))
		if err != nil || n < 0 {
			return -1
		}
		return n
	}
	return -1
}

// splitHead divides a raw response into its head (status line plus
// headers) and body at the first blank line.
func splitHead(raw []byte) (head, body []byte) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return raw[:i], raw[i+4:]
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i], raw[i+2:]
	}
	return raw, nil
}

func parseStatusLine(line string) (*request.Response, error) {
	if !strings.HasPrefix(line, "HTTP/") {
		return nil, ErrMalformedResponse
	}
	rest := line[strings.IndexByte(line, ' ')+1:]
	if rest == line {
		return nil, ErrMalformedResponse
	}
	codeStr, reason := rest, ""
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		codeStr, reason = rest[:i], rest[i+1:]
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil || code < 100 || code > 999 {
		return nil, ErrMalformedResponse
	}
	return &request.Response{
		StatusCode: code,
		Reason:     reason,
		Header:     make(http.Header),
	}, nil
}

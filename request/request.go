// Package request turns the bytes read from a client into an Outcome.
package request

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"unicode/utf8"

	"github.com/hodgesds/epollweb/response"
)

// MethodGet is the only method the server implements.
const MethodGet = "GET"

// requestLine matches the request line anywhere in the buffer. The minor
// version is captured but never changes the response.
var requestLine = regexp.MustCompile(`(.*) (.*) HTTP/1\.([0-1])\r\n`)

// Outcome is the result of resolving a request: either StatusOK with the
// file contents in Body, or one of the error statuses with no Body.
type Outcome struct {
	Status int
	Body   []byte

	// Method and Path are set when the request line was parsed.
	Method string
	Path   string
}

// Serve returns a StatusOK outcome for body.
func Serve(body []byte) Outcome {
	return Outcome{Status: response.StatusOK, Body: body}
}

// Fail returns an outcome for an error status.
func Fail(status int) Outcome {
	return Outcome{Status: status}
}

// Response builds the bytes to send for the outcome.
func (o Outcome) Response() ([]byte, error) {
	return response.Build(o.Status, o.Body)
}

// Resolve parses raw as an HTTP/1.x request line and reads the requested
// file from root. Any method other than GET is not implemented (501, not
// 405). Every open or read failure is reported as not found.
//
// The version must be literally "HTTP/1.0" or "HTTP/1.1", so "HTTP/1x0" is
// a bad request. The path goes through FilePath, which means "index.html"
// and "/index.html" name the same file.
func Resolve(raw []byte, root string) Outcome {
	if !utf8.Valid(raw) {
		return Fail(response.StatusBadRequest)
	}
	m := requestLine.FindSubmatch(raw)
	if m == nil {
		return Fail(response.StatusBadRequest)
	}
	method, reqPath := string(m[1]), string(m[2])

	if method != MethodGet {
		o := Fail(response.StatusNotImplemented)
		o.Method, o.Path = method, reqPath
		return o
	}

	b, err := os.ReadFile(FilePath(root, reqPath))
	if err != nil {
		o := Fail(response.StatusNotFound)
		o.Method, o.Path = method, reqPath
		return o
	}
	o := Serve(b)
	o.Method, o.Path = method, reqPath
	return o
}

// FilePath maps a request path to a file under root. The path is cleaned
// as an absolute slash separated path first, so ".." elements never climb
// above root.
func FilePath(root, reqPath string) string {
	clean := path.Clean("/" + reqPath)
	return filepath.Join(root, filepath.FromSlash(clean))
}

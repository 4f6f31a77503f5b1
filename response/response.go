// Package response builds the raw HTTP/1.0 responses sent by the server.
package response

import (
	"github.com/pkg/errors"
)

const (
	// StatusOK is returned along with the requested file.
	StatusOK = 200
	// StatusBadRequest is returned for a malformed request line.
	StatusBadRequest = 400
	// StatusNotFound is returned when the requested file can not be read.
	StatusNotFound = 404
	// StatusNotImplemented is returned for any method other than GET.
	StatusNotImplemented = 501
)

var (
	// ErrUnsupportedStatus is returned when a status has no known response.
	ErrUnsupportedStatus = errors.New("unsupported status code")
)

// The 200 header uses a lower case "server" field, the error headers do
// not. Clients have seen these exact bytes so they are kept as is.
const (
	okHeader             = "HTTP/1.0 200 OK\r\nserver: mio webserver\r\n\r\n"
	badRequestHeader     = "HTTP/1.0 400 Bad Request\r\nServer: mio webserver\r\n\r\n"
	notFoundHeader       = "HTTP/1.0 404 Not Found\r\nServer: mio webserver\r\n\r\n"
	notImplementedHeader = "HTTP/1.0 501 Not Implemented\r\nServer: mio webserver\r\n\r\n"
)

// Build returns the complete response for a status. The payload is only
// used for StatusOK and is appended verbatim after the header. There is no
// Content-Length, the end of the body is signaled by closing the
// connection.
func Build(status int, payload []byte) ([]byte, error) {
	switch status {
	case StatusOK:
		b := make([]byte, 0, len(okHeader)+len(payload))
		b = append(b, okHeader...)
		return append(b, payload...), nil
	case StatusBadRequest:
		return []byte(badRequestHeader), nil
	case StatusNotFound:
		return []byte(notFoundHeader), nil
	case StatusNotImplemented:
		return []byte(notImplementedHeader), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedStatus, "status %d", status)
	}
}

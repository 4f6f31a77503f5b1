package epollweb

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hodgesds/epollweb/request"
)

// WebRoot is the document root relative to the working directory.
const WebRoot = "/webroot"

// Handler builds the response for the bytes read from a connection. The
// raw slice is reused after Serve returns so it must not be retained.
type Handler interface {
	Serve(raw []byte) ([]byte, error)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(raw []byte) ([]byte, error)

// Serve calls f(raw).
func (f HandlerFunc) Serve(raw []byte) ([]byte, error) {
	return f(raw)
}

// StaticHandler serves files from root.
func StaticHandler(root string, log logrus.FieldLogger) Handler {
	return HandlerFunc(func(raw []byte) ([]byte, error) {
		o := request.Resolve(raw, root)
		log.WithFields(logrus.Fields{
			"method": o.Method,
			"path":   o.Path,
			"status": o.Status,
		}).Debug("request resolved")
		return o.Response()
	})
}

// DefaultDocumentRoot returns WebRoot under the current working directory.
func DefaultDocumentRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to get working directory")
	}
	return wd + WebRoot, nil
}

package epollweb

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LogLevelEnv is the environment variable read for the log level.
const LogLevelEnv = "LOG_LEVEL"

// NewLogger returns a text logger writing to w at the level named by
// LogLevelEnv, or info when it is unset or invalid.
func NewLogger(w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if lvl, err := logrus.ParseLevel(os.Getenv(LogLevelEnv)); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

package sim

import (
	"io"

	"github.com/sirupsen/logrus"
)

// nopLogger returns a logger that discards everything. Actors use it when
// no logger is injected.
func nopLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

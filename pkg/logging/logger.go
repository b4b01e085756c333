package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// InitLogger sets up the process-wide logger: human-readable text in debug
// mode, JSON otherwise.
func InitLogger(debug bool) {
	Log = New(debug)
}

// New builds a logger for injection into library components.
func New(debug bool) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stdout

	if debug {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

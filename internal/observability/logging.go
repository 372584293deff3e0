package observability

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var loggingOnce sync.Once

// ConfigureLogging sets up the standard logrus logger: JSON output, level and optional file.
func ConfigureLogging(level, file string) error {
	var err error

	loggingOnce.Do(func() {
		logrus.SetFormatter(&logrus.JSONFormatter{})

		if file != "" {
			f, errOpen := os.OpenFile(file, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0660) //#nosec G302 -- Log files should be rw-rw-r--
			if errOpen != nil {
				err = errOpen
				return
			}
			logrus.SetOutput(f)
			logrus.Infof("Set output file to %s", file)
		}

		if level != "" {
			lvl, errParse := logrus.ParseLevel(level)
			if errParse != nil {
				err = errParse
				return
			}
			logrus.SetLevel(lvl)
			logrus.Debug("Set log level to: " + logrus.GetLevel().String())
		}
	})

	return err
}

// Component returns a logger tagged with the component name.
func Component(name string) logrus.FieldLogger {
	return logrus.WithField("component", name)
}

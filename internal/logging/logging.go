package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nikolayk812/ecart-demo/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the process logger. The returned closer releases the log file, if any.
func New(cfg config.LoggerConfig) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logrus.ParseLevel: %w", err)
	}

	log := logrus.New()
	log.Level = level
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout

	var closer io.Closer = nopCloser{}
	if cfg.FileEnable {
		rotated := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
		}
		log.Out = io.MultiWriter(os.Stdout, rotated)
		closer = rotated
	}

	return log, closer, nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

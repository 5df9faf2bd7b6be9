package logging

import (
	"os"

	lfshook "github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"fleettrack/internal/config"
)

// NewLogger builds the process-wide structured logger. Console output is
// always on; when a log file is configured, entries are duplicated there
// through a size-rotated writer.
func NewLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}

		log.AddHook(lfshook.NewHook(
			lfshook.WriterMap{
				logrus.DebugLevel: rotated,
				logrus.InfoLevel:  rotated,
				logrus.WarnLevel:  rotated,
				logrus.ErrorLevel: rotated,
				logrus.FatalLevel: rotated,
				logrus.PanicLevel: rotated,
			},
			&logrus.JSONFormatter{},
		))
	}

	return log
}

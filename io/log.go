package io

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggersMu sync.Mutex
	loggers   = map[string]*logrus.Logger{}
	level     = logrus.InfoLevel
	out       io.Writer = os.Stderr
)

// NamedLogger creates (or returns the existing) named package logger.
func NamedLogger(name string) *logrus.Logger {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[name]; ok {
		return l
	}

	l := &logrus.Logger{
		Out: out,
		Formatter: &CustomTextFormatter{
			TextFormatter: logrus.TextFormatter{
				FullTimestamp:    true,
				CallerPrettyfier: hideCaller,
			},
			name: name,
		},
		Hooks:        make(logrus.LevelHooks),
		Level:        level,
		ReportCaller: true,
	}
	loggers[name] = l
	return l
}

// SetLevel sets the level of every named logger, including ones created
// later.
func SetLevel(lvl logrus.Level) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	level = lvl
	for _, l := range loggers {
		l.SetLevel(lvl)
	}
}

// SetOutput redirects every named logger, including ones created later.
func SetOutput(w io.Writer) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	out = w
	for _, l := range loggers {
		l.SetOutput(w)
	}
}

// CustomTextFormatter prefixes messages with the logger name and the calling
// file and line.
type CustomTextFormatter struct {
	logrus.TextFormatter
	name string
}

// Format renders a single log entry.
func (f *CustomTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry.HasCaller() {
		entry.Message = fmt.Sprintf(
			"[%s][%s:%03d] %s", f.name, path.Base(entry.Caller.File),
			entry.Caller.Line, entry.Message,
		)
	} else {
		entry.Message = fmt.Sprintf("[%s] %s", f.name, entry.Message)
	}
	return f.TextFormatter.Format(entry)
}

// hideCaller keeps logrus from printing the caller a second time as fields.
func hideCaller(*runtime.Frame) (function, file string) { return "", "" }

// Copyright (C) 2019-2021 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

/*
Package logging wraps logrus behind the Logger interface used by every
dispatcher component.

	logging.Base().Info("dispatcher started")

	log := logging.NewLogger()
	log.With("batch", id).Warnf("submission failed: %v", err)
*/
package logging

import (
	"io"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level refers to the log logging level
type Level uint32

const (
	// Panic Level level, highest level of severity. Logs and then calls panic.
	Panic Level = iota
	// Fatal Level level. Logs and then calls `os.Exit(1)`.
	Fatal
	// Error Level level. Used for errors that should definitely be noted.
	Error
	// Warn Level level. Non-critical entries that deserve eyes.
	Warn
	// Info Level level. General operational entries.
	Info
	// Debug Level level. Very verbose logging.
	Debug
)

const stackPrefix = "[Stack]"

var (
	baseLogger Logger
	once       sync.Once
)

// Init needs to be called to ensure our logging has been initialized
func Init() {
	once.Do(func() {
		// stderr, warnings and above, until the daemon applies its config
		baseLogger = NewLogger()
		baseLogger.SetLevel(Warn)
	})
}

func init() {
	Init()
}

// Fields maps logrus fields
type Fields = logrus.Fields

// Logger is the interface for loggers.
type Logger interface {
	Debug(...interface{})
	Debugf(string, ...interface{})

	Info(...interface{})
	Infof(string, ...interface{})

	Warn(...interface{})
	Warnf(string, ...interface{})

	// Error and Errorf also log the calling goroutine's stack.
	Error(...interface{})
	Errorf(string, ...interface{})

	Fatal(...interface{})
	Fatalf(string, ...interface{})

	Panic(...interface{})
	Panicf(string, ...interface{})

	// With adds one key-value to subsequent entries
	With(key string, value interface{}) Logger

	// WithFields adds all of fields to subsequent entries
	WithFields(Fields) Logger

	SetLevel(Level)
	GetLevel() Level
	IsLevelEnabled(level Level) bool

	SetOutput(io.Writer)
	SetJSONFormatter()

	AddHook(hook logrus.Hook)

	// source adds file, line and function fields to the event
	source() *logrus.Entry
}

type logger struct {
	entry *logrus.Entry
}

// Base returns the default Logger
func Base() Logger {
	return baseLogger
}

// NewLogger returns a new Logger writing text to stderr at Info level.
func NewLogger() Logger {
	l := logrus.New()
	if tf, ok := l.Formatter.(*logrus.TextFormatter); ok {
		tf.TimestampFormat = "2006-01-02T15:04:05.000000 -0700"
	}
	return logger{entry: logrus.NewEntry(l)}
}

func (l logger) With(key string, value interface{}) Logger {
	return logger{l.entry.WithField(key, value)}
}

func (l logger) WithFields(fields Fields) Logger {
	return logger{l.entry.WithFields(fields)}
}

func (l logger) Debug(args ...interface{}) {
	l.source().Debug(args...)
}

func (l logger) Debugf(format string, args ...interface{}) {
	l.source().Debugf(format, args...)
}

func (l logger) Info(args ...interface{}) {
	l.source().Info(args...)
}

func (l logger) Infof(format string, args ...interface{}) {
	l.source().Infof(format, args...)
}

func (l logger) Warn(args ...interface{}) {
	l.source().Warn(args...)
}

func (l logger) Warnf(format string, args ...interface{}) {
	l.source().Warnf(format, args...)
}

func (l logger) Error(args ...interface{}) {
	l.source().Errorln(stackPrefix, string(debug.Stack()))
	l.source().Error(args...)
}

func (l logger) Errorf(format string, args ...interface{}) {
	l.source().Errorln(stackPrefix, string(debug.Stack()))
	l.source().Errorf(format, args...)
}

func (l logger) Fatal(args ...interface{}) {
	l.source().Errorln(stackPrefix, string(debug.Stack()))
	l.source().Fatal(args...)
}

func (l logger) Fatalf(format string, args ...interface{}) {
	l.source().Errorln(stackPrefix, string(debug.Stack()))
	l.source().Fatalf(format, args...)
}

func (l logger) Panic(args ...interface{}) {
	l.source().Errorln(stackPrefix, string(debug.Stack()))
	l.source().Panic(args...)
}

func (l logger) Panicf(format string, args ...interface{}) {
	l.source().Errorln(stackPrefix, string(debug.Stack()))
	l.source().Panicf(format, args...)
}

func (l logger) SetLevel(lvl Level) {
	l.entry.Logger.SetLevel(logrus.Level(lvl))
}

func (l logger) GetLevel() Level {
	return Level(l.entry.Logger.GetLevel())
}

func (l logger) IsLevelEnabled(level Level) bool {
	return l.entry.Logger.IsLevelEnabled(logrus.Level(level))
}

func (l logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}

func (l logger) SetJSONFormatter() {
	l.entry.Logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000000Z07:00"})
}

func (l logger) AddHook(hook logrus.Hook) {
	l.entry.Logger.AddHook(hook)
}

func (l logger) source() *logrus.Entry {
	event := l.entry

	pc, file, line, ok := runtime.Caller(2)
	if !ok {
		return event
	}
	file = file[strings.LastIndex(file, "/")+1:]
	event = event.WithFields(logrus.Fields{
		"file": file,
		"line": line,
	})
	if function := runtime.FuncForPC(pc); function != nil {
		event = event.WithField("function", function.Name())
	}
	return event
}

package jsonlog

import (
	"io"
	"os"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int8

const (
	LevelInfo Level = iota
	LevelError
	LevelFatal
	LevelOff
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return ""
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		// above every level zap emits
		return zapcore.FatalLevel + 1
	}
}

// ParseLevel accepts the names printed by Level.String, case-insensitively.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(s) {
	case "INFO":
		return LevelInfo, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	case "OFF":
		return LevelOff, true
	}
	return LevelInfo, false
}

// Logger writes one JSON object per line. Errors carry a stack trace.
type Logger struct {
	zl   *zap.Logger
	exit func(int)
}

func New(out io.Writer, minLevel Level) *Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(out), minLevel.zapLevel())
	return NewWithCore(core)
}

func NewWithCore(core zapcore.Core) *Logger {
	l := &Logger{exit: os.Exit}
	l.zl = zap.New(core, zap.WithFatalHook(fatalHook{l}))
	return l
}

type fatalHook struct {
	l *Logger
}

func (h fatalHook) OnWrite(*zapcore.CheckedEntry, []zapcore.Field) {
	_ = h.l.zl.Sync()
	h.l.exit(1)
}

func (l *Logger) PrintInfo(message string, properties map[string]string) {
	l.zl.Info(message, propertiesField(properties))
}

func (l *Logger) PrintError(err error, properties map[string]string) {
	l.zl.Error(err.Error(), propertiesField(properties), zap.String("trace", string(debug.Stack())))
}

func (l *Logger) PrintFatal(err error, properties map[string]string) {
	l.zl.Fatal(err.Error(), propertiesField(properties), zap.String("trace", string(debug.Stack())))
}

// Write lets the logger back an http.Server ErrorLog.
func (l *Logger) Write(message []byte) (n int, err error) {
	l.zl.Error(strings.TrimSpace(string(message)))
	return len(message), nil
}

func (l *Logger) Sync() error {
	return l.zl.Sync()
}

func propertiesField(properties map[string]string) zap.Field {
	if len(properties) == 0 {
		return zap.Skip()
	}
	return zap.Any("properties", properties)
}

package core


import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)


type LogLevel uint8


const (
	LOG_SILENT LogLevel = 0
	LOG_FATAL  LogLevel = 1
	LOG_ERROR  LogLevel = 2
	LOG_WARN   LogLevel = 3
	LOG_INFO   LogLevel = 4
	LOG_DEBUG  LogLevel = 5
	LOG_TRACE  LogLevel = 6
)


type Logger interface {
	// Log a message with a printf format for different log levels.
	//
	Fatalf(string, ...interface{})
	Errorf(string, ...interface{})
	Warnf(string, ...interface{})
	Infof(string, ...interface{})
	Debugf(string, ...interface{})
	Tracef(string, ...interface{})

	// Return a new logger with the given `name` appended to this logger
	// current name.
	//
	Extend(string) Logger
}


var globalLogger Logger = &noLogger{}


func SetLogger(logger Logger) {
	globalLogger = logger
}

func Fatalf(format string, args ...interface{}) {
	globalLogger.Fatalf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	globalLogger.Errorf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	globalLogger.Warnf(format, args...)
}

func Infof(format string, args ...interface{}) {
	globalLogger.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	globalLogger.Debugf(format, args...)
}

func Tracef(format string, args ...interface{}) {
	globalLogger.Tracef(format, args...)
}

func ExtendLogger(name string) Logger {
	return globalLogger.Extend(name)
}


type noLogger struct {
}

func NewNoLogger() Logger {
	return &noLogger{}
}

func (this *noLogger) Fatalf(string, ...interface{}) {}
func (this *noLogger) Errorf(string, ...interface{}) {}
func (this *noLogger) Warnf(string, ...interface{}) {}
func (this *noLogger) Infof(string, ...interface{}) {}
func (this *noLogger) Debugf(string, ...interface{}) {}
func (this *noLogger) Tracef(string, ...interface{}) {}
func (this *noLogger) Extend(string) Logger { return this }


// zapLogger routes the printf style calls to a zap sugared logger.
// Zap has no trace level: trace messages go to the debug level and are only
// emitted when the configured level is LOG_TRACE.
//
type zapLogger struct {
	sugar  *zap.SugaredLogger
	level  LogLevel
}

func NewZapLogger(logger *zap.Logger, level LogLevel) Logger {
	return &zapLogger{ logger.Sugar(), level }
}

// Build a human readable zap logger writing on `stream`, in the spirit of
// the zap development configuration.
//
func NewConsoleZap(stream io.Writer, level LogLevel) *zap.Logger {
	var config zapcore.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	var zcore zapcore.Core

	config.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncodeTime = zapcore.TimeEncoderOfLayout(
		"2006-01-02 15:04:05.000")

	zcore = zapcore.NewCore(zapcore.NewConsoleEncoder(config),
		zapcore.AddSync(stream), zapLevel(level))

	return zap.New(zcore)
}

func NewConsoleLogger(stream io.Writer, level LogLevel) Logger {
	return NewZapLogger(NewConsoleZap(stream, level), level)
}

func zapLevel(level LogLevel) zapcore.LevelEnabler {
	switch level {
	case LOG_SILENT:
		return zap.LevelEnablerFunc(func(zapcore.Level) bool {
			return false
		})
	case LOG_FATAL, LOG_ERROR:
		return zapcore.ErrorLevel
	case LOG_WARN:
		return zapcore.WarnLevel
	case LOG_INFO:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// Fatalf logs at the error level with a fatal marker. The process exit is
// left to the caller.
//
func (this *zapLogger) Fatalf(format string, args ...interface{}) {
	if this.level >= LOG_FATAL {
		this.sugar.Errorw(fmt.Sprintf(format, args...), "fatal", true)
	}
}

func (this *zapLogger) Errorf(format string, args ...interface{}) {
	if this.level >= LOG_ERROR {
		this.sugar.Errorf(format, args...)
	}
}

func (this *zapLogger) Warnf(format string, args ...interface{}) {
	if this.level >= LOG_WARN {
		this.sugar.Warnf(format, args...)
	}
}

func (this *zapLogger) Infof(format string, args ...interface{}) {
	if this.level >= LOG_INFO {
		this.sugar.Infof(format, args...)
	}
}

func (this *zapLogger) Debugf(format string, args ...interface{}) {
	if this.level >= LOG_DEBUG {
		this.sugar.Debugf(format, args...)
	}
}

func (this *zapLogger) Tracef(format string, args ...interface{}) {
	if this.level >= LOG_TRACE {
		this.sugar.Debugw(fmt.Sprintf(format, args...), "trace", true)
	}
}

func (this *zapLogger) Extend(name string) Logger {
	return &zapLogger{ this.sugar.Named(name), this.level }
}

func (this *zapLogger) Sync() error {
	return this.sugar.Sync()
}

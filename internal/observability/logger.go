package observability

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLoggerWithService builds the console logger. LOG_LEVEL picks the
// level (ENV=development defaults to debug) and LOG_FORMAT=console switches
// from JSON to human-readable output.
func InitLoggerWithService(serviceName string) (*zap.Logger, error) {
	return InitLoggerWithLevel(logLevel(os.Getenv("LOG_LEVEL"), os.Getenv("ENV")), serviceName)
}

// InitLoggerWithLevel builds a logger at level, named after the service, and
// installs it as the global logger.
func InitLoggerWithLevel(level zapcore.Level, serviceName string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
		cfg.Encoding = "console"
	}

	// field names match what Promtail scrapes
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.NameKey = "logger"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	logger = logger.Named(serviceName).With(zap.String("service", serviceName))
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func logLevel(level, env string) zapcore.Level {
	var l zapcore.Level
	if level != "" && l.UnmarshalText([]byte(strings.ToLower(level))) == nil {
		return l
	}
	switch strings.ToLower(env) {
	case "development", "dev":
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

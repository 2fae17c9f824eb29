package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	jsonZapEncodingStringConstant        = "json"
	consoleZapEncodingStringConstant     = "console"
	standardErrorOutputPathConstant      = "stderr"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// LoggerOptions describes the requested logger configuration.
type LoggerOptions struct {
	Level      LogLevel
	Format     LogFormat
	OutputPath string
	Verbosity  int
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var logFormatEncodingMapping = map[LogFormat]string{
	LogFormatStructured: jsonZapEncodingStringConstant,
	LogFormatConsole:    consoleZapEncodingStringConstant,
}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLoggerWithOptions produces a zap.Logger writing to the requested destination. Each
// verbosity step lowers the effective level by one, never below debug.
func (factory *LoggerFactory) CreateLoggerWithOptions(options LoggerOptions) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[options.Level]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, options.Level)
	}

	encoding, formatExists := logFormatEncodingMapping[options.Format]
	if !formatExists {
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, options.Format)
	}

	effectiveLevel := zapLogLevel
	if options.Verbosity > 0 {
		effectiveLevel = zapLogLevel - zapcore.Level(options.Verbosity)
		if effectiveLevel < zapcore.DebugLevel {
			effectiveLevel = zapcore.DebugLevel
		}
	}

	outputPath := strings.TrimSpace(options.OutputPath)
	if len(outputPath) == 0 {
		outputPath = standardErrorOutputPathConstant
	}

	configuration := zap.NewProductionConfig()
	configuration.Level = zap.NewAtomicLevelAt(effectiveLevel)
	configuration.Encoding = encoding
	configuration.OutputPaths = []string{outputPath}
	configuration.ErrorOutputPaths = []string{standardErrorOutputPathConstant}

	logger, buildError := configuration.Build()
	if buildError != nil {
		return nil, buildError
	}

	return logger, nil
}

package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger defines the logging surface shared by handlers, services and the session store.
type Logger interface {
	WithService(serviceName string) *slog.Logger
	WithComponent(componentName string) *slog.Logger
	WithOperation(operationName string) *slog.Logger
	WithRequestID(requestID string) *slog.Logger
	WithSession(sessionID string) *slog.Logger
	WithDataset(dataset string) *slog.Logger
	WithError(err error) *slog.Logger
	LogStartup(serviceName string, version string, port int)
	LogShutdown(serviceName string, reason string)
	LogAPIRequest(method string, path string, statusCode int, duration int64, sessionID string)
	LogSessionOperation(operation string, key string, found bool, duration int64)
	LogPipelineRun(status int, duration int64, symbols []string)
	LogRenderPass(layout string, path string, sections int, duration int64)
	Logger() *slog.Logger
}

// StandardLogger is the Logger used across the service. It writes JSON to
// stdout, optionally tees into a rotating file, and forwards to OTLP when
// an exporter has been attached.
type StandardLogger struct {
	logger  *slog.Logger
	level   string
	writer  io.Writer
	closers []io.Closer
}

// Option customises NewStandardLogger.
type Option func(*loggerOptions)

type loggerOptions struct {
	writer io.Writer
	file   *FileSinkConfig
	otlp   *OTLPLogger
}

// WithWriter replaces stdout as the primary sink.
func WithWriter(w io.Writer) Option {
	return func(o *loggerOptions) { o.writer = w }
}

// WithFileSink tees JSON output into a rotating log file.
func WithFileSink(cfg FileSinkConfig) Option {
	return func(o *loggerOptions) {
		if cfg.Path != "" {
			o.file = &cfg
		}
	}
}

// WithOTLP forwards records to an OpenTelemetry log exporter as well.
func WithOTLP(l *OTLPLogger) Option {
	return func(o *loggerOptions) { o.otlp = l }
}

// NewStandardLogger builds the service logger. Development uses the text
// handler so local output stays readable.
func NewStandardLogger(logLevel string, environment string, opts ...Option) *StandardLogger {
	o := loggerOptions{writer: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	var closers []io.Closer
	writer := o.writer
	if o.file != nil {
		rotating := newRotatingFile(*o.file)
		closers = append(closers, rotating)
		writer = io.MultiWriter(o.writer, rotating)
	}

	handlerOpts := &slog.HandlerOptions{Level: getSlogLevel(logLevel)}
	var handler slog.Handler
	if strings.EqualFold(environment, "development") {
		handler = slog.NewTextHandler(writer, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	}

	if o.otlp != nil && o.otlp.handler != nil {
		handler = newFanoutHandler(handler, o.otlp.handler.withLevel(getSlogLevel(logLevel)))
	}

	return &StandardLogger{logger: slog.New(handler), level: logLevel, writer: writer, closers: closers}
}

// NewStandardOTLPLogger creates a logger that also exports over OTLP. When the
// exporter cannot be built it degrades to the stdout logger.
func NewStandardOTLPLogger(config OTLPConfig, opts ...Option) (*StandardLogger, *OTLPLogger) {
	otlpLogger, err := NewOTLPLogger(config)
	if err != nil {
		l := NewStandardLogger(config.LogLevel, config.Environment, opts...)
		l.WithError(err).Warn("OTLP log exporter unavailable, falling back to stdout")
		return l, nil
	}
	opts = append(opts, WithOTLP(otlpLogger))
	return NewStandardLogger(config.LogLevel, config.Environment, opts...), otlpLogger
}

// Close releases file sinks.
func (l *StandardLogger) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (l *StandardLogger) WithService(serviceName string) *slog.Logger {
	return l.logger.With("service", serviceName)
}

func (l *StandardLogger) WithComponent(componentName string) *slog.Logger {
	return l.logger.With("component", componentName)
}

func (l *StandardLogger) WithOperation(operationName string) *slog.Logger {
	return l.logger.With("operation", operationName)
}

func (l *StandardLogger) WithRequestID(requestID string) *slog.Logger {
	return l.logger.With("request_id", requestID)
}

// WithSession tags records with a shortened session id; full ids stay out of logs.
func (l *StandardLogger) WithSession(sessionID string) *slog.Logger {
	return l.logger.With("session", shortID(sessionID))
}

func (l *StandardLogger) WithDataset(dataset string) *slog.Logger {
	return l.logger.With("dataset", dataset)
}

func (l *StandardLogger) WithError(err error) *slog.Logger {
	if err == nil {
		return l.logger
	}
	return l.logger.With("error", err.Error())
}

func (l *StandardLogger) LogStartup(serviceName string, version string, port int) {
	l.logger.Info("Service starting",
		"event", "startup",
		"service", serviceName,
		"version", version,
		"port", port,
	)
}

func (l *StandardLogger) LogShutdown(serviceName string, reason string) {
	l.logger.Info("Service shutting down",
		"event", "shutdown",
		"service", serviceName,
		"reason", reason,
	)
}

func (l *StandardLogger) LogAPIRequest(method string, path string, statusCode int, duration int64, sessionID string) {
	l.logger.Info("API request",
		"event", "api_request",
		"method", method,
		"path", path,
		"status_code", statusCode,
		"duration_ms", duration,
		"session", shortID(sessionID),
	)
}

func (l *StandardLogger) LogSessionOperation(operation string, key string, found bool, duration int64) {
	l.logger.Debug("Session operation",
		"event", "session_operation",
		"operation", operation,
		"key", key,
		"found", found,
		"duration_ms", duration,
	)
}

func (l *StandardLogger) LogPipelineRun(status int, duration int64, symbols []string) {
	level := slog.LevelInfo
	if status >= 400 {
		level = slog.LevelWarn
	}
	l.logger.Log(context.Background(), level, "Pipeline run",
		"event", "pipeline_run",
		"status_code", status,
		"duration_ms", duration,
		"symbols", strings.Join(symbols, ","),
	)
}

func (l *StandardLogger) LogRenderPass(layout string, path string, sections int, duration int64) {
	l.logger.Debug("Results rendered",
		"event", "render",
		"layout", layout,
		"normalization", path,
		"sections", sections,
		"duration_ms", duration,
	)
}

func (l *StandardLogger) Logger() *slog.Logger {
	return l.logger
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// getSlogLevel converts string level to slog.Level
func getSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogrusLevel converts string level to logrus.Level
func ParseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Logrus returns a logrus logger writing to the same sinks at the same level.
// The database layer logs connection events through it.
func (l *StandardLogger) Logrus() *logrus.Logger {
	lr := logrus.New()
	lr.SetFormatter(&logrus.JSONFormatter{})
	lr.SetLevel(ParseLogrusLevel(l.level))
	if l.writer != nil {
		lr.SetOutput(l.writer)
	}
	return lr
}

// Package logging provides config-driven categorized logging for sfperms.
// Each category is a named zap logger; categories can be switched off in
// .sfperms.yaml. Until Initialize is called every logger is a no-op.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config loading
	CategoryManifest Category = "manifest" // package.xml parsing
	CategoryMetadata Category = "metadata" // Permission set / profile loading
	CategoryRetrieve Category = "retrieve" // sf CLI invocations
	CategoryDescribe Category = "describe" // Describe snapshot cache
	CategoryMatrix   Category = "matrix"   // Matrix building
	CategoryRender   Category = "render"   // Markdown / image rendering
	CategoryWriter   Category = "writer"   // Report files
	CategoryGenerate Category = "generate" // Generation pipeline
	CategoryWatch    Category = "watch"    // File watcher
)

// Logger wraps a zap sugared logger with its category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	loggers    = make(map[Category]*Logger)
	loggersMu  sync.RWMutex
	base       = zap.NewNop()
	categories map[string]bool
)

// Initialize installs the base logger and the per-category toggles.
// A nil categories map enables every category.
func Initialize(l *zap.Logger, enabled map[string]bool) {
	if l == nil {
		l = zap.NewNop()
	}

	loggersMu.Lock()
	base = l
	categories = enabled
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()

	Boot("logging initialized (%d category overrides)", len(enabled))
}

// Build creates the base zap logger. Level is one of debug, info, warn,
// error; verbose forces debug. Format "console" selects the development
// encoder, anything else JSON.
func Build(level, format, file string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(format, "console") {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	if file != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, file)
	}

	return cfg.Build()
}

// Sync flushes the base logger.
func Sync() {
	loggersMu.RLock()
	l := base
	loggersMu.RUnlock()
	_ = l.Sync()
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	loggersMu.RLock()
	defer loggersMu.RUnlock()

	if categories == nil {
		return true
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category, sugar: zap.NewNop().Sugar()}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	l := &Logger{
		category: category,
		sugar:    base.Named(string(category)).Sugar(),
	}
	loggers[category] = l
	return l
}

// With returns a child logger carrying structured key/value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }

func Manifest(format string, args ...interface{})      { Get(CategoryManifest).Info(format, args...) }
func ManifestDebug(format string, args ...interface{}) { Get(CategoryManifest).Debug(format, args...) }

func Metadata(format string, args ...interface{})      { Get(CategoryMetadata).Info(format, args...) }
func MetadataDebug(format string, args ...interface{}) { Get(CategoryMetadata).Debug(format, args...) }
func MetadataWarn(format string, args ...interface{})  { Get(CategoryMetadata).Warn(format, args...) }

func Retrieve(format string, args ...interface{})      { Get(CategoryRetrieve).Info(format, args...) }
func RetrieveDebug(format string, args ...interface{}) { Get(CategoryRetrieve).Debug(format, args...) }
func RetrieveWarn(format string, args ...interface{})  { Get(CategoryRetrieve).Warn(format, args...) }
func RetrieveError(format string, args ...interface{}) { Get(CategoryRetrieve).Error(format, args...) }

func Describe(format string, args ...interface{})      { Get(CategoryDescribe).Info(format, args...) }
func DescribeDebug(format string, args ...interface{}) { Get(CategoryDescribe).Debug(format, args...) }
func DescribeWarn(format string, args ...interface{})  { Get(CategoryDescribe).Warn(format, args...) }

func MatrixDebug(format string, args ...interface{}) { Get(CategoryMatrix).Debug(format, args...) }

func Render(format string, args ...interface{})      { Get(CategoryRender).Info(format, args...) }
func RenderDebug(format string, args ...interface{}) { Get(CategoryRender).Debug(format, args...) }
func RenderWarn(format string, args ...interface{})  { Get(CategoryRender).Warn(format, args...) }

func Writer(format string, args ...interface{})      { Get(CategoryWriter).Info(format, args...) }
func WriterDebug(format string, args ...interface{}) { Get(CategoryWriter).Debug(format, args...) }

func Generate(format string, args ...interface{})      { Get(CategoryGenerate).Info(format, args...) }
func GenerateWarn(format string, args ...interface{})  { Get(CategoryGenerate).Warn(format, args...) }

func Watch(format string, args ...interface{})      { Get(CategoryWatch).Info(format, args...) }
func WatchDebug(format string, args ...interface{}) { Get(CategoryWatch).Debug(format, args...) }
func WatchError(format string, args ...interface{}) { Get(CategoryWatch).Error(format, args...) }

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithInfo ends the timer and logs at info level
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Info("%s completed in %v", t.op, elapsed)
	return elapsed
}

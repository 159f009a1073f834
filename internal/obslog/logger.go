// Package obslog provides the structured, key/value logger used throughout
// the control plane. The teacher's own internal/common.LogError/LogInfo are
// plain fmt.Fprintf/fmt.Printf calls; they cannot carry the structured
// event names and field sets spec.md §6 requires, so this package builds a
// small Logger interface over go.uber.org/zap instead, masking secret
// values (see maskValue) while each call's fields are converted to zap
// fields, before anything reaches zap.
package obslog

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// maskedKeys are field names whose value is always replaced regardless of
// content, ported from original_source's mask_secrets processor.
var maskedKeys = map[string]struct{}{
	"api_key":       {},
	"token":         {},
	"password":      {},
	"authorization": {},
}

const maskedValue = "********"

// Logger is the structured logging interface every component in this
// module depends on. Fields are always passed as a flat map so call sites
// read like the event-oriented logging in original_source (logger.info
// ("event_name", key=value, ...)).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type zapLogger struct {
	z *zap.Logger
}

// New builds a production-configured zap-backed Logger. Any field whose key
// is in maskedKeys, or whose string value contains "Bearer ", is replaced
// with "********" before it reaches the sink.
func New() Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		zap.InfoLevel,
	)
	return &zapLogger{z: zap.New(core)}
}

// NewNop returns a Logger that discards everything, useful for tests.
func NewNop() Logger {
	return &zapLogger{z: zap.NewNop()}
}

func (l *zapLogger) Debug(msg string, fields map[string]interface{}) {
	l.z.Debug(msg, toZapFields(fields)...)
}

func (l *zapLogger) Info(msg string, fields map[string]interface{}) {
	l.z.Info(msg, toZapFields(fields)...)
}

func (l *zapLogger) Warn(msg string, fields map[string]interface{}) {
	l.z.Warn(msg, toZapFields(fields)...)
}

func (l *zapLogger) Error(msg string, fields map[string]interface{}) {
	l.z.Error(msg, toZapFields(fields)...)
}

func toZapFields(fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, maskValue(k, v)))
	}
	return out
}

// maskValue implements spec.md §6's masking rule: mask by key name, or by
// value content when a string contains "Bearer ".
func maskValue(key string, v interface{}) interface{} {
	if _, masked := maskedKeys[strings.ToLower(key)]; masked {
		return maskedValue
	}
	if s, ok := v.(string); ok && strings.Contains(s, "Bearer ") {
		return maskedValue
	}
	return v
}

package logging

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Level is the severity understood by a host sink.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Sink receives one formatted message per log entry.
type Sink func(level Level, message string)

// SinkCore is a zapcore.Core that forwards entries to a Sink. Warn and
// above map to LevelError, everything else to LevelInfo. Structured
// fields are appended to the message as key=value pairs.
type SinkCore struct {
	zapcore.LevelEnabler
	sink   Sink
	fields []zapcore.Field
}

var _ zapcore.Core = (*SinkCore)(nil)

// NewSinkCore creates a core that forwards entries enabled by enab.
func NewSinkCore(sink Sink, enab zapcore.LevelEnabler) *SinkCore {
	return &SinkCore{LevelEnabler: enab, sink: sink}
}

func (c *SinkCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *SinkCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *SinkCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	level := LevelInfo
	if ent.Level >= zapcore.WarnLevel {
		level = LevelError
	}
	c.sink(level, format(ent.Message, append(c.fields[:len(c.fields):len(c.fields)], fields...)))
	return nil
}

func (c *SinkCore) Sync() error { return nil }

func format(msg string, fields []zapcore.Field) string {
	if len(fields) == 0 {
		return msg
	}
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, enc.Fields[k])
	}
	return b.String()
}

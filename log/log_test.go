package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamedLoggerWritesJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, InfoLevel).Named("session")
	l.Debug("hidden")
	l.Info("loaded", String("identity", "2024/China/Race"))
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"logger":"session"`)
	assert.Contains(t, out, `"identity":"2024/China/Race"`)
}

func TestSetLevelIsShared(t *testing.T) {
	buf := &bytes.Buffer{}
	root := New(buf, InfoLevel)
	child := root.Named("child")
	root.SetLevel(DebugLevel)
	child.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Equal(t, DebugLevel, child.Level())
}

func TestWithFilter(t *testing.T) {
	tests := []struct {
		name    string
		rules   string
		logger  string
		want    bool
		wantErr bool
	}{
		{name: "empty rules keep logger", rules: "", logger: "any", want: true},
		{name: "matching rule", rules: "info:session", logger: "session", want: true},
		{name: "non matching rule", rules: "info:session", logger: "server", want: false},
		{name: "invalid rule", rules: "bogus:session", logger: "x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l, err := New(buf, DebugLevel).WithFilter(tt.rules)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			l.Named(tt.logger).Info("msg")
			assert.Equal(t, tt.want, buf.Len() > 0)
		})
	}
}

func TestContextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, InfoLevel)
	ctx := AddToContext(context.Background(), l)
	assert.Same(t, l, GetFromContext(ctx))
	assert.Same(t, Default(), GetFromContext(context.Background()))
}

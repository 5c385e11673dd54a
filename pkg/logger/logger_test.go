package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLevels(t *testing.T) {
	t.Setenv(DebugEnv, "")
	t.Setenv("DEBUG", "")

	assert.Equal(t, logrus.InfoLevel, New(false).GetLevel())
	assert.Equal(t, logrus.DebugLevel, New(true).GetLevel())
}

func TestDebugEnv(t *testing.T) {
	t.Setenv(DebugEnv, "true")
	assert.True(t, DebugEnabled())
	assert.Equal(t, logrus.DebugLevel, New(false).GetLevel())
}

func TestNewWithOutput(t *testing.T) {
	t.Setenv(DebugEnv, "")
	t.Setenv("DEBUG", "")

	var buf bytes.Buffer
	l := NewWithOutput(&buf, false)
	l.Debug("hidden")
	l.WithField("tool", "jq").Info("installed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "installed")
	assert.Contains(t, out, "tool=jq")
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing to see")
}

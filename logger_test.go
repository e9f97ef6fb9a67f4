package auth_test

import (
	"bytes"
	"testing"

	auth "github.com/goliatone/go-credentials"
	"github.com/goliatone/go-logger/glog"
	"github.com/stretchr/testify/assert"
)

func TestGlogLogger(t *testing.T) {
	var buf bytes.Buffer
	root := glog.NewLogger(
		glog.WithWriter(&buf),
		glog.WithLoggerTypeJSON(),
		glog.WithLevel(glog.Info),
	)

	logger := auth.NewGlogLogger(root.GetLogger("auth"))
	logger.Debug("hidden %d", 1)
	logger.Info("registered identity %s", "42")
	logger.Warn("failed to track login for %s", "42")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"registered identity 42"`)
	assert.Contains(t, out, `"msg":"failed to track login for 42"`)
	assert.Contains(t, out, `"logger":"auth"`)
}

func TestGlogLoggerNil(t *testing.T) {
	logger := auth.NewGlogLogger(nil)
	assert.NotPanics(t, func() {
		logger.Error("nothing %s", "here")
	})
}

package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	bundlererrors "github.com/conneroisu/bundler/internal/errors"
)

func TestNewSessionDefaults(t *testing.T) {
	s := NewSession(Config{Headless: true}, nil)
	assert.Equal(t, 30*time.Second, s.config.Timeout)
	assert.Nil(t, s.Page())
}

func TestSessionRequiresSetup(t *testing.T) {
	ctx := context.Background()
	s := NewSession(DefaultConfig(), nil)

	err := s.Open(ctx, "file:///tmp/build.html")
	assert.True(t, bundlererrors.HasErrorCode(err, bundlererrors.ErrCodeInvalidState))

	_, err = s.Title(ctx)
	assert.True(t, bundlererrors.HasErrorCode(err, bundlererrors.ErrCodeInvalidState))

	_, err = s.Eval(ctx, "() => 1")
	assert.True(t, bundlererrors.HasErrorCode(err, bundlererrors.ErrCodeInvalidState))
}

func TestTeardownWithoutSetup(t *testing.T) {
	s := NewSession(DefaultConfig(), nil)
	assert.NoError(t, s.Teardown(context.Background()))
	assert.NoError(t, s.Teardown(context.Background()))
}

// internal/browser/session_test.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/formpilot/formpilot-cli/api/schemas"
	"github.com/formpilot/formpilot-cli/internal/config"
)

func TestCombineContextCancelsWithSecondary(t *testing.T) {
	defer goleak.VerifyNone(t)

	parent := context.Background()
	secondary, secondaryCancel := context.WithCancel(context.Background())

	combined, cancel := combineContext(parent, secondary)
	defer cancel()

	secondaryCancel()
	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context did not cancel with the secondary context")
	}
}

func TestCombineContextCancelsWithParent(t *testing.T) {
	defer goleak.VerifyNone(t)

	parent, parentCancel := context.WithCancel(context.Background())
	combined, cancel := combineContext(parent, context.Background())
	defer cancel()

	parentCancel()
	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context did not cancel with the parent context")
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	s := newSession(context.Background(), config.NewDefaultConfig(), ModeEphemeral, zaptest.NewLogger(t))

	calls := 0
	s.onClose = func() { calls++ }

	s.Close()
	s.Close()
	assert.Equal(t, 1, calls)
	require.NotEmpty(t, s.ID())
	assert.Equal(t, ModeEphemeral, s.Mode())
}

func TestIsNavigationError(t *testing.T) {
	navErr := &schemas.NavigationError{URL: "https://x.test", Err: errors.New("timeout")}
	assert.True(t, IsNavigationError(navErr))
	assert.True(t, IsNavigationError(fmt.Errorf("wrapped: %w", navErr)))
	assert.False(t, IsNavigationError(errors.New("plain")))
	assert.False(t, IsNavigationError(nil))
}

func TestJSStringQuoting(t *testing.T) {
	assert.Equal(t, `'plain'`, jsString("plain"))
	assert.Equal(t, `'it\'s'`, jsString("it's"))
	assert.Equal(t, `'a\\b'`, jsString(`a\b`))
	assert.Equal(t, `'line\nbreak'`, jsString("line\nbreak"))
}

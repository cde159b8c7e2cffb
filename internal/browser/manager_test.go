// internal/browser/manager_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/formpilot/formpilot-cli/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(config.NewDefaultConfig(), zaptest.NewLogger(t))
}

// -- Acquisition Modes --

func TestAcquisitionModeString(t *testing.T) {
	assert.Equal(t, "ephemeral", ModeEphemeral.String())
	assert.Equal(t, "profile", ModeProfile.String())
}

func TestProfileModeFallsBackWhenDirMissing(t *testing.T) {
	m := newTestManager(t)
	m.cfg.Browser.ProfileDir = "/definitely/not/a/real/profile/dir"

	_, effective := m.buildAllocatorOptions(ModeProfile)
	assert.Equal(t, ModeEphemeral, effective,
		"a missing user-data directory must degrade to an ephemeral session")
}

func TestProfileModeUsedWhenDirExists(t *testing.T) {
	m := newTestManager(t)
	m.cfg.Browser.ProfileDir = t.TempDir()

	_, effective := m.buildAllocatorOptions(ModeProfile)
	assert.Equal(t, ModeProfile, effective)
}

func TestEphemeralModeIgnoresProfileDir(t *testing.T) {
	m := newTestManager(t)
	m.cfg.Browser.ProfileDir = t.TempDir()

	_, effective := m.buildAllocatorOptions(ModeEphemeral)
	assert.Equal(t, ModeEphemeral, effective)
}

// -- Binary Resolution --

func TestResolveBinaryPathExplicitOverride(t *testing.T) {
	b := config.BrowserConfig{BinaryPath: "/opt/chromium/chrome"}
	assert.Equal(t, "/opt/chromium/chrome", resolveBinaryPath(b),
		"an explicit path wins even when it does not exist; the launch error should name it")
}

func TestResolveBinaryPathFallsBackToPlatformDefault(t *testing.T) {
	got := resolveBinaryPath(config.BrowserConfig{})
	if got == "" {
		// The conventional install location is absent on this machine;
		// discovery is left to chromedp.
		return
	}
	assert.Equal(t, config.DefaultChromeBinary(), got)
}

// -- Shutdown --

func TestShutdownWithNoSessions(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newTestManager(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
}

func TestShutdownRespectsDeadline(t *testing.T) {
	m := newTestManager(t)
	// Simulate an open session that never closes.
	m.wg.Add(1)
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Shutdown(ctx), context.DeadlineExceeded)
}

// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/formpilot/formpilot-cli/internal/config"
)

// AcquisitionMode selects how a session's browser context is provisioned.
type AcquisitionMode int

const (
	// ModeEphemeral launches a fresh, unauthenticated browser context.
	// This is the default for non-authenticated providers.
	ModeEphemeral AcquisitionMode = iota
	// ModeProfile reuses a persistent Chrome user-data directory so the
	// session carries existing authentication state. If the configured
	// profile directory is missing, acquisition falls back to ModeEphemeral.
	ModeProfile
)

func (m AcquisitionMode) String() string {
	if m == ModeProfile {
		return "profile"
	}
	return "ephemeral"
}

const startupProbeTimeout = 30 * time.Second

// Manager creates browser sessions. Each session owns its own browser
// process, so independent extraction/autofill calls may run concurrently
// without sharing mutable state.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	// wg tracks open sessions for a graceful shutdown.
	wg sync.WaitGroup
}

// NewManager returns a session factory. No browser process is launched until
// Open is called.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
	}
}

// Open launches a browser process and returns a ready session. The session
// must be closed on every exit path of the caller to avoid leaking OS
// processes.
func (m *Manager) Open(ctx context.Context, mode AcquisitionMode) (*Session, error) {
	opts, effectiveMode := m.buildAllocatorOptions(mode)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	cleanup := func() {
		tabCancel()
		allocCancel()
	}

	// Confirm the browser starts and is responsive before handing it out.
	probeCtx, probeCancel := context.WithTimeout(tabCtx, startupProbeTimeout)
	defer probeCancel()
	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		cleanup()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	s := newSession(tabCtx, m.cfg, effectiveMode, m.logger)
	m.wg.Add(1)
	s.onClose = func() {
		cleanup()
		m.wg.Done()
	}

	m.logger.Info("Browser session opened.",
		zap.String("session_id", s.ID()),
		zap.String("mode", effectiveMode.String()))
	return s, nil
}

// Shutdown waits for all open sessions to close, respecting the caller's
// deadline.
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All browser sessions closed.")
		return nil
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for browser sessions to close.", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// buildAllocatorOptions assembles the launch flags for the requested mode and
// reports the mode actually used (profile acquisition degrades to ephemeral
// when the user-data directory does not exist).
func (m *Manager) buildAllocatorOptions(mode AcquisitionMode) ([]chromedp.ExecAllocatorOption, AcquisitionMode) {
	// Start from the defaults, dropping the flag that advertises automation.
	// Options are opaque funcs, so the flag is overridden to false, which
	// chromedp omits from the command line.
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("enable-automation", false))

	opts = append(opts,
		chromedp.Flag("headless", m.cfg.Browser.Headless),
		chromedp.Flag("ignore-certificate-errors", m.cfg.Browser.IgnoreTLSErrors),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", m.cfg.Browser.Headless),
	)

	if binary := resolveBinaryPath(m.cfg.Browser); binary != "" {
		opts = append(opts, chromedp.ExecPath(binary))
	}

	effective := mode
	if mode == ModeProfile {
		profileDir := m.cfg.Browser.ResolveProfileDir()
		if dirExists(profileDir) {
			opts = append(opts, chromedp.UserDataDir(profileDir))
			if m.cfg.Browser.ProfileName != "" {
				opts = append(opts, chromedp.Flag("profile-directory", m.cfg.Browser.ProfileName))
			}
		} else {
			m.logger.Warn("Profile directory not found; falling back to ephemeral session.",
				zap.String("profile_dir", profileDir))
			effective = ModeEphemeral
		}
	}

	// Custom arguments from config.
	for _, arg := range m.cfg.Browser.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(flagName, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(flagName, true))
		}
	}

	// Flags required for running inside containers.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
	}

	return opts, effective
}

// resolveBinaryPath returns the configured Chrome binary, falling back to the
// platform's conventional install location when it exists. An empty return
// leaves binary discovery to chromedp.
func resolveBinaryPath(b config.BrowserConfig) string {
	if b.BinaryPath != "" {
		return b.BinaryPath
	}
	if def := config.DefaultChromeBinary(); fileExists(def) {
		return def
	}
	return ""
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// internal/artifacts/store.go
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/formpilot/formpilot-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store writes the audit trail: screenshots, structured result logs, and raw
// debug page captures. Filenames carry a timestamp plus a UUID suffix so
// concurrent calls sharing the same directories never collide.
type Store struct {
	screenshotDir string
	logDir        string
	debugDir      string
	logger        *zap.Logger
}

// NewStore creates the artifact directories and returns a store.
func NewStore(cfg config.ArtifactsConfig, logger *zap.Logger) (*Store, error) {
	s := &Store{
		screenshotDir: cfg.ScreenshotDir,
		logDir:        cfg.LogDir,
		debugDir:      cfg.DebugDir,
		logger:        logger.Named("artifacts"),
	}
	for _, dir := range []string{s.screenshotDir, s.logDir, s.debugDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory %q: %w", dir, err)
		}
	}
	return s, nil
}

// uniqueName builds a collision-resistant filename.
func uniqueName(prefix, ext string) string {
	ts := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s%s", prefix, ts, uuid.NewString()[:8], ext)
}

// SaveScreenshot writes a PNG capture and returns its path. Failures are
// logged and swallowed: a missing screenshot must never fail the call it
// documents.
func (s *Store) SaveScreenshot(prefix string, png []byte) string {
	if len(png) == 0 {
		return ""
	}
	path := filepath.Join(s.screenshotDir, uniqueName(prefix, ".png"))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		s.logger.Error("Failed to write screenshot.", zap.String("path", path), zap.Error(err))
		return ""
	}
	s.logger.Debug("Screenshot saved.", zap.String("path", path))
	return path
}

// SaveResultLog dumps the full result object as indented JSON for audit and
// returns the log path.
func (s *Store) SaveResultLog(result any) string {
	path := filepath.Join(s.logDir, uniqueName("autofill", ".json"))
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal result log.", zap.Error(err))
		return ""
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Error("Failed to write result log.", zap.String("path", path), zap.Error(err))
		return ""
	}
	s.logger.Debug("Result log saved.", zap.String("path", path))
	return path
}

// SaveDebugHTML captures a raw page for offline debugging and returns its
// path, or "" when the capture could not be written.
func (s *Store) SaveDebugHTML(prefix, html string) string {
	if s.debugDir == "" || html == "" {
		return ""
	}
	path := filepath.Join(s.debugDir, uniqueName("debug_"+prefix, ".html"))
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		s.logger.Error("Failed to write debug HTML.", zap.String("path", path), zap.Error(err))
		return ""
	}
	return path
}

// File: internal/config/profile.go
package config

import (
	"path/filepath"
	"runtime"

	homedir "github.com/mitchellh/go-homedir"
)

// DefaultChromeProfileDir returns the per-OS default Chrome user-data
// directory. An empty string means no sensible default exists for the
// platform; callers fall back to an ephemeral session in that case.
func DefaultChromeProfileDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome")
	case "linux":
		return filepath.Join(home, ".config", "google-chrome")
	}
	return ""
}

// ResolveProfileDir returns the configured profile directory, falling back to
// the platform default when unset.
func (b BrowserConfig) ResolveProfileDir() string {
	if b.ProfileDir != "" {
		return b.ProfileDir
	}
	return DefaultChromeProfileDir()
}

// DefaultChromeBinary returns the conventional Chrome binary location for the
// platform. chromedp falls back to its own lookup when this path is empty or
// missing.
func DefaultChromeBinary() string {
	switch runtime.GOOS {
	case "windows":
		return `C:\Program Files\Google\Chrome\Application\chrome.exe`
	case "darwin":
		return "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
	case "linux":
		return "/usr/bin/google-chrome"
	}
	return ""
}

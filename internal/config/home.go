package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetSearchexHome returns the searchex home directory
// Priority order:
//  1. SEARCHEX_HOME environment variable (if set)
//  2. Searchex repository root (detected by finding go.mod)
//  3. Current working directory (fallback)
//
// The directory is created if it doesn't exist
func GetSearchexHome() (string, error) {
	// Try env var first
	if home := os.Getenv("SEARCHEX_HOME"); home != "" {
		return home, nil
	}

	// Try to find searchex repo root by looking for go.mod
	repoRoot, err := findSearchexRepoRoot()
	if err == nil && repoRoot != "" {
		searchexHome := filepath.Join(repoRoot, ".searchex")
		if err := os.MkdirAll(searchexHome, 0755); err != nil {
			return "", fmt.Errorf("create searchex home directory: %w", err)
		}
		return searchexHome, nil
	}

	// Fallback to current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	searchexHome := filepath.Join(cwd, ".searchex")
	if err := os.MkdirAll(searchexHome, 0755); err != nil {
		return "", fmt.Errorf("create searchex home directory: %w", err)
	}

	return searchexHome, nil
}

// findSearchexRepoRoot finds the searchex repository root by looking for
// go.mod containing the searchex module path, or a .searchex-root marker
func findSearchexRepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	current := cwd
	for {
		// The .searchex-root marker file takes priority
		markerPath := filepath.Join(current, ".searchex-root")
		if _, err := os.Stat(markerPath); err == nil {
			return current, nil
		}

		goModPath := filepath.Join(current, "go.mod")
		if data, err := os.ReadFile(goModPath); err == nil {
			if strings.Contains(string(data), "github.com/harrison/searchex") {
				return current, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root
			break
		}
		current = parent
	}

	return "", fmt.Errorf("searchex repository root not found (looking for .searchex-root or go.mod with github.com/harrison/searchex)")
}

// GetHistoryDBPath returns the absolute path to the history database
// Always returns: $SEARCHEX_HOME/history/runs.db
func GetHistoryDBPath() (string, error) {
	dir, err := GetHistoryDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "runs.db"), nil
}

// GetHistoryDir returns the history directory path, creating it if needed
func GetHistoryDir() (string, error) {
	home, err := GetSearchexHome()
	if err != nil {
		return "", err
	}

	historyDir := filepath.Join(home, "history")
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return "", fmt.Errorf("create history directory: %w", err)
	}

	return historyDir, nil
}

// GetLogsDir returns the run log directory path, creating it if needed
func GetLogsDir() (string, error) {
	home, err := GetSearchexHome()
	if err != nil {
		return "", err
	}

	logsDir := filepath.Join(home, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", fmt.Errorf("create logs directory: %w", err)
	}

	return logsDir, nil
}

// GetReportsDir returns the HTML report directory path, creating it if needed
func GetReportsDir() (string, error) {
	home, err := GetSearchexHome()
	if err != nil {
		return "", err
	}

	reportsDir := filepath.Join(home, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	return reportsDir, nil
}

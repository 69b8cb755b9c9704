// Package logger provides logging implementations for Searchex runs.
//
// The logger package offers structured logging of search progress at the
// run and summary levels. Implementations are thread-safe and support
// various output destinations (console, file, etc.).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/harrison/searchex/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs search progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps for tracking run flow.
// It supports log level filtering to control message verbosity.
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// logLevel determines the minimum log level for messages to be output.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
// Color output is automatically enabled when writing to os.Stdout or os.Stderr with TTY support.
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		mutex:       sync.Mutex{},
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Returns true for os.Stdout and os.Stderr when they are TTYs.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		// The color library's detection also honors NO_COLOR.
		return !color.NoColor
	}
	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}

	return "info" // Default level
}

// shouldLog checks if a message at the given level should be logged.
// Returns true if messageLevel >= configured logLevel.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo // Default to info if unknown
	}
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
// Format: "[HH:MM:SS] [DEBUG] <message>"
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
// Format: "[HH:MM:SS] [WARN] <message>"
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
// Format: "[HH:MM:SS] [ERROR] <message>"
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel is a helper that logs a message at the specified level if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// LogRunStart logs the start of a search run at INFO level.
// Format: "[HH:MM:SS] Searching <root>: <n> pattern(s)"
func (cl *ConsoleLogger) LogRunStart(root string, patternCount int) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	patternLabel := "pattern"
	if patternCount != 1 {
		patternLabel = "patterns"
	}

	var message string
	if cl.colorOutput {
		rootName := color.New(color.Bold).Sprint(root)
		message = fmt.Sprintf("[%s] Searching %s: %d %s\n", ts, rootName, patternCount, patternLabel)
	} else {
		message = fmt.Sprintf("[%s] Searching %s: %d %s\n", ts, root, patternCount, patternLabel)
	}

	cl.writer.Write([]byte(message))
}

// LogRunSummary logs the run summary with final statistics at INFO level.
// Format:
//
//	[HH:MM:SS] === Search Summary ===
//	[HH:MM:SS] Files scanned: <done>/<total>
//	[HH:MM:SS] Files matched: <n>
//	[HH:MM:SS] Problems: <n>
//	[HH:MM:SS] Duration: <d>
func (cl *ConsoleLogger) LogRunSummary(progress models.RunProgress, matched int, duration time.Duration) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	durationStr := formatDuration(duration)

	var output string
	if cl.colorOutput {
		header := color.New(color.Bold).Sprint("=== Search Summary ===")
		output = fmt.Sprintf("[%s] %s\n", ts, header)
		output += fmt.Sprintf("[%s] Files scanned: %d/%d\n", ts, progress.FilesDone, progress.FilesTotal)

		matchedText := color.New(color.FgGreen).Sprintf("Files matched: %d", matched)
		output += fmt.Sprintf("[%s] %s\n", ts, matchedText)

		if progress.Problems > 0 {
			problemsText := color.New(color.FgRed).Sprintf("Problems: %d", progress.Problems)
			output += fmt.Sprintf("[%s] %s\n", ts, problemsText)
		} else {
			output += fmt.Sprintf("[%s] Problems: %d\n", ts, progress.Problems)
		}

		output += fmt.Sprintf("[%s] Duration: %s\n", ts, durationStr)

		if progress.Cancelled {
			cancelledText := color.New(color.FgYellow).Sprint("Run cancelled before completion")
			output += fmt.Sprintf("[%s] %s\n", ts, cancelledText)
		}
	} else {
		output = fmt.Sprintf("[%s] === Search Summary ===\n", ts)
		output += fmt.Sprintf("[%s] Files scanned: %d/%d\n", ts, progress.FilesDone, progress.FilesTotal)
		output += fmt.Sprintf("[%s] Files matched: %d\n", ts, matched)
		output += fmt.Sprintf("[%s] Problems: %d\n", ts, progress.Problems)
		output += fmt.Sprintf("[%s] Duration: %s\n", ts, durationStr)
		if progress.Cancelled {
			output += fmt.Sprintf("[%s] Run cancelled before completion\n", ts)
		}
	}

	cl.writer.Write([]byte(output))
}

// LogProgress logs real-time scan progress with a bar, counts, and percentage.
// Format: "[HH:MM:SS] Progress: [=====     ] 120/240 (50%)"
func (cl *ConsoleLogger) LogProgress(progress models.RunProgress) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	pb := NewProgressBar(int(progress.FilesTotal), 10, cl.colorOutput)
	pb.Update(int(progress.FilesDone))

	output := fmt.Sprintf("[%s] Progress: %s\n", timestamp(), pb.Render())
	cl.writer.Write([]byte(output))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}

// NoOpLogger is a logger implementation that discards all messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogTrace is a no-op implementation.
func (n *NoOpLogger) LogTrace(message string) {}

// LogDebug is a no-op implementation.
func (n *NoOpLogger) LogDebug(message string) {}

// LogInfo is a no-op implementation.
func (n *NoOpLogger) LogInfo(message string) {}

// LogWarn is a no-op implementation.
func (n *NoOpLogger) LogWarn(message string) {}

// LogError is a no-op implementation.
func (n *NoOpLogger) LogError(message string) {}

// LogRunStart is a no-op implementation.
func (n *NoOpLogger) LogRunStart(root string, patternCount int) {}

// LogRunSummary is a no-op implementation.
func (n *NoOpLogger) LogRunSummary(progress models.RunProgress, matched int, duration time.Duration) {
}

// LogProgress is a no-op implementation.
func (n *NoOpLogger) LogProgress(progress models.RunProgress) {}

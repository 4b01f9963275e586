package main

import (
	"log/slog"
	"os"
	"path/filepath"
)

const logAppName = "jls"

// createLogFile creates or opens the log file under the user cache
// directory, truncating it once it grows past 5 MB. Falls back to
// stderr so logging never corrupts the stdio protocol stream.
func createLogFile() *os.File {
	userCachePath, err := os.UserCacheDir()
	if err != nil {
		return os.Stderr
	}
	appCachePath := filepath.Join(userCachePath, logAppName)
	logFilePath := filepath.Join(appCachePath, logAppName+".log")
	_ = os.MkdirAll(appCachePath, 0o750)

	flags := os.O_APPEND | os.O_CREATE | os.O_WRONLY
	if info, err := os.Stat(logFilePath); err == nil && info.Size() >= 5_000_000 {
		flags = os.O_TRUNC | os.O_CREATE | os.O_WRONLY
	}
	file, err := os.OpenFile(logFilePath, flags, 0o600)
	if err != nil {
		return os.Stderr
	}
	return file
}

// configureLogging sets up structured JSON logging and returns the
// logger handed to the server.
func configureLogging(quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(createLogFile(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

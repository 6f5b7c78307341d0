// Package logging provides structured logging configuration for stubd.
//
// This package wraps log/slog so every stubd component logs the same way.
// It supports configurable log levels and output formats.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("stub server listening", "addr", ":3000")
//
// # Integration
//
// Components accept a *slog.Logger through a functional option. When no
// logger is provided they fall back to logging.Nop().
package logging

package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// prettyJSON marshals a value as indented JSON.
func prettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// newLogger builds the process logger; --debug lowers the level.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if debugOutput {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

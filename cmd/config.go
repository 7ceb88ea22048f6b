package main

import (
	"log/slog"
	"strings"
)

type Config struct {
	Host                 string `env:"HOST,default=localhost"`
	Port                 int    `env:"PORT,default=8080"`
	BadgerFilepath       string `env:"BADGER_FILEPATH,required=true"`
	TokenSecret          string `env:"TOKEN_SECRET,required=true"`
	LogLevel             string `env:"LOG_LEVEL,default=info"`
	ConnectionBufferSize int    `env:"CONNECTION_BUFFER_SIZE,default=64"`
	MaxContentLength     int    `env:"MAX_CONTENT_LENGTH,default=4096"`
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command chatbot starts the FastTrack chatbot HTTP server.
//
// It reads configuration from environment variables (a local .env file
// is loaded when present) and starts the server.
//
// # Environment Variables
//
//   - CHATBOT_PORT: HTTP server port (default: 8000)
//   - OPENAI_API_KEY: assistant service credential (required)
//   - OPENAI_ASSISTANT_ID: assistant addressed by every run (required)
//   - PHRASE_MODEL: phrase locator model (default: gpt-4o-mini)
//   - RUN_POLL_INTERVAL: run polling cadence (default: 1s)
//   - RUN_POLL_TIMEOUT: run polling deadline (default: 120s)
//   - SHEETDB_URL: feedback sink endpoint (optional)
//   - STATIC_DIR / DATA_FILES_DIR: asset directories
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector
//
// # Usage
//
//	go build -o chatbot ./cmd/chatbot
//	./chatbot
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/naisha196/fasttrack-chatbot/services/chatbot"
)

func main() {
	_ = godotenv.Load(".env")

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := chatbot.Config{
		Port:          getEnvInt("CHATBOT_PORT", 8000),
		AssistantID:   os.Getenv("OPENAI_ASSISTANT_ID"),
		PhraseModel:   getEnvString("PHRASE_MODEL", "gpt-4o-mini"),
		PollInterval:  getEnvDuration("RUN_POLL_INTERVAL", time.Second),
		PollTimeout:   getEnvDuration("RUN_POLL_TIMEOUT", 120*time.Second),
		SheetDBURL:    os.Getenv("SHEETDB_URL"),
		StaticDir:     getEnvString("STATIC_DIR", "./static"),
		DataFilesDir:  getEnvString("DATA_FILES_DIR", "./data_files"),
		EnableMetrics: true,
	}

	slog.Info("Starting chatbot",
		"port", cfg.Port,
		"assistant_id", cfg.AssistantID,
		"poll_timeout", cfg.PollTimeout,
	)

	svc, err := chatbot.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create chatbot: %v", err)
	}

	if err := svc.Run(); err != nil {
		log.Fatalf("Chatbot error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a
// default. Values use Go duration syntax ("1s", "2m").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command setup bootstraps the searchable corpus on the assistant
// service: it creates a vector store, uploads every file from the data
// directory into it, waits for indexing to finish, and creates a
// file-search assistant bound to the store.
//
// The printed assistant id goes into OPENAI_ASSISTANT_ID for the server.
//
// # Usage
//
//	go run ./cmd/setup --data-dir ./data_files --name "FastTrack Punjab Assistant"
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/naisha196/fasttrack-chatbot/services/assistant"
)

var (
	dataDir       string
	assistantName string
	model         string
)

var rootCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the vector store and assistant for the chatbot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "./data_files", "directory of source documents to index")
	rootCmd.Flags().StringVar(&assistantName, "name", "FastTrack Punjab Assistant", "assistant display name")
	rootCmd.Flags().StringVar(&model, "model", "gpt-4o", "assistant model")
}

func main() {
	_ = godotenv.Load(".env")

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Setup failed: %v", err)
	}
}

func runSetup(ctx context.Context) error {
	client, err := assistant.NewClient()
	if err != nil {
		return err
	}

	slog.Info("Creating vector store")
	store, err := client.CreateVectorStore(ctx, openai.VectorStoreRequest{
		Name: "FastTrack_Documents",
	})
	if err != nil {
		return fmt.Errorf("create vector store: %w", err)
	}
	slog.Info("Vector store created", "id", store.ID)

	fileIDs, err := uploadDataFiles(ctx, client)
	if err != nil {
		return err
	}
	if len(fileIDs) == 0 {
		return fmt.Errorf("no files found in %s", dataDir)
	}

	slog.Info("Indexing files into vector store", "count", len(fileIDs))
	batch, err := client.CreateVectorStoreFileBatch(ctx, store.ID, openai.VectorStoreFileBatchRequest{
		FileIDs: fileIDs,
	})
	if err != nil {
		return fmt.Errorf("create file batch: %w", err)
	}
	if err := waitForBatch(ctx, client, store.ID, batch); err != nil {
		return err
	}

	asst, err := client.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        model,
		Name:         &assistantName,
		Instructions: ptr("You are a helpful assistant. Use HTML for formatting."),
		Tools:        []openai.AssistantTool{{Type: openai.AssistantToolTypeFileSearch}},
		ToolResources: &openai.AssistantToolResource{
			FileSearch: &openai.AssistantToolFileSearch{
				VectorStoreIDs: []string{store.ID},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create assistant: %w", err)
	}

	slog.Info("Assistant created", "id", asst.ID)
	fmt.Printf("\nOPENAI_ASSISTANT_ID=%s\n", asst.ID)
	return nil
}

// uploadDataFiles uploads every regular file under the data directory
// for assistant use and returns the created file ids.
func uploadDataFiles(ctx context.Context, client *openai.Client) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var fileIDs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dataDir, e.Name())
		file, err := client.CreateFile(ctx, openai.FileRequest{
			FileName: e.Name(),
			FilePath: path,
			Purpose:  "assistants",
		})
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", e.Name(), err)
		}
		slog.Info("Uploaded file", "name", e.Name(), "id", file.ID)
		fileIDs = append(fileIDs, file.ID)
	}
	return fileIDs, nil
}

// waitForBatch polls the file batch until indexing reaches a terminal
// state. Indexing large corpora can take a while; the bound here is
// generous rather than tight.
func waitForBatch(ctx context.Context, client *openai.Client, storeID string, batch openai.VectorStoreFileBatch) error {
	deadline := time.Now().Add(10 * time.Minute)
	for batch.Status == "in_progress" {
		if time.Now().After(deadline) {
			return fmt.Errorf("file batch %s still in progress after 10m", batch.ID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}

		var err error
		batch, err = client.RetrieveVectorStoreFileBatch(ctx, storeID, batch.ID)
		if err != nil {
			return fmt.Errorf("retrieve file batch: %w", err)
		}
	}
	if batch.Status != "completed" {
		return fmt.Errorf("file batch finished with status %s", batch.Status)
	}
	slog.Info("File batch completed", "id", batch.ID)
	return nil
}

func ptr(s string) *string { return &s }

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package services provides the business logic for the chatbot service,
// separated from the HTTP handlers.
//
// The core type is ChatService, which runs the citation-resolution and
// passage-location pipeline: resolve the conversation thread, invoke a
// grounded-generation run and poll it to a terminal state, extract
// document citations from the answer's annotations, locate a verbatim
// search phrase per cited document, and rewrite the answer so each
// citation marker becomes a clickable reference with an appended source
// list.
//
// Services are designed to be:
//   - Testable: the assistant API is injected via an interface
//   - Stateless: conversation state lives in the assistant service
//   - Traceable: all methods accept context for distributed tracing
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/naisha196/fasttrack-chatbot/services/assistant"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/datatypes"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/observability"
)

// chatTracer is the OpenTelemetry tracer for ChatService operations.
var chatTracer = otel.Tracer("fasttrack.chatbot.services.chat")

// Config holds the tunables for ChatService.
type Config struct {
	// AssistantID is the remote assistant addressed by every run.
	// Required; validated at service construction.
	AssistantID string

	// PhraseModel is the chat-completion model used by the verbatim
	// phrase locator. Default: gpt-4o-mini.
	PhraseModel string

	// PollInterval is the run status polling cadence. Default: 1s.
	PollInterval time.Duration

	// PollTimeout bounds the total polling time for one run. A run that
	// is still pending after the deadline surfaces a RunTimeoutError.
	// Default: 120s.
	PollTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.PhraseModel == "" {
		c.PhraseModel = "gpt-4o-mini"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 120 * time.Second
	}
	return c
}

// ChatService handles one conversational turn end-to-end. It owns no
// state of its own: the conversation thread belongs to the caller (via
// the thread id) and to the assistant service, so instances are safe for
// concurrent use and scale horizontally.
//
// Usage:
//
//	svc, err := NewChatService(api, Config{AssistantID: "asst_..."})
//	resp, err := svc.Process(ctx, &req)
type ChatService struct {
	api assistant.API
	cfg Config
}

// NewChatService creates a ChatService backed by the given assistant
// API. The assistant id must be present; there is no usable default for
// it and a misconfigured id would fail every run at request time.
func NewChatService(api assistant.API, cfg Config) (*ChatService, error) {
	if cfg.AssistantID == "" {
		return nil, fmt.Errorf("assistant id is required")
	}
	return &ChatService{api: api, cfg: cfg.withDefaults()}, nil
}

// Process handles a chat turn end-to-end.
//
// The processing flow is:
//  1. Ensure request defaults (request id, timestamp)
//  2. Validate the request
//  3. Resolve the conversation thread (create one when absent)
//  4. Invoke a grounded run and poll it to completion
//  5. Extract document citations from the answer annotations
//  6. Locate a verbatim search phrase per distinct cited document
//  7. Rewrite markers and append the source list
//
// Step 6 runs only when step 5 produced at least one citation, and
// never fails the request: a phrase that cannot be located degrades to
// an empty string, leaving the citation links working without the
// auto-highlight behavior.
//
// Returns the rewritten HTML response with the thread id the caller must
// reuse, or an error from the set {ErrRunFailed, ErrRunCancelled,
// *RunTimeoutError, validation or transport errors}.
func (s *ChatService) Process(ctx context.Context, req *datatypes.ChatRequest) (*datatypes.ChatResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.Process")
	defer span.End()

	req.EnsureDefaults()
	span.SetAttributes(attribute.String("request.id", req.RequestID))

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	threadID, err := s.ResolveSession(ctx, req.ThreadID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session resolution failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("thread.id", threadID))

	answer, err := s.Invoke(ctx, threadID, req.Message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run invocation failed")
		return nil, err
	}

	citations := s.ExtractCitations(ctx, answer)
	span.SetAttributes(attribute.Int("citations.count", len(citations)))

	var phrases map[string]string
	if len(citations) > 0 {
		phrases = s.LocatePhrases(ctx, req.Message, answer.Text, citations)
	}

	html, cards := RewriteAnswer(answer.Text, citations, phrases)
	if len(cards) > 0 {
		html += RenderSourcesBlock(cards)
	}

	slog.Info("Processed chat turn",
		"requestId", req.RequestID,
		"threadId", threadID,
		"citations", len(citations),
	)
	if observability.DefaultMetrics != nil {
		observability.DefaultMetrics.RecordCitations(len(citations))
	}

	return &datatypes.ChatResponse{Response: html, ThreadID: threadID}, nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/naisha196/fasttrack-chatbot/services/chatbot/datatypes"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/observability"
)

// runInstructions is the fixed behavioral policy injected into every
// run. The assistant is expected to honor it; nothing here enforces it.
const runInstructions = `
Every response must follow this exact structure - no exceptions:

1. One short opening sentence answering the question directly.
2. A bullet point list of key details (always use bullets, even for 1 item).
3. If there are steps, use a numbered list.
4. End with one short closing sentence if needed, otherwise stop.

Always use **bold** for key terms. Never write paragraphs. Never add intros like "Great question!" or outros like "I hope this helps!".
`

// ResolveSession maps an optional caller-supplied thread id to a
// conversation thread. An empty id creates a new thread on the assistant
// service; a non-empty id passes through unchanged with no existence
// check; an invalid id fails later, as the service dictates.
func (s *ChatService) ResolveSession(ctx context.Context, threadID string) (string, error) {
	if threadID != "" {
		return threadID, nil
	}
	thread, err := s.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	slog.Info("Created conversation thread", "threadId", thread.ID)
	return thread.ID, nil
}

// Invoke appends the user message to the thread, starts a run against
// the configured assistant, polls it to a terminal state, and returns
// the answer text with its annotations.
//
// Polling runs on the configured interval and is bounded by the
// configured deadline; a run still pending at the deadline returns a
// *RunTimeoutError. The remote run is not cancelled in that case and
// keeps consuming provider-side resources.
func (s *ChatService) Invoke(ctx context.Context, threadID, message string) (*datatypes.Answer, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.Invoke")
	defer span.End()

	_, err := s.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	run, err := s.api.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID:            s.cfg.AssistantID,
		AdditionalInstructions: runInstructions,
	})
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	span.SetAttributes(attribute.String("run.id", run.ID))

	run, err = s.pollRun(ctx, threadID, run)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run did not complete")
		return nil, err
	}

	return s.fetchAnswer(ctx, threadID)
}

// pollRun waits for the run to reach a terminal state. The deadline is
// enforced locally in addition to any deadline already on ctx.
func (s *ChatService) pollRun(ctx context.Context, threadID string, run openai.Run) (openai.Run, error) {
	start := time.Now()
	deadline := start.Add(s.cfg.PollTimeout)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		switch run.Status {
		case openai.RunStatusCompleted:
			if observability.DefaultMetrics != nil {
				observability.DefaultMetrics.RecordRunPoll(time.Since(start).Seconds(), "completed")
			}
			return run, nil
		case openai.RunStatusFailed:
			slog.Error("Assistant run failed", "runId", run.ID, "threadId", threadID)
			if observability.DefaultMetrics != nil {
				observability.DefaultMetrics.RecordRunPoll(time.Since(start).Seconds(), "failed")
			}
			return run, ErrRunFailed
		case openai.RunStatusCancelled:
			slog.Error("Assistant run cancelled", "runId", run.ID, "threadId", threadID)
			if observability.DefaultMetrics != nil {
				observability.DefaultMetrics.RecordRunPoll(time.Since(start).Seconds(), "cancelled")
			}
			return run, ErrRunCancelled
		}

		if time.Now().After(deadline) {
			slog.Error("Assistant run polling timed out",
				"runId", run.ID, "threadId", threadID, "status", run.Status, "elapsed", time.Since(start))
			if observability.DefaultMetrics != nil {
				observability.DefaultMetrics.RecordRunPoll(time.Since(start).Seconds(), "timeout")
			}
			return run, &RunTimeoutError{RunID: run.ID, Elapsed: time.Since(start)}
		}

		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-ticker.C:
		}

		var err error
		run, err = s.api.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return run, fmt.Errorf("retrieve run: %w", err)
		}
	}
}

// fetchAnswer reads the newest message in the thread and returns its
// first text block with decoded annotations.
func (s *ChatService) fetchAnswer(ctx context.Context, threadID string) (*datatypes.Answer, error) {
	limit := 1
	order := "desc"
	msgs, err := s.api.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(msgs.Messages) == 0 {
		return nil, ErrEmptyAnswer
	}

	for _, content := range msgs.Messages[0].Content {
		if content.Text == nil {
			continue
		}
		return &datatypes.Answer{
			Text:        content.Text.Value,
			Annotations: datatypes.DecodeAnnotations(content.Text.Annotations),
		}, nil
	}
	return nil, ErrEmptyAnswer
}

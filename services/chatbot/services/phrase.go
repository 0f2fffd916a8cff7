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
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"

	"github.com/naisha196/fasttrack-chatbot/services/chatbot/datatypes"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/observability"
)

// phraseSystemPrompt is the extraction contract: one 20-35 word phrase
// expected to appear word-for-word, exactly once, in the named source
// document. No quotes or commentary around it.
const phraseSystemPrompt = "You extract verbatim quotes. When given a question, an AI answer, " +
	"and the name of the source document the answer was based on, " +
	"return ONE phrase of 20-35 words that most likely appears word-for-word " +
	"in that source document. " +
	"The phrase MUST be unique enough to appear only ONCE in the document - " +
	"avoid short phrases, generic headings, or common words that could repeat many times. " +
	"Pick a full sentence or clause with specific, distinctive terminology. " +
	"Return ONLY the phrase itself - no quotes, no explanation, no punctuation around it."

// LocatePhrases derives one verbatim search phrase per distinct cited
// document, keyed by filename. Citations sharing a document share a
// phrase, so the number of generation calls equals the number of unique
// documents, not the number of citations.
//
// The underlying completion uses deterministic sampling and a small
// output budget. Any failure degrades to an empty phrase for that
// document: citation links still resolve, only the auto-locate highlight
// goes inert. This method never returns an error.
func (s *ChatService) LocatePhrases(ctx context.Context, question, answerText string, citations []datatypes.Citation) map[string]string {
	ctx, span := chatTracer.Start(ctx, "ChatService.LocatePhrases")
	defer span.End()

	phrases := make(map[string]string)
	for _, c := range citations {
		if _, seen := phrases[c.Filename]; seen {
			continue
		}
		phrases[c.Filename] = s.locatePhrase(ctx, question, answerText, c.Filename)
	}
	span.SetAttributes(attribute.Int("phrases.documents", len(phrases)))
	return phrases
}

func (s *ChatService) locatePhrase(ctx context.Context, question, answerText, filename string) string {
	resp, err := s.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.cfg.PhraseModel,
		MaxTokens: 100,
		// omitempty drops a literal 0, which would fall back to the
		// provider default temperature.
		Temperature: math.SmallestNonzeroFloat32,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: phraseSystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Question: %s\n\nAnswer: %s\n\nSource document: %s",
					question, answerText, filename),
			},
		},
	})
	if err != nil {
		slog.Warn("Verbatim phrase extraction failed", "file", filename, "error", err)
		if observability.DefaultMetrics != nil {
			observability.DefaultMetrics.RecordPhraseLookup(false)
		}
		return ""
	}
	if len(resp.Choices) == 0 {
		slog.Warn("Verbatim phrase extraction returned no choices", "file", filename)
		if observability.DefaultMetrics != nil {
			observability.DefaultMetrics.RecordPhraseLookup(false)
		}
		return ""
	}

	phrase := strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("Located verbatim phrase", "file", filename, "phrase", phrase)
	if observability.DefaultMetrics != nil {
		observability.DefaultMetrics.RecordPhraseLookup(true)
	}
	return phrase
}

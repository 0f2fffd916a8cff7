// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request, response, and citation data
// structures for the chatbot service.
//
// This file contains the chat turn types. For feedback types see
// feedback.go; for citation types see citation.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MaxMessageContentBytes is the maximum size of a single user message.
// Checks byte length, not rune count, to bound memory use.
const MaxMessageContentBytes = 32 * 1024 // 32KB

// chatValidate is the shared validator instance for chat datatypes.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// ChatRequest represents one conversational turn from the caller.
//
// # Description
//
// ChatRequest carries the user's message and, after the first turn, the
// thread id the assistant service issued for the conversation. Omitting
// ThreadID starts a fresh conversation; the issued id comes back in the
// ChatResponse and must be echoed on every later turn to preserve
// context. No existence check is performed on a supplied ThreadID: an
// invalid id fails downstream, as the assistant service dictates.
//
// # Fields
//
//   - Message: Required. The user's question. Limited to 32KB.
//   - ThreadID: Optional. Conversation thread to continue.
//   - RequestID: Optional. UUID v4 for tracing; generated when absent.
//   - Timestamp: Optional. Unix milliseconds (UTC); stamped when absent.
//
// # Examples
//
//	// First turn
//	req := ChatRequest{Message: "What is the filing deadline?"}
//
//	// Follow-up turn
//	req := ChatRequest{Message: "And for renewals?", ThreadID: "thread_abc"}
type ChatRequest struct {
	Message   string `json:"message" validate:"required,maxbytes"`
	ThreadID  string `json:"thread_id,omitempty"`
	RequestID string `json:"request_id,omitempty" validate:"omitempty,uuid4"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Validate validates the ChatRequest fields using the shared validator.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// EnsureDefaults populates RequestID and Timestamp when the client did
// not supply them, so every turn is traceable in logs and spans.
func (r *ChatRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = uuid.NewString()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
}

// ChatResponse is the wire response for POST /chat.
//
// Response is HTML: the assistant's answer with each grounded citation
// marker rewritten into an inline reference, plus an appended sources
// block when at least one citation was resolved. ThreadID is the
// conversation identifier the caller must send on the next turn.
type ChatResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
}

// ErrorResponse is the uniform failure body for every endpoint: HTTP 500
// with a short human-readable detail string. No structured error codes.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

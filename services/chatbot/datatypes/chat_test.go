// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestChatRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     ChatRequest
		wantErr bool
	}{
		{
			name: "valid minimal request",
			req:  ChatRequest{Message: "What is the filing deadline?"},
		},
		{
			name: "valid with thread and request id",
			req: ChatRequest{
				Message:   "Follow up",
				ThreadID:  "thread_abc",
				RequestID: uuid.NewString(),
			},
		},
		{
			name:    "empty message",
			req:     ChatRequest{},
			wantErr: true,
		},
		{
			name: "message over byte limit",
			req: ChatRequest{
				Message: strings.Repeat("x", MaxMessageContentBytes+1),
			},
			wantErr: true,
		},
		{
			name: "message exactly at byte limit",
			req: ChatRequest{
				Message: strings.Repeat("x", MaxMessageContentBytes),
			},
		},
		{
			name: "malformed request id",
			req: ChatRequest{
				Message:   "hi",
				RequestID: "not-a-uuid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChatRequestEnsureDefaults(t *testing.T) {
	req := ChatRequest{Message: "hi"}
	req.EnsureDefaults()

	if req.RequestID == "" {
		t.Error("RequestID not generated")
	}
	if _, err := uuid.Parse(req.RequestID); err != nil {
		t.Errorf("generated RequestID is not a uuid: %v", err)
	}
	if req.Timestamp == 0 {
		t.Error("Timestamp not stamped")
	}
}

func TestChatRequestEnsureDefaultsKeepsSupplied(t *testing.T) {
	id := uuid.NewString()
	req := ChatRequest{Message: "hi", RequestID: id, Timestamp: 42}
	req.EnsureDefaults()

	if req.RequestID != id || req.Timestamp != 42 {
		t.Errorf("supplied values overwritten: %+v", req)
	}
}

func TestFeedbackRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     FeedbackRequest
		wantErr bool
	}{
		{name: "minimum rating", req: FeedbackRequest{Rating: 1}},
		{name: "maximum rating", req: FeedbackRequest{Rating: 5}},
		{name: "with thread and comments", req: FeedbackRequest{ThreadID: "thread_a", Rating: 3, Comments: "ok"}},
		{name: "rating missing", req: FeedbackRequest{}, wantErr: true},
		{name: "rating too high", req: FeedbackRequest{Rating: 6}, wantErr: true},
		{name: "rating negative", req: FeedbackRequest{Rating: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewFeedbackRow(t *testing.T) {
	row := NewFeedbackRow(&FeedbackRequest{
		ThreadID: "thread_a",
		Rating:   5,
		Comments: "great",
	})

	if row.ThreadID != "thread_a" || row.Rating != 5 || row.Comments != "great" {
		t.Errorf("row fields wrong: %+v", row)
	}
	// Sink timestamp format: "2006-01-02 15:04:05".
	if len(row.Timestamp) != 19 || row.Timestamp[10] != ' ' {
		t.Errorf("unexpected timestamp format: %q", row.Timestamp)
	}
}

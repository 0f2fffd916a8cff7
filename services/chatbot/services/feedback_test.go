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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/naisha196/fasttrack-chatbot/services/chatbot/datatypes"
)

type sinkPayload struct {
	Data []datatypes.FeedbackRow `json:"data"`
}

func TestFeedbackRecord_AppendsRow(t *testing.T) {
	var received []sinkPayload
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		var p sinkPayload
		if err := json.Unmarshal(body, &p); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		received = append(received, p)
		w.WriteHeader(http.StatusCreated)
	}))
	defer sink.Close()

	svc := NewFeedbackService(sink.URL)
	req := &datatypes.FeedbackRequest{
		ThreadID: "thread_abc",
		Rating:   4,
		Comments: "helpful answer",
	}

	if err := svc.Record(context.Background(), req); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if len(received) != 1 || len(received[0].Data) != 1 {
		t.Fatalf("expected one row, got %+v", received)
	}
	row := received[0].Data[0]
	if row.ThreadID != "thread_abc" || row.Rating != 4 || row.Comments != "helpful answer" {
		t.Errorf("row fields wrong: %+v", row)
	}
	if row.Timestamp == "" {
		t.Error("row missing timestamp")
	}
}

func TestFeedbackRecord_IdenticalSubmissionsAppendSeparately(t *testing.T) {
	rows := 0
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rows++
		w.WriteHeader(http.StatusCreated)
	}))
	defer sink.Close()

	svc := NewFeedbackService(sink.URL)
	req := &datatypes.FeedbackRequest{Rating: 5, Comments: "same"}

	for i := 0; i < 2; i++ {
		if err := svc.Record(context.Background(), req); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}
	if rows != 2 {
		t.Errorf("expected 2 appended rows, got %d", rows)
	}
}

func TestFeedbackRecord_SinkNotConfigured(t *testing.T) {
	svc := NewFeedbackService("")

	err := svc.Record(context.Background(), &datatypes.FeedbackRequest{Rating: 3})
	if !errors.Is(err, ErrSinkNotConfigured) {
		t.Fatalf("expected ErrSinkNotConfigured, got %v", err)
	}
}

func TestFeedbackRecord_SinkRejection(t *testing.T) {
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer sink.Close()

	svc := NewFeedbackService(sink.URL)

	err := svc.Record(context.Background(), &datatypes.FeedbackRequest{Rating: 3})
	var status *SinkStatusError
	if !errors.As(err, &status) {
		t.Fatalf("expected SinkStatusError, got %v", err)
	}
	if status.StatusCode != http.StatusBadGateway {
		t.Errorf("wrong status in error: %d", status.StatusCode)
	}
}

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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/naisha196/fasttrack-chatbot/services/chatbot/datatypes"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/observability"
)

// FeedbackService appends feedback rows to a generic record-append sink
// (a SheetDB-style endpoint). The sink is best-effort and append-only:
// identical payloads produce independent rows, nothing is deduplicated,
// and failures are surfaced but never retried.
type FeedbackService struct {
	SinkURL string
	HTTP    *http.Client
}

// NewFeedbackService creates a FeedbackService. An empty sinkURL is
// allowed at construction; Record reports ErrSinkNotConfigured at
// request time, matching the lazy misconfiguration surface of the
// original deployment.
func NewFeedbackService(sinkURL string) *FeedbackService {
	return &FeedbackService{
		SinkURL: sinkURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Record appends one timestamped feedback row to the sink. Returns
// ErrSinkNotConfigured when no sink URL is set and *SinkStatusError when
// the sink answers with anything other than 200 or 201.
func (f *FeedbackService) Record(ctx context.Context, req *datatypes.FeedbackRequest) error {
	if f.SinkURL == "" {
		return ErrSinkNotConfigured
	}

	payload := map[string]any{
		"data": []datatypes.FeedbackRow{datatypes.NewFeedbackRow(req)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal feedback payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.SinkURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("build feedback request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post feedback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		slog.Warn("Feedback sink rejected row", "status", resp.StatusCode)
		if observability.DefaultMetrics != nil {
			observability.DefaultMetrics.RecordFeedback(false)
		}
		return &SinkStatusError{StatusCode: resp.StatusCode}
	}

	slog.Info("Feedback row appended", "threadId", req.ThreadID, "rating", req.Rating)
	if observability.DefaultMetrics != nil {
		observability.DefaultMetrics.RecordFeedback(true)
	}
	return nil
}

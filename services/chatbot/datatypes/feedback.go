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

import "time"

// FeedbackRequest is the body of POST /feedback. ThreadID is optional;
// feedback may arrive before any chat turn succeeded.
type FeedbackRequest struct {
	ThreadID string `json:"thread_id,omitempty"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comments string `json:"comments" validate:"maxbytes"`
}

// Validate validates the FeedbackRequest fields.
func (r *FeedbackRequest) Validate() error {
	return chatValidate.Struct(r)
}

// FeedbackRow is one appended record in the feedback sink. Field names
// match the sink's sheet columns, so renaming them changes the sheet.
type FeedbackRow struct {
	Timestamp string `json:"Timestamp"`
	ThreadID  string `json:"Thread ID"`
	Rating    int    `json:"Rating"`
	Comments  string `json:"Comments"`
}

// NewFeedbackRow stamps a row with the sink's timestamp format
// (YYYY-MM-DD HH:MM:SS, UTC).
func NewFeedbackRow(req *FeedbackRequest) FeedbackRow {
	return FeedbackRow{
		Timestamp: time.Now().UTC().Format("2006-01-02 15:04:05"),
		ThreadID:  req.ThreadID,
		Rating:    req.Rating,
		Comments:  req.Comments,
	}
}

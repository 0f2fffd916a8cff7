// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"

	"github.com/naisha196/fasttrack-chatbot/services/chatbot/datatypes"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/services"
)

// HandleFeedback appends one feedback row to the configured sink.
// Append-only and best-effort: duplicate submissions produce duplicate
// rows, and sink failures surface as a 500 without a retry.
func HandleFeedback(sink *services.FeedbackService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "HandleFeedback")
		defer span.End()

		var req datatypes.FeedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			slog.Error("Failed to parse the feedback request", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Detail: err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Detail: err.Error()})
			return
		}

		if err := sink.Record(ctx, &req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to record feedback", "threadId", req.ThreadID, "error", err)

			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Detail: feedbackErrorDetail(err)})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Feedback securely saved!",
		})
	}
}

// feedbackErrorDetail maps sink errors to the wire detail string. The
// two recognized failures keep their fixed details so the client can
// tell a missing sink from a rejecting one; anything else passes its
// message through.
func feedbackErrorDetail(err error) string {
	var sinkErr *services.SinkStatusError
	switch {
	case errors.Is(err, services.ErrSinkNotConfigured):
		return "Database configuration error."
	case errors.As(err, &sinkErr):
		return "Unexpected API status"
	default:
		return err.Error()
	}
}

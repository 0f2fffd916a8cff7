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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/naisha196/fasttrack-chatbot/services/chatbot/datatypes"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/observability"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/services"
)

var chatTracer = otel.Tracer("fasttrack.chatbot.handlers")

// HandleChat processes one conversational turn: resolve the thread,
// invoke the grounded run, and return the citation-rewritten HTML with
// the thread id. Every failure becomes a 500 with a short detail string;
// the client is never left without a JSON body.
func HandleChat(svc *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "HandleChat")
		defer span.End()

		var req datatypes.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the chat request", "error", err)
			recordChatStatus("error")
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Detail: err.Error()})
			return
		}

		resp, err := svc.Process(ctx, &req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Chat turn failed", "requestId", req.RequestID, "error", err)
			detail, status := chatErrorDetail(err)
			recordChatStatus(status)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Detail: detail})
			return
		}

		recordChatStatus("success")
		c.JSON(http.StatusOK, resp)
	}
}

// chatErrorDetail maps pipeline errors to the wire detail string and the
// metrics status label. Run failures keep their fixed detail strings so
// the client can distinguish failed, cancelled, and timed-out runs;
// anything else passes its message through.
func chatErrorDetail(err error) (detail, status string) {
	var timeout *services.RunTimeoutError
	switch {
	case errors.Is(err, services.ErrRunFailed):
		return "Run Failed", "run_failed"
	case errors.Is(err, services.ErrRunCancelled):
		return "Run Cancelled", "run_cancelled"
	case errors.As(err, &timeout):
		return "Run Timed Out", "timeout"
	default:
		return err.Error(), "error"
	}
}

func recordChatStatus(status string) {
	if observability.DefaultMetrics != nil {
		observability.DefaultMetrics.RecordRequest(status)
	}
}

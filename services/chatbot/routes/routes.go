// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/naisha196/fasttrack-chatbot/services/chatbot/handlers"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/services"
)

// SetupRoutes registers the chatbot's HTTP surface on the router.
//
// The static mounts are read-only: /static serves the viewer UI assets
// and /data_files serves the source documents the viewer fetches by
// filename when a citation reference is opened.
func SetupRoutes(router *gin.Engine, chatSvc *services.ChatService,
	feedbackSvc *services.FeedbackService, staticDir, dataFilesDir string) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/", handlers.ServeIndex(staticDir))
	router.Static("/static", staticDir)
	router.Static("/data_files", dataFilesDir)

	router.POST("/chat", handlers.HandleChat(chatSvc))
	router.POST("/feedback", handlers.HandleFeedback(feedbackSvc))
}

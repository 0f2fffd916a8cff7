// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package chatbot provides the core FastTrack chatbot service.
//
// This package contains the main Service type that coordinates all
// components: HTTP routing, the assistant API client, the citation
// pipeline, the feedback sink, and observability infrastructure.
//
// # Usage
//
//	cfg := chatbot.Config{Port: 8000, AssistantID: "asst_..."}
//	svc, err := chatbot.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package chatbot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/naisha196/fasttrack-chatbot/services/assistant"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/observability"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/routes"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/services"
)

// Service abstracts the chatbot lifecycle, enabling testing and
// alternative implementations. Run() blocks and should only be called
// once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing. Callers
	// must not modify routes after construction.
	Router() *gin.Engine
}

// Config holds chatbot service configuration.
//
// AssistantID is the only required field: the service refuses to start
// without it, so a misconfigured deployment fails fast instead of
// failing every chat turn (the original hard-coded the id in source).
type Config struct {
	// Port is the HTTP server port. Default: 8000.
	Port int

	// AssistantID addresses the remote assistant for every run.
	// Required.
	AssistantID string

	// PhraseModel is the model for verbatim phrase extraction.
	// Default: gpt-4o-mini.
	PhraseModel string

	// PollInterval is the run-status polling cadence. Default: 1s.
	PollInterval time.Duration

	// PollTimeout bounds total polling time per run. Default: 120s.
	PollTimeout time.Duration

	// SheetDBURL is the feedback sink endpoint. Optional; feedback
	// requests fail with a configuration error while it is empty.
	SheetDBURL string

	// StaticDir holds the entry page and viewer assets. Default: ./static.
	StaticDir string

	// DataFilesDir holds the source documents served to the viewer.
	// Default: ./data_files.
	DataFilesDir string

	// OTelEndpoint is the OpenTelemetry collector endpoint. Default:
	// value of OTEL_EXPORTER_OTLP_ENDPOINT, else localhost:4317.
	OTelEndpoint string

	// EnableMetrics enables the Prometheus /metrics endpoint. Default:
	// true in New(); disable in tests to avoid duplicate registration.
	EnableMetrics bool

	// GinMode sets the Gin framework mode ("debug", "release", "test").
	GinMode string
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = "./static"
	}
	if cfg.DataFilesDir == "" {
		cfg.DataFilesDir = "./data_files"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		if cfg.OTelEndpoint == "" {
			cfg.OTelEndpoint = "localhost:4317"
		}
	}
	return cfg
}

// service implements Service for production use. All fields are
// read-only after New() returns, so instances are safe for concurrent
// requests.
type service struct {
	config        Config
	router        *gin.Engine
	chatSvc       *services.ChatService
	feedbackSvc   *services.FeedbackService
	tracerCleanup func(context.Context)
}

// New creates a chatbot Service with the given configuration.
//
// Initialization order:
//  1. Apply defaults and validate the assistant id is present
//  2. Initialize OpenTelemetry tracing
//  3. Initialize Prometheus metrics
//  4. Build the assistant API client from the environment
//  5. Construct the chat pipeline and feedback sink
//  6. Register HTTP routes
//
// The data files directory is inventoried at startup so a misdeployed
// corpus is visible in the logs immediately.
func New(cfg Config) (Service, error) {
	cfg = applyConfigDefaults(cfg)
	if cfg.AssistantID == "" {
		return nil, fmt.Errorf("OPENAI_ASSISTANT_ID is required")
	}

	s := &service{config: cfg}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	if cfg.EnableMetrics {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics")
	}

	apiClient, err := assistant.NewClient()
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize assistant client: %w", err)
	}

	s.chatSvc, err = services.NewChatService(apiClient, services.Config{
		AssistantID:  cfg.AssistantID,
		PhraseModel:  cfg.PhraseModel,
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.PollTimeout,
	})
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize chat service: %w", err)
	}
	s.feedbackSvc = services.NewFeedbackService(cfg.SheetDBURL)

	logDataFileInventory(cfg.DataFilesDir)

	s.initRouter()
	return s, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting chatbot server", "port", s.config.Port)
	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// initTracer wires the OTLP/gRPC trace exporter and installs the global
// tracer provider and propagators.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("fasttrack-chatbot")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("fasttrack-chatbot"))

	// The original served the viewer from arbitrary origins.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"*"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, s.chatSvc, s.feedbackSvc,
		s.config.StaticDir, s.config.DataFilesDir)
	s.router = router
}

// logDataFileInventory lists the corpus directory at startup. A missing
// or empty directory is not fatal; the viewer just has nothing to open.
func logDataFileInventory(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("Could not read the data files directory", "dir", dir, "error", err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			slog.Info("Found data file", "name", e.Name())
		}
	}
}

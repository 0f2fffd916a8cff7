// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the chat turn handler

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naisha196/fasttrack-chatbot/services/chatbot/datatypes"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/services"
)

// =============================================================================
// Test doubles and helpers
// =============================================================================

// stubAPI scripts the assistant service for handler tests.
type stubAPI struct {
	runStatus   openai.RunStatus
	answerText  string
	annotations []any
	files       map[string]string
	phrases     map[string]string // filename -> phrase returned by the locator
	phraseCalls int
}

func (s *stubAPI) CreateThread(ctx context.Context, req openai.ThreadRequest) (openai.Thread, error) {
	return openai.Thread{ID: "thread_h1"}, nil
}

func (s *stubAPI) CreateMessage(ctx context.Context, threadID string, req openai.MessageRequest) (openai.Message, error) {
	return openai.Message{ID: "msg_1"}, nil
}

func (s *stubAPI) CreateRun(ctx context.Context, threadID string, req openai.RunRequest) (openai.Run, error) {
	return openai.Run{ID: "run_h1", Status: s.runStatus}, nil
}

func (s *stubAPI) RetrieveRun(ctx context.Context, threadID, runID string) (openai.Run, error) {
	return openai.Run{ID: runID, Status: s.runStatus}, nil
}

func (s *stubAPI) ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error) {
	return openai.MessagesList{
		Messages: []openai.Message{{
			Content: []openai.MessageContent{{
				Type: "text",
				Text: &openai.MessageText{Value: s.answerText, Annotations: s.annotations},
			}},
		}},
	}, nil
}

func (s *stubAPI) GetFile(ctx context.Context, fileID string) (openai.File, error) {
	name, ok := s.files[fileID]
	if !ok {
		return openai.File{}, errors.New("file not found")
	}
	return openai.File{ID: fileID, FileName: name}, nil
}

func (s *stubAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.phraseCalls++
	prompt := req.Messages[len(req.Messages)-1].Content
	phrase := ""
	for name, p := range s.phrases {
		if strings.Contains(prompt, name) {
			phrase = p
		}
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: phrase}},
		},
	}, nil
}

func annotation(marker, fileID string) map[string]any {
	return map[string]any{
		"type": "file_citation",
		"text": marker,
		"file_citation": map[string]any{
			"file_id": fileID,
		},
	}
}

func createTestRouter(t *testing.T, api *stubAPI) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, err := services.NewChatService(api, services.Config{
		AssistantID:  "asst_test",
		PollInterval: time.Millisecond,
		PollTimeout:  50 * time.Millisecond,
	})
	require.NoError(t, err)

	router := gin.New()
	router.POST("/chat", HandleChat(svc))
	return router
}

func performChat(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/chat", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

// =============================================================================
// HandleChat Tests
// =============================================================================

func TestHandleChat_GroundedAnswer(t *testing.T) {
	api := &stubAPI{
		runStatus:   openai.RunStatusCompleted,
		answerText:  "The fee is Rs 5000【4:0†src】 and processing takes a week【4:1†src】.",
		annotations: []any{annotation("【4:0†src】", "file-1"), annotation("【4:1†src】", "file-2")},
		files:       map[string]string{"file-1": "fees.pdf", "file-2": "timelines.pdf"},
		phrases:     map[string]string{"fees.pdf": "fee of Rs 5000", "timelines.pdf": "within seven working days"},
	}
	router := createTestRouter(t, api)

	w := performChat(router, `{"message":"What is the fee?"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "thread_h1", resp.ThreadID)
	assert.Contains(t, resp.Response, ">[1]</a>")
	assert.Contains(t, resp.Response, ">[2]</a>")
	assert.Contains(t, resp.Response, "fees.pdf")
	assert.Contains(t, resp.Response, "timelines.pdf")
	assert.Contains(t, resp.Response, "sources-container")
	assert.NotContains(t, resp.Response, "【4:0†src】")
	assert.NotContains(t, resp.Response, "%%CITATION_")
}

func TestHandleChat_UncitedAnswerPassesThrough(t *testing.T) {
	api := &stubAPI{
		runStatus:  openai.RunStatusCompleted,
		answerText: "That is outside the documents I have.",
	}
	router := createTestRouter(t, api)

	w := performChat(router, `{"message":"Off-topic question"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "That is outside the documents I have.", resp.Response)
	assert.NotContains(t, resp.Response, "sources-container")
	assert.Zero(t, api.phraseCalls)
}

func TestHandleChat_SharedDocumentSharesPhrase(t *testing.T) {
	api := &stubAPI{
		runStatus:   openai.RunStatusCompleted,
		answerText:  "Fact one【4:0†a】 and fact two【4:1†b】.",
		annotations: []any{annotation("【4:0†a】", "file-1"), annotation("【4:1†b】", "file-1")},
		files:       map[string]string{"file-1": "guide.pdf"},
		phrases:     map[string]string{"guide.pdf": "one phrase for both"},
	}
	router := createTestRouter(t, api)

	w := performChat(router, `{"message":"Two facts please"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, api.phraseCalls, "one locator call per distinct document")

	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// Two cards, both carrying the shared phrase; each citation also
	// embeds the phrase in its inline reference, so it appears four
	// times in total.
	assert.Equal(t, 2, strings.Count(resp.Response, "citation-card"))
	assert.Equal(t, 4, strings.Count(resp.Response, "one phrase for both"))
}

func TestHandleChat_InvalidJSON(t *testing.T) {
	router := createTestRouter(t, &stubAPI{runStatus: openai.RunStatusCompleted})

	w := performChat(router, "{invalid json")

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp datatypes.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Detail)
}

func TestHandleChat_RunFailureDetails(t *testing.T) {
	tests := []struct {
		name       string
		status     openai.RunStatus
		wantDetail string
	}{
		{name: "failed run", status: openai.RunStatusFailed, wantDetail: "Run Failed"},
		{name: "cancelled run", status: openai.RunStatusCancelled, wantDetail: "Run Cancelled"},
		{name: "stuck run", status: openai.RunStatusInProgress, wantDetail: "Run Timed Out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := createTestRouter(t, &stubAPI{runStatus: tt.status})

			w := performChat(router, `{"message":"Hi"}`)

			assert.Equal(t, http.StatusInternalServerError, w.Code)

			var resp datatypes.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantDetail, resp.Detail)
		})
	}
}

func TestHandleChat_EmptyMessageRejected(t *testing.T) {
	router := createTestRouter(t, &stubAPI{runStatus: openai.RunStatusCompleted})

	w := performChat(router, `{"message":""}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp datatypes.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Detail)
}

func TestHandleChat_EchoesSuppliedThread(t *testing.T) {
	api := &stubAPI{
		runStatus:  openai.RunStatusCompleted,
		answerText: "Continuing the conversation.",
	}
	router := createTestRouter(t, api)

	w := performChat(router, `{"message":"More","thread_id":"thread_prior"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "thread_prior", resp.ThreadID)
}

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/upb/shopping-assistant/internal/rag"
	"github.com/upb/shopping-assistant/middleware"
	"github.com/upb/shopping-assistant/services"
	"github.com/upb/shopping-assistant/services/assistant"
	"github.com/upb/shopping-assistant/services/generation"
)

// stubEmbedder, stubRetriever and stubGenerator drive a real assistant.Service
type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) (rag.Embedding, error) {
	return rag.Embedding{0.1, 0.2}, nil
}

type stubRetriever struct {
	matches []rag.Match
}

func (s stubRetriever) Retrieve(ctx context.Context, vector rag.Embedding, k int) ([]rag.Match, error) {
	return s.matches, nil
}

type stubGenerator struct {
	answer string
	err    error
}

func (s stubGenerator) Generate(ctx context.Context, promptContext, question string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return generation.FilterAnswer(s.answer), nil
}

func newPipeline(t *testing.T, retriever stubRetriever, generator stubGenerator) *assistant.Service {
	return assistant.NewService(stubEmbedder{}, retriever, generator, assistant.DefaultConfig(), zaptest.NewLogger(t))
}

func postGenerate(h *GenerateHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	req = req.WithContext(middleware.WithRequestID(req.Context(), "req-1"))
	w := httptest.NewRecorder()
	h.HandleGenerate(w, req)
	return w
}

func TestHandleGenerate(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(m *MockAssistant)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			body: `{"messages":[{"sender":"user","content":"Is it waterproof?"}]}`,
			setupMock: func(m *MockAssistant) {
				m.On("Handle", mock.Anything, assistant.Request{
					RequestID: "req-1",
					Messages:  []rag.ChatMessage{{Sender: rag.SenderUser, Content: "Is it waterproof?"}},
				}).Return(&assistant.Response{Answer: "Yes, rated IPX7."}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"answer":"Yes, rated IPX7."}`,
		},
		{
			name:           "missing messages",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request body. \"messages\" must be an array."}`,
		},
		{
			name:           "messages not an array",
			body:           `{"messages":"hello"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request body. \"messages\" must be an array."}`,
		},
		{
			name: "last sender is assistant",
			body: `{"messages":[{"sender":"assistant","content":"Hi"}]}`,
			setupMock: func(m *MockAssistant) {
				m.On("Handle", mock.Anything, mock.Anything).Return(nil, services.ErrLastMessageNotUser)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Last message must be from user."}`,
		},
		{
			name: "upstream failure",
			body: `{"messages":[{"sender":"user","content":"x"}]}`,
			setupMock: func(m *MockAssistant) {
				m.On("Handle", mock.Anything, mock.Anything).
					Return(nil, services.NewUpstreamError("bedrock", "invoke failed", errBoom))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Failed to generate response"}`,
		},
		{
			name: "timeout",
			body: `{"messages":[{"sender":"user","content":"x"}]}`,
			setupMock: func(m *MockAssistant) {
				m.On("Handle", mock.Anything, mock.Anything).
					Return(nil, services.NewUpstreamError("pinecone", "query failed", context.DeadlineExceeded))
			},
			expectedStatus: http.StatusGatewayTimeout,
			expectedBody:   `{"error":"Upstream service timed out"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockAssistant)
			if tt.setupMock != nil {
				tt.setupMock(m)
			}
			h := NewGenerateHandler(m, zaptest.NewLogger(t))

			w := postGenerate(h, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			m.AssertExpectations(t)
		})
	}
}

func TestHandleGenerate_Pipeline(t *testing.T) {
	t.Run("answer from retrieved context", func(t *testing.T) {
		svc := newPipeline(t,
			stubRetriever{matches: []rag.Match{{Content: "A"}, {Content: "B"}}},
			stubGenerator{answer: "Yes."})

		w := postGenerate(NewGenerateHandler(svc, zaptest.NewLogger(t)),
			`{"messages":[{"sender":"user","content":"Does it fold?"}]}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"answer":"Yes."}`, w.Body.String())
	})

	t.Run("no matches and generation failure", func(t *testing.T) {
		svc := newPipeline(t, stubRetriever{}, stubGenerator{err: services.NewUpstreamError("bedrock", "invoke failed", errBoom)})

		w := postGenerate(NewGenerateHandler(svc, zaptest.NewLogger(t)),
			`{"messages":[{"sender":"user","content":"Does it fold?"}]}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Failed to generate response"}`, w.Body.String())
	})

	t.Run("hedging answer replaced", func(t *testing.T) {
		svc := newPipeline(t, stubRetriever{}, stubGenerator{answer: "Based on the details, this product is great."})

		w := postGenerate(NewGenerateHandler(svc, zaptest.NewLogger(t)),
			`{"messages":[{"sender":"user","content":"Is it good?"}]}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"answer":"I'm unable to answer that right now. Try asking something else."}`, w.Body.String())
	})

	t.Run("empty messages array", func(t *testing.T) {
		svc := newPipeline(t, stubRetriever{}, stubGenerator{answer: "unused"})

		w := postGenerate(NewGenerateHandler(svc, zaptest.NewLogger(t)), `{"messages":[]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Last message must be from user."}`, w.Body.String())
	})

	t.Run("malformed last element", func(t *testing.T) {
		for _, body := range []string{
			`{"messages":["hi"]}`,
			`{"messages":[42]}`,
			`{"messages":[{"sender":"user","content":"q"},{"sender":7,"content":"x"}]}`,
		} {
			svc := newPipeline(t, stubRetriever{}, stubGenerator{answer: "unused"})

			w := postGenerate(NewGenerateHandler(svc, zaptest.NewLogger(t)), body)

			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			assert.JSONEq(t, `{"error":"Last message must be from user."}`, w.Body.String(), body)
		}
	})

	t.Run("numeric history content is answered", func(t *testing.T) {
		svc := newPipeline(t, stubRetriever{matches: []rag.Match{{Content: "A"}}}, stubGenerator{answer: "Yes."})

		w := postGenerate(NewGenerateHandler(svc, zaptest.NewLogger(t)),
			`{"messages":[{"sender":"assistant","content":5},{"sender":"user","content":"q"}]}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"answer":"Yes."}`, w.Body.String())
	})
}

func TestHandleMethodNotAllowed(t *testing.T) {
	h := NewGenerateHandler(new(MockAssistant), zaptest.NewLogger(t))
	w := httptest.NewRecorder()

	h.HandleMethodNotAllowed(w, httptest.NewRequest(http.MethodGet, "/generate", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))
	assert.JSONEq(t, `{"error":"Method not allowed. Use POST."}`, w.Body.String())
}

package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/upb/shopping-assistant/services/assistant"
)

const testOrigin = "https://shop.example.com"

func lambdaEvent(method, body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		Body: body,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RequestID: "gw-req-1",
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: method,
				Path:   "/generate",
			},
		},
	}
}

func newLambda(t *testing.T, m *MockAssistant) *LambdaHandler {
	logger := zaptest.NewLogger(t)
	return NewLambdaHandler(NewGenerateHandler(m, logger), testOrigin, logger)
}

func TestLambdaHandler_MethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			m := new(MockAssistant)

			resp, err := newLambda(t, m).Handle(context.Background(), lambdaEvent(method, ""))
			require.NoError(t, err)

			assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
			assert.JSONEq(t, `{"error":"Method not allowed. Use POST."}`, resp.Body)
			assert.Equal(t, http.MethodPost, resp.Headers["Allow"])
			m.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
		})
	}
}

func TestLambdaHandler_Post(t *testing.T) {
	m := new(MockAssistant)
	m.On("Handle", mock.Anything, mock.MatchedBy(func(req assistant.Request) bool {
		return req.RequestID == "gw-req-1" && len(req.Messages) == 1
	})).Return(&assistant.Response{Answer: "It ships in two days."}, nil)

	resp, err := newLambda(t, m).Handle(context.Background(),
		lambdaEvent(http.MethodPost, `{"messages":[{"sender":"user","content":"Shipping?"}]}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"answer":"It ships in two days."}`, resp.Body)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, testOrigin, resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "true", resp.Headers["Access-Control-Allow-Credentials"])
	assert.Equal(t, "gw-req-1", resp.Headers["X-Request-ID"])
	m.AssertExpectations(t)
}

func TestLambdaHandler_Base64Body(t *testing.T) {
	m := new(MockAssistant)
	m.On("Handle", mock.Anything, mock.Anything).Return(&assistant.Response{Answer: "Yes."}, nil)

	event := lambdaEvent(http.MethodPost, base64.StdEncoding.EncodeToString(
		[]byte(`{"messages":[{"sender":"user","content":"Blue?"}]}`)))
	event.IsBase64Encoded = true

	resp, err := newLambda(t, m).Handle(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"answer":"Yes."}`, resp.Body)
}

func TestLambdaHandler_InvalidBody(t *testing.T) {
	tests := []struct {
		name     string
		event    events.APIGatewayV2HTTPRequest
		expected string
	}{
		{
			name:     "missing messages",
			event:    lambdaEvent(http.MethodPost, `{"foo":1}`),
			expected: `{"error":"Invalid request body. \"messages\" must be an array."}`,
		},
		{
			name: "bad base64",
			event: func() events.APIGatewayV2HTTPRequest {
				e := lambdaEvent(http.MethodPost, "%%%")
				e.IsBase64Encoded = true
				return e
			}(),
			expected: `{"error":"Invalid request body. \"messages\" must be an array."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockAssistant)

			resp, err := newLambda(t, m).Handle(context.Background(), tt.event)
			require.NoError(t, err)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.JSONEq(t, tt.expected, resp.Body)
			m.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
		})
	}
}

func TestRequestIDFromEvent(t *testing.T) {
	event := lambdaEvent(http.MethodPost, "")
	assert.Equal(t, "gw-req-1", requestIDFromEvent(event))

	event.Headers = map[string]string{"x-request-id": "client-7"}
	assert.Equal(t, "client-7", requestIDFromEvent(event))

	event.Headers = nil
	event.RequestContext.RequestID = ""
	assert.NotEmpty(t, requestIDFromEvent(event))
}

func TestLambdaHandler_LenientElements(t *testing.T) {
	logger := zaptest.NewLogger(t)
	svc := assistant.NewService(stubEmbedder{}, stubRetriever{}, stubGenerator{answer: "Yes."}, assistant.DefaultConfig(), logger)
	h := NewLambdaHandler(NewGenerateHandler(svc, logger), testOrigin, logger)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "string element",
			body:           `{"messages":["hi"]}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Last message must be from user."}`,
		},
		{
			name:           "number element",
			body:           `{"messages":[42]}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Last message must be from user."}`,
		},
		{
			name:           "numeric sender last",
			body:           `{"messages":[{"sender":"user","content":"q"},{"sender":7,"content":"x"}]}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Last message must be from user."}`,
		},
		{
			name:           "numeric history content",
			body:           `{"messages":[{"sender":"assistant","content":5},{"sender":"user","content":"q"}]}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"answer":"Yes."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := h.Handle(context.Background(), lambdaEvent(http.MethodPost, tt.body))
			require.NoError(t, err)

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.JSONEq(t, tt.expectedBody, resp.Body)
		})
	}
}

package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		w := httptest.NewRecorder()
		data := map[string]string{"answer": "test"}

		err := WriteJSON(w, http.StatusOK, data)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response map[string]string
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)
		assert.Equal(t, "test", response["answer"])
	})

	t.Run("nil data", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusNoContent, nil)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteOK(w, map[string]string{"answer": "Yes."}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"answer":"Yes."}`, w.Body.String())
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name     string
		write    func(w http.ResponseWriter) error
		status   int
		expected string
	}{
		{
			name:     "bad request",
			write:    func(w http.ResponseWriter) error { return WriteBadRequest(w, "Last message must be from user.") },
			status:   http.StatusBadRequest,
			expected: `{"error":"Last message must be from user."}`,
		},
		{
			name:     "not found default",
			write:    func(w http.ResponseWriter) error { return WriteNotFound(w, "") },
			status:   http.StatusNotFound,
			expected: `{"error":"endpoint not found"}`,
		},
		{
			name:     "internal error",
			write:    func(w http.ResponseWriter) error { return WriteInternalServerError(w, "Failed to generate response") },
			status:   http.StatusInternalServerError,
			expected: `{"error":"Failed to generate response"}`,
		},
		{
			name:     "internal error default",
			write:    func(w http.ResponseWriter) error { return WriteInternalServerError(w, "") },
			status:   http.StatusInternalServerError,
			expected: `{"error":"Internal server error"}`,
		},
		{
			name:     "gateway timeout",
			write:    func(w http.ResponseWriter) error { return WriteGatewayTimeout(w, "Upstream service timed out") },
			status:   http.StatusGatewayTimeout,
			expected: `{"error":"Upstream service timed out"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expected, w.Body.String())
		})
	}
}

func TestWriteMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteMethodNotAllowed(w, "Method not allowed. Use POST.", http.MethodPost))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "POST", w.Header().Get("Allow"))
	assert.JSONEq(t, `{"error":"Method not allowed. Use POST."}`, w.Body.String())
}

func TestWriteText(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteText(w, http.StatusOK, "running"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "running", w.Body.String())
}

package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/upb/shopping-assistant/internal/rag"
	"github.com/upb/shopping-assistant/services"
	"github.com/upb/shopping-assistant/services/providers"
)

const (
	// DefaultTopK is the number of snippets fetched per question.
	DefaultTopK = 3

	// DefaultControllerURL is the Pinecone control plane used to resolve index hosts.
	DefaultControllerURL = "https://api.pinecone.io"

	serviceName = "pinecone"
	apiVersion  = "2024-07"
)

// Config holds Pinecone connection settings.
type Config struct {
	APIKey        string
	IndexName     string
	IndexHost     string // skips control plane lookup when set
	ControllerURL string
	Timeout       time.Duration
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string                 `json:"id"`
		Score    float64                `json:"score"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"matches"`
}

type describeIndexResponse struct {
	Name string `json:"name"`
	Host string `json:"host"`
}

// PineconeRetriever queries a Pinecone index over its REST API.
type PineconeRetriever struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger

	resolve singleflight.Group
	mu      sync.RWMutex
	host    string
}

// NewPineconeRetriever creates a retriever. The index host is resolved on first use
// unless cfg.IndexHost is set.
func NewPineconeRetriever(cfg Config, logger *zap.Logger) *PineconeRetriever {
	if cfg.ControllerURL == "" {
		cfg.ControllerURL = DefaultControllerURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	r := &PineconeRetriever{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
	if cfg.IndexHost != "" {
		r.host = normalizeHost(cfg.IndexHost)
	}
	return r
}

// Retrieve returns up to k matches for vector, in index order, skipping
// matches that carry no content.
func (r *PineconeRetriever) Retrieve(ctx context.Context, vector rag.Embedding, k int) ([]rag.Match, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	host, err := r.indexHost(ctx)
	if err != nil {
		return nil, err
	}

	req := queryRequest{
		Vector:          vector,
		TopK:            k,
		IncludeMetadata: true,
	}
	var resp queryResponse
	if err := r.do(ctx, http.MethodPost, host+"/query", req, &resp); err != nil {
		return nil, services.NewUpstreamError(serviceName, "vector query failed", err).
			WithDetail("index", r.cfg.IndexName)
	}

	matches := make([]rag.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		content, ok := m.Metadata["content"].(string)
		if !ok || content == "" {
			continue
		}
		matches = append(matches, rag.Match{ID: m.ID, Content: content, Score: m.Score})
	}

	r.logger.Debug("vector query completed",
		zap.String("index", r.cfg.IndexName),
		zap.Int("top_k", k),
		zap.Int("returned", len(resp.Matches)),
		zap.Int("with_content", len(matches)))

	return matches, nil
}

// indexHost returns the data plane host, resolving it from the control plane
// on first use. Concurrent callers share one lookup; a failed lookup is
// retried by the next call.
func (r *PineconeRetriever) indexHost(ctx context.Context) (string, error) {
	r.mu.RLock()
	host := r.host
	r.mu.RUnlock()
	if host != "" {
		return host, nil
	}

	v, err, _ := r.resolve.Do(r.cfg.IndexName, func() (interface{}, error) {
		return r.describeIndex(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *PineconeRetriever) describeIndex(ctx context.Context) (string, error) {
	var desc describeIndexResponse
	url := strings.TrimRight(r.cfg.ControllerURL, "/") + "/indexes/" + r.cfg.IndexName
	if err := r.do(ctx, http.MethodGet, url, nil, &desc); err != nil {
		return "", services.NewUpstreamError(serviceName, "failed to describe index", err).
			WithDetail("index", r.cfg.IndexName)
	}
	if desc.Host == "" {
		return "", services.NewUpstreamError(serviceName, "index has no host", nil).
			WithDetail("index", r.cfg.IndexName)
	}

	host := normalizeHost(desc.Host)

	r.mu.Lock()
	r.host = host
	r.mu.Unlock()

	r.logger.Info("resolved pinecone index host",
		zap.String("index", r.cfg.IndexName),
		zap.String("host", host))
	return host, nil
}

func (r *PineconeRetriever) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", r.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Pinecone-API-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return providers.NewProviderError(serviceName, "HTTP_ERROR",
			fmt.Sprintf("%s %s returned %d: %s", method, url, resp.StatusCode, strings.TrimSpace(string(msg))),
			resp.StatusCode, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func normalizeHost(host string) string {
	host = strings.TrimRight(host, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}

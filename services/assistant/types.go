package assistant

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/upb/shopping-assistant/internal/rag"
	"github.com/upb/shopping-assistant/models"
	"github.com/upb/shopping-assistant/services"
	"github.com/upb/shopping-assistant/utils"
)

// GenerateRequest is the decoded body accepted by both deployment adapters
type GenerateRequest struct {
	Messages []rag.ChatMessage
}

// requestBody only requires "messages" to be an array; elements are read leniently.
type requestBody struct {
	Messages []json.RawMessage `json:"messages" validate:"required"`
}

// GenerateResponse is the success body
type GenerateResponse struct {
	Answer string `json:"answer"`
}

// Request is the service-level input for one question
type Request struct {
	RequestID string
	Messages  []rag.ChatMessage
}

// Response is the result of a completed pipeline run
type Response struct {
	RequestID  string
	Answer     string
	Fallback   bool
	MatchCount int
	Latency    time.Duration
}

// Recorder receives finished interactions
type Recorder interface {
	Record(interaction *models.Interaction) error
}

// Config holds pipeline settings
type Config struct {
	TopK            int
	UpstreamTimeout time.Duration
}

// DefaultConfig returns the default pipeline settings
func DefaultConfig() Config {
	return Config{
		TopK:            3,
		UpstreamTimeout: 30 * time.Second,
	}
}

// DecodeRequest parses a request body. Anything other than an object with a
// "messages" array yields services.ErrInvalidBody. Array elements never fail
// decoding: a non-object element, or a sender that is not a string, becomes a
// message with an empty sender.
func DecodeRequest(body []byte) (*GenerateRequest, error) {
	var raw requestBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, services.ErrInvalidBody
	}
	if err := utils.ValidateStruct(&raw); err != nil {
		return nil, services.ErrInvalidBody
	}

	messages := make([]rag.ChatMessage, 0, len(raw.Messages))
	for _, elem := range raw.Messages {
		messages = append(messages, decodeMessage(elem))
	}
	return &GenerateRequest{Messages: messages}, nil
}

func decodeMessage(elem json.RawMessage) rag.ChatMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(elem, &fields); err != nil {
		return rag.ChatMessage{}
	}

	var msg rag.ChatMessage
	var sender string
	if err := json.Unmarshal(fields["sender"], &sender); err == nil {
		msg.Sender = rag.Sender(sender)
	}
	msg.Content = scalarText(fields["content"])
	return msg
}

// scalarText renders a JSON string, number or boolean as text. Null, missing
// and composite values render as "".
func scalarText(value json.RawMessage) string {
	var v interface{}
	if len(value) == 0 || json.Unmarshal(value, &v) != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strings.TrimSpace(string(value))
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// pipelineState tracks one run for logging, metrics and audit
type pipelineState struct {
	requestID  string
	question   string
	history    []rag.ChatMessage
	matchCount int
	startTime  time.Time
}

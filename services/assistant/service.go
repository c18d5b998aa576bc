package assistant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/shopping-assistant/internal/observability"
	"github.com/upb/shopping-assistant/internal/rag"
	"github.com/upb/shopping-assistant/internal/redact"
	"github.com/upb/shopping-assistant/models"
	"github.com/upb/shopping-assistant/services"
	"github.com/upb/shopping-assistant/services/generation"
	"github.com/upb/shopping-assistant/services/prompt"
	"github.com/upb/shopping-assistant/services/providers"
)

// Service answers chat widget questions: embed, retrieve, assemble, generate.
// Stages run strictly one after another within a single request.
type Service struct {
	embedder  rag.Embedder
	retriever rag.Retriever
	generator rag.Generator
	recorder  Recorder
	metrics   observability.Metrics
	cfg       Config
	logger    *zap.Logger
}

// Option customizes a Service
type Option func(*Service)

// WithRecorder records every finished interaction
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithMetrics sets the metrics sink
func WithMetrics(m observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new assistant service
func NewService(
	embedder rag.Embedder,
	retriever rag.Retriever,
	generator rag.Generator,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	s := &Service{
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
		metrics:   observability.NopMetrics{},
		cfg:       cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks the message list and splits it into question and history.
func Validate(messages []rag.ChatMessage) (question string, history []rag.ChatMessage, err error) {
	if messages == nil {
		return "", nil, services.ErrInvalidBody
	}
	if len(messages) == 0 || messages[len(messages)-1].Sender != rag.SenderUser {
		return "", nil, services.ErrLastMessageNotUser
	}
	last := len(messages) - 1
	return messages[last].Content, messages[:last], nil
}

// Handle runs the full pipeline for one request.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := observability.WithRequestID(s.logger, requestID)

	question, history, err := Validate(req.Messages)
	if err != nil {
		s.metrics.IncRequest(observability.OutcomeInvalid)
		logger.Debug("rejected generate request", zap.Error(err))
		return nil, err
	}

	state := &pipelineState{
		requestID: requestID,
		question:  question,
		history:   history,
		startTime: time.Now(),
	}

	logger.Info("starting answer pipeline",
		zap.Int("history_turns", len(history)),
		zap.Int("question_length", len(question)))

	answer, err := s.run(ctx, state, logger)
	latency := time.Since(state.startTime)
	s.metrics.ObserveStage(observability.StageTotal, latency)

	if err != nil {
		err = classify(err)
		outcome := observability.OutcomeUpstreamFail
		switch {
		case services.IsTimeoutError(err):
			outcome = observability.OutcomeTimeout
		case services.IsInternalError(err):
			outcome = observability.OutcomeInternal
		}
		s.metrics.IncRequest(outcome)
		logger.Error("answer pipeline failed",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))),
			zap.Int("upstream_status", providers.StatusCode(err)),
			zap.Int("match_count", state.matchCount),
			zap.Int64("latency_ms", latency.Milliseconds()))
		s.record(logger, state, "", err, latency)
		return nil, err
	}

	fallback := answer == generation.FallbackAnswer
	if fallback {
		s.metrics.IncFallback()
	}
	s.metrics.IncRequest(observability.OutcomeSuccess)

	logger.Info("answer pipeline completed",
		zap.Int("match_count", state.matchCount),
		zap.Bool("fallback", fallback),
		zap.Int64("latency_ms", latency.Milliseconds()))

	s.record(logger, state, answer, nil, latency)

	return &Response{
		RequestID:  requestID,
		Answer:     answer,
		Fallback:   fallback,
		MatchCount: state.matchCount,
		Latency:    latency,
	}, nil
}

func (s *Service) run(ctx context.Context, state *pipelineState, logger *zap.Logger) (string, error) {
	if s.cfg.UpstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.UpstreamTimeout)
		defer cancel()
	}

	// Step 1: embed the question
	logger.Debug("step 1: embedding question")
	start := time.Now()
	vector, err := s.embedder.Embed(ctx, state.question)
	s.metrics.ObserveStage(observability.StageEmbed, time.Since(start))
	if err != nil {
		return "", stageError(ctx, "embedding", err)
	}

	// Step 2: fetch product snippets
	logger.Debug("step 2: querying vector index", zap.Int("top_k", s.cfg.TopK))
	start = time.Now()
	matches, err := s.retriever.Retrieve(ctx, vector, s.cfg.TopK)
	s.metrics.ObserveStage(observability.StageRetrieve, time.Since(start))
	if err != nil {
		return "", stageError(ctx, "retrieval", err)
	}
	state.matchCount = len(matches)
	s.metrics.ObserveMatches(len(matches))

	// Step 3: assemble the prompt
	assembled := prompt.Assemble(matches, state.history, state.question)
	logger.Debug("step 3: prompt assembled",
		zap.Int("match_count", len(matches)),
		zap.Int("context_length", len(assembled.ContextText)))

	// Step 4: generate and filter the answer
	logger.Debug("step 4: generating answer")
	start = time.Now()
	answer, err := s.generator.Generate(ctx, assembled.Body(), assembled.Question)
	s.metrics.ObserveStage(observability.StageGenerate, time.Since(start))
	if err != nil {
		return "", stageError(ctx, "generation", err)
	}

	return answer, nil
}

// stageError turns a failure into a timeout once the pipeline deadline has passed.
func stageError(ctx context.Context, stage string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !services.IsTimeoutError(err) {
		return services.NewDomainError(services.ErrorTypeTimeout, stage+" timed out", err).
			WithDetail("stage", stage)
	}
	return err
}

// classify maps a stage failure onto the upstream, timeout or internal error
// types. Stage validation failures (such as an empty question reaching the
// embedder) are upstream failures from the caller's point of view; errors that
// carry no domain type are internal.
func classify(err error) error {
	switch {
	case services.IsTimeoutError(err), services.IsUpstreamError(err), services.IsInternalError(err):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return services.NewUpstreamError("pipeline", "upstream deadline exceeded", err)
	case services.IsValidationError(err):
		return services.NewDomainError(services.ErrorTypeUpstream, "answer pipeline failed", err)
	default:
		return services.WrapInternal("answer pipeline failed", err)
	}
}

func (s *Service) record(logger *zap.Logger, state *pipelineState, answer string, err error, latency time.Duration) {
	if s.recorder == nil {
		return
	}

	// stored text never carries shopper contact or card details
	interaction := models.NewInteraction(state.requestID, redact.Text(state.question), len(state.history))
	latencyMs := int(latency.Milliseconds())
	switch {
	case err == nil:
		interaction.MarkAnswered(redact.Text(answer), answer == generation.FallbackAnswer, state.matchCount, latencyMs)
	case services.IsTimeoutError(err):
		interaction.MarkFailed(models.InteractionOutcomeTimeout, err.Error(), state.matchCount, latencyMs)
	default:
		interaction.MarkFailed(models.InteractionOutcomeFailed, err.Error(), state.matchCount, latencyMs)
	}

	if recErr := s.recorder.Record(interaction); recErr != nil {
		logger.Warn("failed to queue interaction record", zap.Error(recErr))
	}
}

package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/shopping-assistant/models"
	"github.com/upb/shopping-assistant/repositories"
	"go.uber.org/zap"
)

// AuditService persists interactions in the background so that storage
// latency never reaches the chat response.
type AuditService struct {
	repo        repositories.InteractionRepository
	logger      *zap.Logger
	eventChan   chan *models.Interaction
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	stopped     bool
	mu          sync.Mutex
	dropped     int
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the interaction buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repositories.InteractionRepository, logger *zap.Logger, config Config) *AuditService {
	ctx, cancel := context.WithCancel(context.Background())

	return &AuditService{
		repo:        repo,
		logger:      logger,
		eventChan:   make(chan *models.Interaction, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop stops accepting interactions and waits for queued ones to be written
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.stopped = true
	close(s.eventChan)
	pending := len(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_interactions", pending))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// Record queues an interaction without blocking. A full buffer drops it.
func (s *AuditService) Record(interaction *models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return fmt.Errorf("audit service not started")
	}

	select {
	case s.eventChan <- interaction:
		return nil
	default:
		s.dropped++
		s.logger.Warn("audit buffer full, dropping interaction",
			zap.String("request_id", interaction.RequestID),
			zap.String("outcome", string(interaction.Outcome)))
		return fmt.Errorf("audit buffer full")
	}
}

func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for interaction := range s.eventChan {
		if err := s.process(interaction); err != nil {
			s.logger.Error("failed to record interaction",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("request_id", interaction.RequestID))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (s *AuditService) process(interaction *models.Interaction) error {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	return s.repo.Insert(ctx, interaction)
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:  s.bufferSize,
		Pending:     len(s.eventChan),
		WorkerCount: s.workerCount,
		Started:     s.started && !s.stopped,
		Dropped:     s.dropped,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize  int
	Pending     int
	WorkerCount int
	Started     bool
	Dropped     int
}

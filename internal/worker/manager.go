package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"admarket/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second
)

// Manager orchestrates worker goroutines that consume from Redis Streams.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	workerCount int
	batchSize   int64
	blockTime   time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
}

// NewManager creates a new worker manager.
func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
	}
}

// Start begins the worker goroutines. Call Stop() to gracefully shut down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamCleanup, queue.ConsumerGroupCleanup); err != nil {
		return err
	}

	for i := 0; i < m.workerCount; i++ {
		workerID := i + 1
		consumerName := fmt.Sprintf("worker-%d", workerID)

		m.wg.Add(1)
		go m.runWorker(workerID, consumerName)
	}

	log.Info().Int("workers", m.workerCount).
		Str("stream", queue.StreamCleanup).Str("group", queue.ConsumerGroupCleanup).
		Msg("cleanup workers started")
	return nil
}

// Stop gracefully shuts down all workers. Blocks until all have finished.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
	log.Info().Msg("cleanup workers stopped")
}

// runWorker is the main loop for a single worker goroutine.
func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()

	// First, process any messages left in-flight by a previous run
	m.processPending(workerID, consumerName)

	for {
		select {
		case <-m.ctx.Done():
			log.Debug().Int("worker", workerID).Msg("worker shutting down")
			return
		default:
			m.processMessages(workerID, consumerName)
		}
	}
}

// processPending handles messages that were delivered but not acknowledged.
func (m *Manager) processPending(workerID int, consumerName string) {
	for {
		messages, err := m.consumer.ReadPending(m.ctx, queue.StreamCleanup, queue.ConsumerGroupCleanup, consumerName, m.batchSize)
		if err != nil {
			log.Error().Err(err).Int("worker", workerID).Msg("read pending")
			return
		}
		if len(messages) == 0 {
			return
		}
		log.Info().Int("worker", workerID).Int("count", len(messages)).Msg("recovering pending messages")
		m.handleMessages(workerID, messages)
	}
}

// processMessages reads and handles a batch of new messages.
func (m *Manager) processMessages(workerID int, consumerName string) {
	messages, err := m.consumer.Read(
		m.ctx,
		queue.StreamCleanup,
		queue.ConsumerGroupCleanup,
		consumerName,
		m.batchSize,
		m.blockTime,
	)
	if err != nil {
		log.Error().Err(err).Int("worker", workerID).Msg("read stream")
		time.Sleep(time.Second) // Back off on error
		return
	}
	if len(messages) == 0 {
		return // Timeout, no messages
	}

	m.handleMessages(workerID, messages)
}

// handleMessages processes a batch of messages and acknowledges them.
func (m *Manager) handleMessages(workerID int, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			// Still ACK to prevent infinite retry loops; deleting an
			// already-deleted object later is harmless.
			log.Error().Err(err).Int("worker", workerID).Str("msg_id", msg.ID).Msg("handle event")
		}

		if err := m.consumer.Ack(m.ctx, queue.StreamCleanup, queue.ConsumerGroupCleanup, msg.ID); err != nil {
			log.Error().Err(err).Int("worker", workerID).Str("msg_id", msg.ID).Msg("ack")
		}
	}
}

package sim

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	JournalBufferSize    = 1024                   // Circular buffer size
	MaxEventsPerSec      = 10000                  // Global rate limit
	MaxEventsPerEntity   = 100                    // Per-entity rate limit per second
	BatchFlushSize       = 64                     // Events per batch write
	BatchFlushInterval   = 100 * time.Millisecond // How often to flush
	EntityLimiterCleanup = 5 * time.Minute        // Cleanup interval for entity limiters
)

// Journal provides bounded, rate-limited event journaling with backpressure.
// The step loop emits synchronously; writing to disk happens off-thread so a
// slow disk never stalls the simulation.
type Journal struct {
	// Circular buffer (lock-free SPSC pattern)
	buffer    [JournalBufferSize]Event
	writeHead uint64 // atomic - producer position
	readHead  uint64 // atomic - consumer position

	// Rate limiting so a misbehaving feed cannot flood the journal
	globalLimiter  *rate.Limiter
	entityLimiters sync.Map // map[string]*entityLimiterEntry

	// Async writer
	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	// File output
	filePath string
	file     *os.File
	fileMu   sync.Mutex

	// Stats for monitoring
	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
}

// entityLimiterEntry tracks per-entity rate limiting
type entityLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewJournal creates a new bounded event journal
func NewJournal() *Journal {
	return &Journal{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the async writer goroutine
func (j *Journal) Start(filePath string) error {
	if j.running.Load() {
		return nil
	}

	j.filePath = filePath

	// Open file for append
	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		j.file = file
	}

	j.running.Store(true)
	j.writerWg.Add(2)
	go j.writerLoop()
	go j.cleanupLoop()

	return nil
}

// Stop gracefully shuts down the journal
func (j *Journal) Stop() {
	j.stopOnce.Do(func() {
		j.running.Store(false)
		close(j.stopChan)
		j.writerWg.Wait()

		j.fileMu.Lock()
		if j.file != nil {
			j.file.Close()
		}
		j.fileMu.Unlock()
	})
}

// Emit adds an event with rate limiting
// Returns false if rate limited or buffer full
func (j *Journal) Emit(event Event) bool {
	if !j.running.Load() {
		return false
	}

	// Global rate limit check
	if !j.globalLimiter.Allow() {
		atomic.AddUint64(&j.droppedCount, 1)
		return false
	}

	// Per-entity rate limit (prevents a single noisy peer from flooding)
	if event.EntityID != "" {
		limiter := j.getEntityLimiter(event.EntityID)
		if !limiter.Allow() {
			atomic.AddUint64(&j.droppedCount, 1)
			return false
		}
	}

	// Acquire write slot in circular buffer. writeHead counts events
	// written, so this event's slot is head-1; the reader consumes slots
	// [readHead, writeHead).
	head := atomic.AddUint64(&j.writeHead, 1)
	tail := atomic.LoadUint64(&j.readHead)

	// Buffer full: drop oldest events (rolling window)
	if head-tail > JournalBufferSize {
		atomic.AddUint64(&j.readHead, 1)
		atomic.AddUint64(&j.droppedCount, 1)
	}

	// Assign sequence number and write to buffer
	seq := head - 1
	event.Sequence = seq
	idx := seq % JournalBufferSize
	j.buffer[idx] = event

	atomic.AddUint64(&j.totalCount, 1)
	return true
}

// EmitSimple is a convenience method to emit an event with automatic creation
func (j *Journal) EmitSimple(eventType EventType, stepNum uint64, entityID string, payload interface{}) bool {
	return j.Emit(NewEvent(eventType, stepNum, entityID, payload))
}

// getEntityLimiter returns/creates a per-entity rate limiter
func (j *Journal) getEntityLimiter(entityID string) *rate.Limiter {
	if entry, ok := j.entityLimiters.Load(entityID); ok {
		e := entry.(*entityLimiterEntry)
		e.lastUsed = time.Now()
		return e.limiter
	}

	entry := &entityLimiterEntry{
		limiter:  rate.NewLimiter(MaxEventsPerEntity, MaxEventsPerEntity/10),
		lastUsed: time.Now(),
	}
	actual, _ := j.entityLimiters.LoadOrStore(entityID, entry)
	return actual.(*entityLimiterEntry).limiter
}

// writerLoop batches and writes events to disk asynchronously
func (j *Journal) writerLoop() {
	defer j.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)

	for {
		select {
		case <-j.stopChan:
			// Final flush
			batch = j.collectBatch(batch[:0])
			if len(batch) > 0 {
				j.flushBatch(batch)
			}
			return

		case <-ticker.C:
			batch = j.collectBatch(batch[:0])
			if len(batch) > 0 {
				j.flushBatch(batch)
			}
		}
	}
}

// cleanupLoop removes stale entity limiters to prevent memory leak
func (j *Journal) cleanupLoop() {
	defer j.writerWg.Done()

	ticker := time.NewTicker(EntityLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ticker.C:
			j.cleanupEntityLimiters()
		}
	}
}

// cleanupEntityLimiters removes inactive entity limiters
func (j *Journal) cleanupEntityLimiters() {
	cutoff := time.Now().Add(-EntityLimiterCleanup)
	j.entityLimiters.Range(func(key, value interface{}) bool {
		entry := value.(*entityLimiterEntry)
		if entry.lastUsed.Before(cutoff) {
			j.entityLimiters.Delete(key)
		}
		return true
	})
}

// collectBatch reads available events from the circular buffer
func (j *Journal) collectBatch(batch []Event) []Event {
	head := atomic.LoadUint64(&j.writeHead)
	tail := atomic.LoadUint64(&j.readHead)

	for i := tail; i < head && len(batch) < BatchFlushSize; i++ {
		idx := i % JournalBufferSize
		batch = append(batch, j.buffer[idx])
	}

	if len(batch) > 0 {
		atomic.AddUint64(&j.readHead, uint64(len(batch)))
	}

	return batch
}

// flushBatch writes events to disk (append-only, newline-delimited JSON)
func (j *Journal) flushBatch(batch []Event) {
	j.fileMu.Lock()
	defer j.fileMu.Unlock()

	if j.file == nil {
		return
	}

	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		j.file.Write(data)
		j.file.Write([]byte("\n"))
	}
}

// GetStats returns journal counters for monitoring
func (j *Journal) GetStats() map[string]interface{} {
	head := atomic.LoadUint64(&j.writeHead)
	tail := atomic.LoadUint64(&j.readHead)

	return map[string]interface{}{
		"total":   atomic.LoadUint64(&j.totalCount),
		"dropped": atomic.LoadUint64(&j.droppedCount),
		"pending": head - tail,
		"running": j.running.Load(),
	}
}

// GetDroppedCount returns the number of dropped events
func (j *Journal) GetDroppedCount() uint64 {
	return atomic.LoadUint64(&j.droppedCount)
}

// GetTotalCount returns the total number of events processed
func (j *Journal) GetTotalCount() uint64 {
	return atomic.LoadUint64(&j.totalCount)
}

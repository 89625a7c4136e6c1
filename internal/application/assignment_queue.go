package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/garment-platform/production-service/pkg/errors"
	"github.com/garment-platform/production-service/pkg/logging"
	"github.com/garment-platform/production-service/pkg/metrics"

	"github.com/garment-platform/production-service/internal/domain"
)

const (
	defaultSettleWindow = 200 * time.Millisecond
	defaultStaleAfter   = 5 * time.Minute
	sweepInterval       = time.Minute
)

type queueResult struct {
	dto *WorkUnitDTO
	err error
}

type queueRequest struct {
	cmd        ClaimWorkCommand
	priority   int
	enqueuedAt time.Time
	result     chan queueResult
}

// AssignmentQueue resolves contention when several operators want the same
// work unit. Requests arriving within a short settle window are batched per
// work unit; the highest-priority request wins (earliest arrival breaks
// ties) and performs the one atomic claim for the round. Everyone else is
// told the work went elsewhere.
type AssignmentQueue struct {
	service      *AssignmentService
	notifier     domain.Notifier
	logger       *logging.Logger
	metrics      *metrics.Metrics
	settleWindow time.Duration
	staleAfter   time.Duration

	mu      sync.Mutex
	pending map[string][]*queueRequest
	closed  bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewAssignmentQueue creates a new AssignmentQueue
func NewAssignmentQueue(service *AssignmentService, notifier domain.Notifier, logger *logging.Logger, m *metrics.Metrics) *AssignmentQueue {
	return &AssignmentQueue{
		service:      service,
		notifier:     notifier,
		logger:       logger,
		metrics:      m,
		settleWindow: defaultSettleWindow,
		staleAfter:   defaultStaleAfter,
		pending:      make(map[string][]*queueRequest),
		stop:         make(chan struct{}),
	}
}

// Start launches the background stale-request sweeper
func (q *AssignmentQueue) Start() {
	q.wg.Add(1)
	go q.sweepLoop()
}

// Stop drains the queue: every pending request is failed and the sweeper
// shut down. Safe to call once.
func (q *AssignmentQueue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	drained := q.pending
	q.pending = make(map[string][]*queueRequest)
	q.mu.Unlock()

	close(q.stop)
	for _, batch := range drained {
		for _, req := range batch {
			req.result <- queueResult{err: errors.ErrServiceUnavailable("assignment queue")}
		}
	}
	q.wg.Wait()
}

// Claim enqueues a claim request and blocks until its round settles. The
// returned error is a conflict when another request won the round.
func (q *AssignmentQueue) Claim(ctx context.Context, cmd ClaimWorkCommand) (*WorkUnitDTO, error) {
	priority := cmd.Priority
	if priority <= 0 {
		priority = 100
	}
	req := &queueRequest{
		cmd:        cmd,
		priority:   priority,
		enqueuedAt: time.Now(),
		result:     make(chan queueResult, 1),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, errors.ErrServiceUnavailable("assignment queue")
	}
	q.pending[cmd.WorkID] = append(q.pending[cmd.WorkID], req)
	first := len(q.pending[cmd.WorkID]) == 1
	depth := q.totalPendingLocked()
	q.mu.Unlock()

	q.metrics.SetQueueDepth(depth)

	// The first request for a work unit opens the round and schedules its
	// settlement; later arrivals join the same round.
	if first {
		q.wg.Add(1)
		go q.settleAfter(cmd.WorkID)
	}

	select {
	case res := <-req.result:
		return res.dto, res.err
	case <-ctx.Done():
		q.abandon(cmd.WorkID, req)
		return nil, errors.ErrTimeout("claim work")
	}
}

func (q *AssignmentQueue) settleAfter(workID string) {
	defer q.wg.Done()

	select {
	case <-time.After(q.settleWindow):
	case <-q.stop:
		return
	}

	q.mu.Lock()
	batch := q.pending[workID]
	delete(q.pending, workID)
	depth := q.totalPendingLocked()
	q.mu.Unlock()

	q.metrics.SetQueueDepth(depth)
	if len(batch) == 0 {
		return
	}
	q.resolve(workID, batch)
}

// resolve picks the round winner and performs the single claim attempt.
// Order: lowest priority value first, then earliest arrival.
func (q *AssignmentQueue) resolve(workID string, batch []*queueRequest) {
	sort.SliceStable(batch, func(i, j int) bool {
		if batch[i].priority != batch[j].priority {
			return batch[i].priority < batch[j].priority
		}
		return batch[i].enqueuedAt.Before(batch[j].enqueuedAt)
	})

	winner := batch[0]
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dto, err := q.service.claim(ctx, winner.cmd, "queue")
	winner.result <- queueResult{dto: dto, err: err}

	if err == nil {
		q.logger.Info("Queue round settled", "workId", workID,
			"winner", winner.cmd.OperatorID, "contenders", len(batch))
	} else {
		q.logger.WithError(err).Warn("Queue round claim failed", "workId", workID,
			"winner", winner.cmd.OperatorID)
	}

	for _, loser := range batch[1:] {
		loser.result <- queueResult{err: errors.ErrConflict(domain.ErrWorkNotAvailable.Error())}
		q.metrics.RecordWorkClaim("queue", "lost_round")
		q.notifier.Notify(ctx, domain.Notification{
			Type:        domain.NotificationWorkUnavailable,
			RecipientID: loser.cmd.OperatorID,
			Title:       "Work unavailable",
			Message:     "This bundle was assigned to a higher-priority request",
			WorkID:      workID,
		})
	}
}

// abandon removes a request whose caller gave up waiting
func (q *AssignmentQueue) abandon(workID string, req *queueRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	batch := q.pending[workID]
	for i, r := range batch {
		if r == req {
			q.pending[workID] = append(batch[:i], batch[i+1:]...)
			break
		}
	}
	if len(q.pending[workID]) == 0 {
		delete(q.pending, workID)
	}
}

// sweepLoop periodically fails requests that have sat in the queue past the
// stale threshold, which only happens if a settlement goroutine was lost.
func (q *AssignmentQueue) sweepLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			q.sweep(time.Now())
		case <-q.stop:
			return
		}
	}
}

func (q *AssignmentQueue) sweep(now time.Time) {
	q.mu.Lock()
	var stale []*queueRequest
	for workID, batch := range q.pending {
		kept := batch[:0]
		for _, req := range batch {
			if now.Sub(req.enqueuedAt) > q.staleAfter {
				stale = append(stale, req)
			} else {
				kept = append(kept, req)
			}
		}
		if len(kept) == 0 {
			delete(q.pending, workID)
		} else {
			q.pending[workID] = kept
		}
	}
	depth := q.totalPendingLocked()
	q.mu.Unlock()

	q.metrics.SetQueueDepth(depth)
	for _, req := range stale {
		req.result <- queueResult{err: errors.ErrTimeout("claim work")}
		q.logger.Warn("Swept stale queue request", "workId", req.cmd.WorkID,
			"operatorId", req.cmd.OperatorID, "age", now.Sub(req.enqueuedAt).String())
	}
}

func (q *AssignmentQueue) totalPendingLocked() int {
	total := 0
	for _, batch := range q.pending {
		total += len(batch)
	}
	return total
}

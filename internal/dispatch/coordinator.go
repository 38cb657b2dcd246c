// Package dispatch drives approved tickets to a terminal outcome against the
// external platform APIs. The coordinator guarantees at most one in-flight
// attempt per ticket id, executes attempts strictly sequentially with a
// bounded retry budget, and persists every terminal outcome through
// compare-and-set status writes so concurrent edits are never clobbered.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/traffick-desk/backend/internal/config"
	"github.com/traffick-desk/backend/internal/models"
	"github.com/traffick-desk/backend/internal/platform"
	"github.com/traffick-desk/backend/internal/repositories"
)

// ErrInvalidState reports a dispatch request for a ticket that is not
// approved_for_dispatch. No attempt is made and no state changes.
var ErrInvalidState = errors.New("ticket is not approved for dispatch")

// Store is the slice of ticket persistence the coordinator consumes. The
// pgx-backed TicketRepo satisfies it; tests use in-memory fakes.
type Store interface {
	// GetForDispatch loads the ticket with its campaign and channel context,
	// returning repositories.ErrNotFound when the ticket does not exist.
	GetForDispatch(ctx context.Context, id uuid.UUID) (*models.TicketContext, error)

	// CompareAndSetStatus transitions the ticket only if its stored status
	// still equals expected, returning repositories.ErrConflict otherwise.
	// Any transition also drops the dispatch claim.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next string, fields repositories.TicketStatusFields) error

	// ClaimForDispatch takes the durable per-ticket dispatch claim, returning
	// repositories.ErrConflict while another process holds a claim younger
	// than ttl. This extends the at-most-one-in-flight guarantee across
	// processes sharing the store.
	ClaimForDispatch(ctx context.Context, id uuid.UUID, ttl time.Duration) error

	// ReleaseDispatchClaim drops the claim without a status change.
	ReleaseDispatchClaim(ctx context.Context, id uuid.UUID) error
}

// Attempt handle states.
const (
	StatePending   = "pending"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

// Attempt is the handle returned by Submit. It reflects the dispatch loop for
// one ticket; the ticket row remains the durable source of truth.
type Attempt struct {
	ID       uuid.UUID
	TicketID uuid.UUID

	mu       sync.Mutex
	state    string
	detail   string
	attempts int
	canceled bool

	done     chan struct{}
	doneOnce sync.Once
}

func newAttempt(ticketID uuid.UUID) *Attempt {
	return &Attempt{
		ID:       uuid.New(),
		TicketID: ticketID,
		state:    StatePending,
		done:     make(chan struct{}),
	}
}

// State returns the handle state, a human-readable detail (external id on
// success, failure reason otherwise), and the number of attempts issued.
func (a *Attempt) State() (state, detail string, attempts int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.detail, a.attempts
}

// Cancel requests cancellation. It is honored only between attempts: an
// in-flight HTTP call always runs to completion or timeout first.
func (a *Attempt) Cancel() {
	a.mu.Lock()
	a.canceled = true
	a.mu.Unlock()
}

// Done is closed once the dispatch loop has reached a terminal handle state.
func (a *Attempt) Done() <-chan struct{} { return a.done }

func (a *Attempt) cancelRequested() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.canceled
}

func (a *Attempt) recordAttempt() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempts++
	return a.attempts
}

func (a *Attempt) finish(state, detail string) {
	a.mu.Lock()
	a.state = state
	a.detail = detail
	a.mu.Unlock()
	a.doneOnce.Do(func() { close(a.done) })
}

// Coordinator serializes dispatch per ticket and applies the retry policy.
type Coordinator struct {
	store      Store
	cfg        *config.Config
	httpClient *http.Client
	log        *zap.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]*Attempt // keyed by ticket id
	handles  map[uuid.UUID]*Attempt // keyed by attempt id

	// sleep is injectable so tests can observe retry delays.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewCoordinator(store Store, cfg *config.Config, log *zap.Logger) *Coordinator {
	return &Coordinator{
		store: store,
		cfg:   cfg,
		httpClient: &http.Client{
			Timeout: cfg.DispatchHardTimeout,
		},
		log:      log,
		inflight: make(map[uuid.UUID]*Attempt),
		handles:  make(map[uuid.UUID]*Attempt),
		sleep:    sleepContext,
	}
}

// Submit starts a dispatch for the ticket, or returns the existing handle if
// one is already in flight (idempotent enqueue). The ticket must exist and be
// approved_for_dispatch; otherwise repositories.ErrNotFound or
// ErrInvalidState is returned and nothing changes.
func (c *Coordinator) Submit(ctx context.Context, ticketID uuid.UUID) (*Attempt, error) {
	c.mu.Lock()
	if a, ok := c.inflight[ticketID]; ok {
		c.mu.Unlock()
		return a, nil
	}
	c.mu.Unlock()

	tc, err := c.store.GetForDispatch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if tc.Status != models.TicketStatusApprovedForDispatch {
		return nil, fmt.Errorf("%w: ticket %s is %s", ErrInvalidState, ticketID, tc.Status)
	}

	c.mu.Lock()
	if a, ok := c.inflight[ticketID]; ok {
		// Lost the race to another Submit for the same ticket.
		c.mu.Unlock()
		return a, nil
	}
	a := newAttempt(ticketID)
	c.inflight[ticketID] = a
	c.handles[a.ID] = a
	c.mu.Unlock()

	if err := c.store.ClaimForDispatch(ctx, ticketID, c.cfg.DispatchClaimTTL()); err != nil {
		c.mu.Lock()
		delete(c.inflight, ticketID)
		delete(c.handles, a.ID)
		c.mu.Unlock()
		if errors.Is(err, repositories.ErrConflict) {
			return nil, fmt.Errorf("%w: ticket %s is claimed by another dispatcher", ErrInvalidState, ticketID)
		}
		return nil, err
	}

	go c.run(a, tc)
	return a, nil
}

// Status looks up an attempt handle.
func (c *Coordinator) Status(attemptID uuid.UUID) (*Attempt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.handles[attemptID]
	return a, ok
}

// outcome classification for one HTTP attempt
type outcome struct {
	class  outcomeClass
	body   []byte
	reason string
	delay  time.Duration // only for explicit 429 hints
	hinted bool
}

type outcomeClass int

const (
	classSuccess outcomeClass = iota
	classRetryable
	classTerminal
)

func (c *Coordinator) run(a *Attempt, tc *models.TicketContext) {
	// The dispatch loop outlives the triggering request; cancellation goes
	// through the attempt handle, not a request context.
	ctx := context.Background()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, a.TicketID)
		c.mu.Unlock()
	}()

	spec, err := platform.Lookup(tc.PlatformName)
	if err != nil {
		c.failTerminal(ctx, a, fmt.Sprintf("unsupported platform %q", tc.PlatformName))
		return
	}

	payload, err := spec.Encode(tc.Payload, tc.CampaignName)
	if err != nil {
		c.failTerminal(ctx, a, fmt.Sprintf("payload encoding failed: %v", err))
		return
	}

	url, token, err := spec.Endpoint(c.cfg)
	if err != nil {
		c.failTerminal(ctx, a, err.Error())
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.failTerminal(ctx, a, fmt.Sprintf("payload encoding failed: %v", err))
		return
	}

	for n := 0; ; n++ {
		attempts := a.recordAttempt()
		c.log.Info("dispatching ticket",
			zap.String("ticket_id", a.TicketID.String()),
			zap.String("platform", spec.Name),
			zap.Int("attempt", attempts),
		)

		res := c.attemptOnce(ctx, url, token, body)

		switch res.class {
		case classSuccess:
			externalID, err := spec.ExtractExternalID(res.body)
			if err != nil {
				c.failTerminal(ctx, a, fmt.Sprintf("external id extraction failed: %v", err))
				return
			}
			c.finishSuccess(ctx, a, externalID)
			return

		case classTerminal:
			c.failTerminal(ctx, a, res.reason)
			return

		case classRetryable:
			if attempts >= c.cfg.DispatchMaxAttempts {
				c.failTerminal(ctx, a, fmt.Sprintf("retry budget exhausted after %d attempts: %s", attempts, res.reason))
				return
			}

			delay := res.delay
			if !res.hinted {
				delay = time.Duration(1<<uint(n)) * time.Second // 2^n, n=0 for the first retry
			}
			c.log.Warn("dispatch attempt failed, retrying",
				zap.String("ticket_id", a.TicketID.String()),
				zap.String("reason", res.reason),
				zap.Duration("delay", delay),
			)

			if err := c.sleep(ctx, delay); err != nil {
				c.releaseClaim(ctx, a)
				a.finish(StateFailed, "dispatch canceled")
				return
			}
			if a.cancelRequested() {
				c.releaseClaim(ctx, a)
				a.finish(StateFailed, "dispatch canceled")
				return
			}
		}
	}
}

// attemptOnce issues one HTTP call and classifies the result. The soft
// timeout abandons a hung call as retryable; the client's hard timeout is the
// absolute ceiling.
func (c *Coordinator) attemptOnce(ctx context.Context, url, token string, body []byte) outcome {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.DispatchSoftTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return outcome{class: classTerminal, reason: fmt.Sprintf("invalid request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network error or timeout: no response received, treated like a 5xx.
		return outcome{class: classRetryable, reason: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return outcome{class: classSuccess, body: respBody}

	case resp.StatusCode == http.StatusTooManyRequests:
		delay := c.cfg.DispatchRetryDefault
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
				delay = time.Duration(secs) * time.Second
			}
		}
		return outcome{
			class:  classRetryable,
			reason: "rate limited (429)",
			delay:  delay,
			hinted: true,
		}

	case resp.StatusCode >= 500:
		return outcome{class: classRetryable, reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}

	default:
		// Remaining 4xx (and anything else unexpected) is the caller's fault
		// and never retried.
		return outcome{
			class:  classTerminal,
			reason: fmt.Sprintf("API Error %d: %s", resp.StatusCode, excerpt(respBody, 200)),
		}
	}
}

// finishSuccess records the external id with a compare-and-set. A conflict
// where the ticket already succeeded is duplicate delivery: the stored id
// wins and the attempt still reports success.
func (c *Coordinator) finishSuccess(ctx context.Context, a *Attempt, externalID string) {
	fields := repositories.TicketStatusFields{ExternalID: &externalID}
	err := c.store.CompareAndSetStatus(ctx, a.TicketID,
		models.TicketStatusApprovedForDispatch, models.TicketStatusDispatchSucceeded, fields)

	if errors.Is(err, repositories.ErrConflict) {
		tc, gerr := c.store.GetForDispatch(ctx, a.TicketID)
		if gerr == nil && tc.Status == models.TicketStatusDispatchSucceeded && tc.ExternalPlatformID != nil {
			a.finish(StateSucceeded, *tc.ExternalPlatformID)
			return
		}
		a.finish(StateFailed, "ticket status changed concurrently, dispatch aborted")
		return
	}
	if err != nil {
		c.log.Error("failed to persist dispatch success",
			zap.String("ticket_id", a.TicketID.String()), zap.Error(err))
		a.finish(StateFailed, fmt.Sprintf("failed to persist success: %v", err))
		return
	}

	c.log.Info("ticket dispatched",
		zap.String("ticket_id", a.TicketID.String()),
		zap.String("external_id", externalID),
	)
	a.finish(StateSucceeded, externalID)
}

func (c *Coordinator) failTerminal(ctx context.Context, a *Attempt, reason string) {
	fields := repositories.TicketStatusFields{FailureReason: &reason}
	err := c.store.CompareAndSetStatus(ctx, a.TicketID,
		models.TicketStatusApprovedForDispatch, models.TicketStatusDispatchFailed, fields)

	if errors.Is(err, repositories.ErrConflict) {
		a.finish(StateFailed, "ticket status changed concurrently, dispatch aborted")
		return
	}
	if err != nil {
		c.log.Error("failed to persist dispatch failure",
			zap.String("ticket_id", a.TicketID.String()), zap.Error(err))
	}

	c.log.Warn("ticket dispatch failed",
		zap.String("ticket_id", a.TicketID.String()),
		zap.String("reason", reason),
	)
	a.finish(StateFailed, reason)
}

// releaseClaim drops the dispatch claim on exits that leave the ticket
// approved_for_dispatch, so a resubmit does not have to wait out the TTL.
func (c *Coordinator) releaseClaim(ctx context.Context, a *Attempt) {
	if err := c.store.ReleaseDispatchClaim(ctx, a.TicketID); err != nil {
		c.log.Warn("failed to release dispatch claim",
			zap.String("ticket_id", a.TicketID.String()), zap.Error(err))
	}
}

func excerpt(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

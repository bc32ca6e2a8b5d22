// Package queue derives worklists, the doctor's current patient, and the
// public display pair from the day's appointment records, and applies the
// status transitions operators issue against them.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cliniccore/clinic-ops-platform/internal/appointments"
	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

var tracer = otel.Tracer("cliniccore.internal.queue")

// DisplayPlaceholder is shown when a display slot has no confirmed patient.
const DisplayPlaceholder = "--"

var (
	// ErrNotConfirmable is returned when confirming a cancelled or done record.
	ErrNotConfirmable = errors.New("queue: appointment cannot be confirmed")
	// ErrNotInSession is returned when finishing a record that is not confirmed.
	ErrNotInSession = errors.New("queue: appointment is not in session")
	// ErrAlreadyDone is returned when cancelling a completed record.
	ErrAlreadyDone = errors.New("queue: appointment already completed")
)

// Invalidator receives a change signal after every successful mutation so
// live subscribers re-render from a fresh snapshot.
type Invalidator interface {
	Invalidate(collection string)
}

// WorklistRow is one secretary-table entry with its allowed actions.
type WorklistRow struct {
	*appointments.Appointment
	CanConfirm bool `json:"can_confirm"`
	CanCancel  bool `json:"can_cancel"`
}

// DisplayPair is the public current/next board state.
type DisplayPair struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

// SwapResult reports the outcome of a swap-with-next command.
type SwapResult struct {
	// NoSuccessor is set when the record already holds the day's highest
	// queue number; the store is left untouched.
	NoSuccessor bool   `json:"no_successor"`
	SwappedWith string `json:"swapped_with,omitempty"`
}

// Engine is the command-dispatch surface for queue operations. Views invoke
// it through normal method calls; nothing is reachable through globals.
type Engine struct {
	repo   appointments.Repository
	alloc  NumberAllocator
	feed   Invalidator
	logger *logging.Logger
	now    func() time.Time
}

// NewEngine wires the queue engine to its record store and number allocator.
// feed may be nil when no live views are attached (e.g. in tests).
func NewEngine(repo appointments.Repository, alloc NumberAllocator, feed Invalidator, logger *logging.Logger) *Engine {
	if repo == nil {
		panic("queue: repository cannot be nil")
	}
	if alloc == nil {
		panic("queue: number allocator cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		repo:   repo,
		alloc:  alloc,
		feed:   feed,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the engine's clock. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Today returns the engine's current calendar date.
func (e *Engine) Today() string {
	return e.now().Format(appointments.DateLayout)
}

// Worklist returns today's records in arrival order with per-row action gates.
func (e *Engine) Worklist(ctx context.Context) ([]WorklistRow, error) {
	records, err := e.repo.ListByDate(ctx, e.Today())
	if err != nil {
		return nil, err
	}
	rows := make([]WorklistRow, 0, len(records))
	for _, appt := range records {
		rows = append(rows, WorklistRow{
			Appointment: appt,
			CanConfirm:  appt.Status == appointments.StatusPending,
			CanCancel:   appt.Status != appointments.StatusDone,
		})
	}
	return rows, nil
}

// CurrentPatient returns the first confirmed record for today in arrival
// order, or nil when nobody is waiting. An empty queue is a valid state.
func (e *Engine) CurrentPatient(ctx context.Context) (*appointments.Appointment, error) {
	records, err := e.repo.ListByDate(ctx, e.Today())
	if err != nil {
		return nil, err
	}
	for _, appt := range records {
		if appt.Status == appointments.StatusConfirmed {
			return appt, nil
		}
	}
	return nil, nil
}

// DisplayPair computes the public current/next numbers from today's
// confirmed records ordered by queue number.
func (e *Engine) DisplayPair(ctx context.Context) (DisplayPair, error) {
	confirmed, err := e.confirmedToday(ctx)
	if err != nil {
		return DisplayPair{}, err
	}

	pair := DisplayPair{Current: DisplayPlaceholder, Next: DisplayPlaceholder}
	if len(confirmed) > 0 {
		pair.Current = formatNumber(confirmed[0].QueueNumber)
	}
	if len(confirmed) > 1 {
		pair.Next = formatNumber(confirmed[1].QueueNumber)
	}
	return pair, nil
}

// Confirm transitions a pending record to confirmed and assigns the next
// number in the day's sequence. Confirming an already-confirmed record is a
// no-op returning its existing number, so a double-click cannot double-assign.
func (e *Engine) Confirm(ctx context.Context, id string) (int, error) {
	ctx, span := tracer.Start(ctx, "queue.confirm")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", id))

	appt, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	switch appt.Status {
	case appointments.StatusConfirmed:
		return appt.QueueNumber, nil
	case appointments.StatusPending:
	default:
		return 0, ErrNotConfirmable
	}

	num, err := e.alloc.Next(ctx, appt.AppointmentDate)
	if err != nil {
		return 0, err
	}

	if err := e.repo.MarkConfirmed(ctx, id, num); err != nil {
		if errors.Is(err, appointments.ErrConditionFailed) {
			// Lost a race with another operator; surface their assignment.
			if current, getErr := e.repo.GetByID(ctx, id); getErr == nil && current.Status == appointments.StatusConfirmed {
				return current.QueueNumber, nil
			}
			return 0, ErrNotConfirmable
		}
		return 0, err
	}

	e.logger.Info("appointment confirmed", "id", id, "queue_number", num)
	e.invalidate()
	return num, nil
}

// SwapWithNext exchanges a confirmed record's queue number with its
// immediate successor (smallest strictly greater number today). Having no
// successor is a no-op signal, not an error.
//
// The exchange is two independent writes; a crash between them can leave
// both records sharing a number until an operator renumbers. Display logic
// only depends on relative order, so this is tolerated.
func (e *Engine) SwapWithNext(ctx context.Context, id string) (SwapResult, error) {
	ctx, span := tracer.Start(ctx, "queue.swap_with_next")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", id))

	appt, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return SwapResult{}, err
	}
	if appt.Status != appointments.StatusConfirmed {
		return SwapResult{}, ErrNotInSession
	}

	confirmed, err := e.confirmedToday(ctx)
	if err != nil {
		return SwapResult{}, err
	}

	var successor *appointments.Appointment
	for _, candidate := range confirmed {
		if candidate.ID == appt.ID || candidate.QueueNumber <= appt.QueueNumber {
			continue
		}
		if successor == nil || candidate.QueueNumber < successor.QueueNumber {
			successor = candidate
		}
	}
	if successor == nil {
		return SwapResult{NoSuccessor: true}, nil
	}

	if err := e.repo.SetQueueNumber(ctx, appt.ID, successor.QueueNumber); err != nil {
		return SwapResult{}, err
	}
	if err := e.repo.SetQueueNumber(ctx, successor.ID, appt.QueueNumber); err != nil {
		// Half-applied: both records now hold the successor's number.
		e.logger.Error("swap half-applied", "id", appt.ID, "successor", successor.ID, "error", err)
		return SwapResult{}, fmt.Errorf("queue: swap second write: %w", err)
	}

	e.logger.Info("queue positions swapped", "id", appt.ID, "successor", successor.ID)
	e.invalidate()
	return SwapResult{SwappedWith: successor.ID}, nil
}

// Renumber applies an operator-supplied queue number unconditionally.
// Duplicates are allowed; display ordering tolerates them.
func (e *Engine) Renumber(ctx context.Context, id string, queueNumber int) error {
	if queueNumber <= 0 {
		return errors.New("queue: queue number must be positive")
	}
	if err := e.repo.SetQueueNumber(ctx, id, queueNumber); err != nil {
		return err
	}
	e.invalidate()
	return nil
}

// Finish transitions confirmed -> done, attaching the doctor's notes and an
// optional file link. Queue number and patient fields are untouched.
func (e *Engine) Finish(ctx context.Context, id, notes, fileLink string) error {
	if err := e.repo.MarkDone(ctx, id, notes); err != nil {
		if errors.Is(err, appointments.ErrConditionFailed) {
			return ErrNotInSession
		}
		return err
	}
	if fileLink != "" {
		if err := e.repo.SetFileLink(ctx, id, fileLink); err != nil {
			return err
		}
	}
	e.logger.Info("session finished", "id", id)
	e.invalidate()
	return nil
}

// AttachFile stores an external document link on the record.
func (e *Engine) AttachFile(ctx context.Context, id, url string) error {
	if url == "" {
		return errors.New("queue: file link required")
	}
	if err := e.repo.SetFileLink(ctx, id, url); err != nil {
		return err
	}
	e.invalidate()
	return nil
}

// Cancel transitions any non-done record to cancelled. Completed records
// are terminal and stay done.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	if err := e.repo.MarkCancelled(ctx, id); err != nil {
		if errors.Is(err, appointments.ErrConditionFailed) {
			return ErrAlreadyDone
		}
		return err
	}
	e.logger.Info("appointment cancelled", "id", id)
	e.invalidate()
	return nil
}

// History returns every record for a phone number, newest first, cross-date.
// An empty result is a valid state.
func (e *Engine) History(ctx context.Context, phone string) ([]*appointments.Appointment, error) {
	return e.repo.ListByPhone(ctx, phone)
}

// confirmedToday returns today's confirmed records sorted ascending by queue
// number. Records lacking a number sort last; the confirmation invariant
// makes that case unreachable in practice, but the display must not break
// if it happens.
func (e *Engine) confirmedToday(ctx context.Context) ([]*appointments.Appointment, error) {
	records, err := e.repo.ListByDate(ctx, e.Today())
	if err != nil {
		return nil, err
	}
	var confirmed []*appointments.Appointment
	for _, appt := range records {
		if appt.Status == appointments.StatusConfirmed {
			confirmed = append(confirmed, appt)
		}
	}
	sort.SliceStable(confirmed, func(i, j int) bool {
		ni, nj := confirmed[i].QueueNumber, confirmed[j].QueueNumber
		if ni == 0 {
			return false
		}
		if nj == 0 {
			return true
		}
		return ni < nj
	})
	return confirmed, nil
}

func (e *Engine) invalidate() {
	if e.feed != nil {
		e.feed.Invalidate("appointments")
	}
}

func formatNumber(n int) string {
	if n <= 0 {
		return DisplayPlaceholder
	}
	return fmt.Sprintf("%d", n)
}

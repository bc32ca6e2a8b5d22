package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository keeps records in a map. It mirrors the DynamoDB
// repository's semantics for tests and local development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Appointment
}

var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[string]*Appointment)}
}

func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	stored := *appt
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt == "" {
		stored.CreatedAt = time.Now().UTC().Format(TimestampLayout)
	}
	if stored.Status == "" {
		stored.Status = StatusPending
	}

	r.mu.Lock()
	r.records[stored.ID] = &stored
	r.mu.Unlock()

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *appt
	return &out, nil
}

func (r *InMemoryRepository) ListByDate(ctx context.Context, date string) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, appt := range r.records {
		if appt.AppointmentDate == date {
			copied := *appt
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (r *InMemoryRepository) ListByPhone(ctx context.Context, phone string) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, appt := range r.records {
		if appt.PatientPhone == phone {
			copied := *appt
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (r *InMemoryRepository) MarkConfirmed(ctx context.Context, id string, queueNumber int) error {
	return r.mutate(id, func(appt *Appointment) error {
		if appt.Status != StatusPending {
			return ErrConditionFailed
		}
		appt.Status = StatusConfirmed
		appt.QueueNumber = queueNumber
		return nil
	})
}

func (r *InMemoryRepository) SetQueueNumber(ctx context.Context, id string, queueNumber int) error {
	return r.mutate(id, func(appt *Appointment) error {
		appt.QueueNumber = queueNumber
		return nil
	})
}

func (r *InMemoryRepository) MarkDone(ctx context.Context, id, notes string) error {
	return r.mutate(id, func(appt *Appointment) error {
		if appt.Status != StatusConfirmed {
			return ErrConditionFailed
		}
		appt.Status = StatusDone
		appt.DoctorNotes = notes
		return nil
	})
}

func (r *InMemoryRepository) MarkCancelled(ctx context.Context, id string) error {
	return r.mutate(id, func(appt *Appointment) error {
		if appt.Status == StatusDone {
			return ErrConditionFailed
		}
		appt.Status = StatusCancelled
		return nil
	})
}

func (r *InMemoryRepository) SetFileLink(ctx context.Context, id, url string) error {
	return r.mutate(id, func(appt *Appointment) error {
		appt.FileLink = url
		return nil
	})
}

func (r *InMemoryRepository) mutate(id string, fn func(*Appointment) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	return fn(appt)
}

// Package booking admits new appointment requests from the public site.
package booking

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cliniccore/clinic-ops-platform/internal/appointments"
	"github.com/cliniccore/clinic-ops-platform/internal/clinic"
	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

var (
	ErrMissingName      = errors.New("booking: patient name is required")
	ErrMissingPhone     = errors.New("booking: patient phone is required")
	ErrMissingComplaint = errors.New("booking: complaint is required")
	ErrInvalidDate      = errors.New("booking: appointment date must be YYYY-MM-DD")
	ErrPastDate         = errors.New("booking: appointment date is in the past")
	ErrClosedWeekday    = errors.New("booking: clinic does not operate on that day")
	ErrClinicClosed     = errors.New("booking: clinic is not accepting bookings")
)

// Invalidator signals live views after an admitted booking.
type Invalidator interface {
	Invalidate(collection string)
}

// Request is a public booking submission.
type Request struct {
	PatientName     string `json:"patient_name"`
	PatientPhone    string `json:"patient_phone"`
	Complaint       string `json:"complaint"`
	AppointmentDate string `json:"appointment_date"`
}

// Confirmation is returned for an admitted booking. WhatsAppLink is a
// wa.me deep link pre-filled with the patient's name, date, and record id
// so they can message the clinic in one tap.
type Confirmation struct {
	Appointment  *appointments.Appointment `json:"appointment"`
	WhatsAppLink string                    `json:"whatsapp_link,omitempty"`
}

// Service validates and admits booking requests against clinic settings.
type Service struct {
	repo        appointments.Repository
	settings    clinic.SettingsReader
	feed        Invalidator
	logger      *logging.Logger
	clinicPhone string
	now         func() time.Time
}

// ServiceConfig wires the intake service. ClinicPhone is the clinic's
// WhatsApp number in international digits-only form; when empty no deep
// link is generated.
type ServiceConfig struct {
	Repo        appointments.Repository
	Settings    clinic.SettingsReader
	Feed        Invalidator
	Logger      *logging.Logger
	ClinicPhone string
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Service{
		repo:        cfg.Repo,
		settings:    cfg.Settings,
		feed:        cfg.Feed,
		logger:      cfg.Logger,
		clinicPhone: strings.TrimPrefix(cfg.ClinicPhone, "+"),
		now:         time.Now,
	}
}

// WithClock overrides the service's clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit validates the request in order and creates a pending appointment.
// Every rule is a hard rejection; nothing is partially admitted.
func (s *Service) Submit(ctx context.Context, req Request) (*Confirmation, error) {
	name := strings.TrimSpace(req.PatientName)
	phone := strings.TrimSpace(req.PatientPhone)
	complaint := strings.TrimSpace(req.Complaint)

	if name == "" {
		return nil, ErrMissingName
	}
	if phone == "" {
		return nil, ErrMissingPhone
	}
	if complaint == "" {
		return nil, ErrMissingComplaint
	}

	date, err := time.Parse(appointments.DateLayout, strings.TrimSpace(req.AppointmentDate))
	if err != nil {
		return nil, ErrInvalidDate
	}

	// Date-only comparison; a booking for later today is still valid.
	today, _ := time.Parse(appointments.DateLayout, s.now().Format(appointments.DateLayout))
	if date.Before(today) {
		return nil, ErrPastDate
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking: load settings: %w", err)
	}
	if settings.HolidayMode {
		return nil, ErrClinicClosed
	}
	if !settings.AllowsWeekday(date.Weekday()) {
		return nil, ErrClosedWeekday
	}

	appt, err := s.repo.Create(ctx, &appointments.Appointment{
		PatientName:     name,
		PatientPhone:    phone,
		Complaint:       complaint,
		AppointmentDate: date.Format(appointments.DateLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("booking: create appointment: %w", err)
	}

	s.logger.Info("booking admitted", "id", appt.ID, "date", appt.AppointmentDate)
	if s.feed != nil {
		s.feed.Invalidate("appointments")
	}

	return &Confirmation{
		Appointment:  appt,
		WhatsAppLink: s.whatsAppLink(appt),
	}, nil
}

func (s *Service) whatsAppLink(appt *appointments.Appointment) string {
	if s.clinicPhone == "" {
		return ""
	}
	text := fmt.Sprintf("Hello, I booked an appointment. Name: %s, Date: %s, Booking ID: %s",
		appt.PatientName, appt.AppointmentDate, appt.ID)
	return fmt.Sprintf("https://wa.me/%s?text=%s", s.clinicPhone, url.QueryEscape(text))
}

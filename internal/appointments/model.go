// Package appointments defines the appointment record and its store.
package appointments

import "time"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// DateLayout is the calendar-date format used for AppointmentDate.
// Dates carry no time component; comparisons are date-only.
const DateLayout = "2006-01-02"

// TimestampLayout is the fixed-width format for CreatedAt. The fractional
// seconds are zero-padded to nine digits so lexicographic order equals
// chronological order; RFC3339Nano trims trailing zeros and breaks that.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Appointment is one booking attempt. Records are never deleted;
// cancellation and completion are terminal statuses.
type Appointment struct {
	ID           string `dynamodbav:"id" json:"id"`
	PatientName  string `dynamodbav:"patientName" json:"patient_name"`
	PatientPhone string `dynamodbav:"patientPhone" json:"patient_phone"`
	Complaint    string `dynamodbav:"complaint" json:"complaint"`
	// AppointmentDate is immutable after creation (YYYY-MM-DD).
	AppointmentDate string `dynamodbav:"appointmentDate" json:"appointment_date"`
	Status          Status `dynamodbav:"status" json:"status"`
	// QueueNumber is meaningful only once the record has been confirmed.
	// Zero means unassigned.
	QueueNumber int `dynamodbav:"queueNumber,omitempty" json:"queue_number,omitempty"`
	// CreatedAt is server-assigned (TimestampLayout, UTC). Lexicographic
	// order equals chronological order, which the date index relies on.
	CreatedAt   string `dynamodbav:"createdAt" json:"created_at"`
	DoctorNotes string `dynamodbav:"doctorNotes,omitempty" json:"doctor_notes,omitempty"`
	FileLink    string `dynamodbav:"fileLink,omitempty" json:"file_link,omitempty"`
}

// CreatedTime parses the stored creation timestamp.
func (a *Appointment) CreatedTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, a.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

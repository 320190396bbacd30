package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type VerificationMethod string

const (
	MethodRFID   VerificationMethod = "rfid"
	MethodFacial VerificationMethod = "facial"
	MethodManual VerificationMethod = "manual"
)

// ParseVerificationMethod maps request input to a method. Empty input is manual.
func ParseVerificationMethod(s string) (VerificationMethod, error) {
	switch m := VerificationMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MethodManual, nil
	case MethodRFID, MethodFacial, MethodManual:
		return m, nil
	default:
		return "", ErrInvalidRequest.WithMessage("unknown verification method " + s)
	}
}

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusLate    AttendanceStatus = "late"
	// StatusAbsent is reserved for administrative backfill.
	StatusAbsent AttendanceStatus = "absent"
)

// Attendance is the record created once per (student, event) on check-in.
type Attendance struct {
	ID               uuid.UUID          `json:"id"`
	StudentID        int64              `json:"student_id"`
	EventID          int64              `json:"event_id"`
	CheckInTime      time.Time          `json:"check_in_time"`
	Method           VerificationMethod `json:"verification_method"`
	LocationLat      *float64           `json:"location_lat,omitempty"`
	LocationLng      *float64           `json:"location_lng,omitempty"`
	LocationVerified bool               `json:"location_verified"`
	Status           AttendanceStatus   `json:"status"`
}

// HasLocation reports whether the kiosk supplied both coordinates.
func (a Attendance) HasLocation() bool {
	return a.LocationLat != nil && a.LocationLng != nil
}

// AttendanceEntry is a record joined with the student it belongs to.
type AttendanceEntry struct {
	Attendance
	Student StudentSummary `json:"student"`
}

// AttendanceFilter narrows attendance log listings. Zero values mean no
// filter; a zero Limit means all rows.
type AttendanceFilter struct {
	EventID   int64
	StudentID int64
	Limit     int
	Offset    int
}

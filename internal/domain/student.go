package domain

// StudentStatus gates whether a student may be checked in.
type StudentStatus string

const (
	StudentActive   StudentStatus = "active"
	StudentInactive StudentStatus = "inactive"
)

// Student is the directory record for a person who can attend events.
type Student struct {
	ID        int64         `json:"id"`
	StudentID string        `json:"student_id"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Email     string        `json:"email"`
	Course    string        `json:"course"`
	YearLevel int           `json:"year_level"`
	RFIDTag   *string       `json:"rfid_tag,omitempty"`
	Status    StudentStatus `json:"status"`
	Archived  bool          `json:"archived"`
}

// DisplayName is the name shown on kiosk feedback.
func (s Student) DisplayName() string {
	return s.FirstName + " " + s.LastName
}

// CanCheckIn reports whether the account is enabled. Archived students are not
// rejected here; only status gates check-in.
func (s Student) CanCheckIn() bool {
	return s.Status == StudentActive
}

// Summary returns the display fields returned with check-in results.
func (s Student) Summary() StudentSummary {
	return StudentSummary{
		Name:      s.DisplayName(),
		StudentID: s.StudentID,
		Course:    s.Course,
		YearLevel: s.YearLevel,
	}
}

// StudentSummary is the subset of a student shown next to attendance data.
type StudentSummary struct {
	Name      string `json:"name"`
	StudentID string `json:"student_id"`
	Course    string `json:"course"`
	YearLevel int    `json:"year_level"`
}

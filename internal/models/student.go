package models

import "time"

// StudentStatus enumerates the student lifecycle.
// provisional → active (finalize admission), active ⇄ inactive (toggle),
// active → alumni (graduate).
type StudentStatus string

const (
	StudentStatusProvisional StudentStatus = "provisional"
	StudentStatusActive      StudentStatus = "active"
	StudentStatusInactive    StudentStatus = "inactive"
	StudentStatusAlumni      StudentStatus = "alumni"
)

// Student represents a learner registered in the institution.
type Student struct {
	ID             string        `db:"id" json:"id"`
	RegistrationID *string       `db:"registration_id" json:"registration_id,omitempty"`
	AdmissionNo    string        `db:"admission_no" json:"admission_no"`
	FullName       string        `db:"full_name" json:"full_name"`
	ClassSection   string        `db:"class_section" json:"class_section"`
	ParentName     string        `db:"parent_name" json:"parent_name"`
	Phone          string        `db:"phone" json:"phone"`
	Address        string        `db:"address" json:"address"`
	PhotoURL       string        `db:"photo_url" json:"photo_url"`
	Status         StudentStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search       string
	ClassSection string
	Status       StudentStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

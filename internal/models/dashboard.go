package models

import "time"

// DashboardSummary is the admissions funnel snapshot shown on the landing
// screen: intake counts by stage plus current-month fee collection.
type DashboardSummary struct {
	EnquiriesByStatus    map[EnquiryStatus]int `json:"enquiries_by_status"`
	PendingRegistrations int                   `json:"pending_registrations"`
	StudentsByStatus     map[StudentStatus]int `json:"students_by_status"`
	ActiveEmployees      int                   `json:"active_employees"`
	FeesCollectedMonth   float64               `json:"fees_collected_month"`
	GeneratedAt          time.Time             `json:"generated_at"`
}

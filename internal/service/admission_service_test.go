package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-backoffice-api/internal/dto"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
)

type mockEnquiryStore struct {
	enquiries map[string]models.Enquiry
	statuses  map[string]models.EnquiryStatus
}

func (m *mockEnquiryStore) FindByID(ctx context.Context, id string) (*models.Enquiry, error) {
	if e, ok := m.enquiries[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnquiryStore) UpdateStatus(ctx context.Context, id string, status models.EnquiryStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[string]models.EnquiryStatus)
	}
	m.statuses[id] = status
	return nil
}

type mockRegistrationStore struct {
	registrations map[string]models.Registration
	phoneExists   map[string]bool
	created       *models.Registration
	approved      *models.Student
	approveErr    error
	statusErr     error
	statusTo      models.RegistrationStatus
}

func (m *mockRegistrationStore) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	var list []models.Registration
	for _, r := range m.registrations {
		list = append(list, r)
	}
	return list, len(list), nil
}

func (m *mockRegistrationStore) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	if r, ok := m.registrations[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationStore) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return m.phoneExists[phone], nil
}

func (m *mockRegistrationStore) Create(ctx context.Context, registration *models.Registration) error {
	if registration.ID == "" {
		registration.ID = "new-registration"
	}
	if m.registrations == nil {
		m.registrations = make(map[string]models.Registration)
	}
	m.registrations[registration.ID] = *registration
	m.created = registration
	return nil
}

func (m *mockRegistrationStore) UpdateStatus(ctx context.Context, id string, from, to models.RegistrationStatus, reviewerID string, reviewedAt time.Time) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	r, ok := m.registrations[id]
	if !ok || r.Status != from {
		return sql.ErrNoRows
	}
	r.Status = to
	m.registrations[id] = r
	m.statusTo = to
	return nil
}

func (m *mockRegistrationStore) MarkCompleted(ctx context.Context, id string) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	r, ok := m.registrations[id]
	if !ok || r.Status != models.RegistrationStatusApproved {
		return sql.ErrNoRows
	}
	r.Status = models.RegistrationStatusAdmissionDone
	m.registrations[id] = r
	m.statusTo = r.Status
	return nil
}

func (m *mockRegistrationStore) ApproveWithStudent(ctx context.Context, registrationID string, student *models.Student, reviewerID string) error {
	if m.approveErr != nil {
		return m.approveErr
	}
	r, ok := m.registrations[registrationID]
	if !ok || r.Status != models.RegistrationStatusPending {
		return sql.ErrNoRows
	}
	r.Status = models.RegistrationStatusApproved
	m.registrations[registrationID] = r
	m.approved = student
	return nil
}

type mockAdmissionStudentStore struct {
	students map[string]models.Student
}

func (m *mockAdmissionStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdmissionStudentStore) UpdateStatus(ctx context.Context, id string, from, to models.StudentStatus) error {
	s, ok := m.students[id]
	if !ok || s.Status != from {
		return sql.ErrNoRows
	}
	s.Status = to
	m.students[id] = s
	return nil
}

type mockAuditLogger struct {
	logs []*models.AuditLog
}

func (m *mockAuditLogger) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func TestPromoteEnquiryCreatesPendingRegistration(t *testing.T) {
	enquiries := &mockEnquiryStore{enquiries: map[string]models.Enquiry{
		"enq-1": {ID: "enq-1", FullName: "Arun Kumar", ClassApplyingFor: "5A", ParentName: "Ravi Kumar", MobileNo: "9876500001", Status: models.EnquiryStatusContacted},
	}}
	registrations := &mockRegistrationStore{}
	audit := &mockAuditLogger{}
	svc := NewAdmissionService(enquiries, registrations, &mockAdmissionStudentStore{}, audit, nil)

	registration, err := svc.PromoteEnquiry(context.Background(), "enq-1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, registrations.created)
	assert.Equal(t, models.RegistrationStatusPending, registration.Status)
	assert.Equal(t, "Arun Kumar", registration.FullName)
	assert.Equal(t, "9876500001", registration.Phone)
	require.NotNil(t, registration.EnquiryID)
	assert.Equal(t, "enq-1", *registration.EnquiryID)
	assert.Equal(t, models.EnquiryStatusInRegistration, enquiries.statuses["enq-1"])
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionEnquiryPromote, audit.logs[0].Action)
}

func TestPromoteEnquiryRejectsDeleted(t *testing.T) {
	enquiries := &mockEnquiryStore{enquiries: map[string]models.Enquiry{
		"enq-1": {ID: "enq-1", Status: models.EnquiryStatusContacted, IsDeleted: true},
	}}
	svc := NewAdmissionService(enquiries, &mockRegistrationStore{}, &mockAdmissionStudentStore{}, nil, nil)

	_, err := svc.PromoteEnquiry(context.Background(), "enq-1", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestPromoteEnquiryRejectsRepeatPromotion(t *testing.T) {
	enquiries := &mockEnquiryStore{enquiries: map[string]models.Enquiry{
		"enq-1": {ID: "enq-1", Status: models.EnquiryStatusInRegistration},
	}}
	registrations := &mockRegistrationStore{}
	svc := NewAdmissionService(enquiries, registrations, &mockAdmissionStudentStore{}, nil, nil)

	_, err := svc.PromoteEnquiry(context.Background(), "enq-1", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Nil(t, registrations.created)
}

func TestPromoteEnquiryRejectsDuplicatePhone(t *testing.T) {
	enquiries := &mockEnquiryStore{enquiries: map[string]models.Enquiry{
		"enq-1": {ID: "enq-1", MobileNo: "9876500001", Status: models.EnquiryStatusNew},
	}}
	registrations := &mockRegistrationStore{phoneExists: map[string]bool{"9876500001": true}}
	svc := NewAdmissionService(enquiries, registrations, &mockAdmissionStudentStore{}, nil, nil)

	_, err := svc.PromoteEnquiry(context.Background(), "enq-1", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicatePhone.Code, appErrors.FromError(err).Code)
	assert.Nil(t, registrations.created)
	// The enquiry stays where it was.
	assert.Empty(t, enquiries.statuses)
}

func TestReviewRegistrationApproveInsertsProvisionalStudent(t *testing.T) {
	registrations := &mockRegistrationStore{registrations: map[string]models.Registration{
		"reg-1": {ID: "reg-1", FullName: "Meena Iyer", ClassEnrolled: "3B", ParentName: "Suresh Iyer", Phone: "9876500002", Address: "12 Lake Road", Status: models.RegistrationStatusPending},
	}}
	audit := &mockAuditLogger{}
	svc := NewAdmissionService(&mockEnquiryStore{}, registrations, &mockAdmissionStudentStore{}, audit, nil)

	reviewed, err := svc.ReviewRegistration(context.Background(), "reg-1", dto.ReviewRegistrationRequest{Decision: models.RegistrationStatusApproved}, "reviewer-1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusApproved, reviewed.Status)
	require.NotNil(t, registrations.approved)
	assert.Equal(t, models.StudentStatusProvisional, registrations.approved.Status)
	assert.Equal(t, "Meena Iyer", registrations.approved.FullName)
	assert.Equal(t, "3B", registrations.approved.ClassSection)
	require.Len(t, audit.logs, 1)
}

func TestReviewRegistrationApproveFailureLeavesPending(t *testing.T) {
	registrations := &mockRegistrationStore{
		registrations: map[string]models.Registration{
			"reg-1": {ID: "reg-1", Status: models.RegistrationStatusPending},
		},
		approveErr: sql.ErrConnDone,
	}
	svc := NewAdmissionService(&mockEnquiryStore{}, registrations, &mockAdmissionStudentStore{}, nil, nil)

	_, err := svc.ReviewRegistration(context.Background(), "reg-1", dto.ReviewRegistrationRequest{Decision: models.RegistrationStatusApproved}, "reviewer-1")
	require.Error(t, err)
	assert.Equal(t, models.RegistrationStatusPending, registrations.registrations["reg-1"].Status)
}

func TestReviewRegistrationRejectsSecondReview(t *testing.T) {
	registrations := &mockRegistrationStore{registrations: map[string]models.Registration{
		"reg-1": {ID: "reg-1", Status: models.RegistrationStatusApproved},
	}}
	svc := NewAdmissionService(&mockEnquiryStore{}, registrations, &mockAdmissionStudentStore{}, nil, nil)

	_, err := svc.ReviewRegistration(context.Background(), "reg-1", dto.ReviewRegistrationRequest{Decision: models.RegistrationStatusRejected}, "reviewer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestReviewRegistrationRejectsInvalidDecision(t *testing.T) {
	registrations := &mockRegistrationStore{registrations: map[string]models.Registration{
		"reg-1": {ID: "reg-1", Status: models.RegistrationStatusPending},
	}}
	svc := NewAdmissionService(&mockEnquiryStore{}, registrations, &mockAdmissionStudentStore{}, nil, nil)

	_, err := svc.ReviewRegistration(context.Background(), "reg-1", dto.ReviewRegistrationRequest{Decision: models.RegistrationStatusPending}, "reviewer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMarkRegistrationCompletedClosesLinkedEnquiry(t *testing.T) {
	enquiryID := "enq-1"
	enquiries := &mockEnquiryStore{enquiries: map[string]models.Enquiry{
		enquiryID: {ID: enquiryID, Status: models.EnquiryStatusInRegistration},
	}}
	registrations := &mockRegistrationStore{registrations: map[string]models.Registration{
		"reg-1": {ID: "reg-1", EnquiryID: &enquiryID, Status: models.RegistrationStatusApproved},
	}}
	svc := NewAdmissionService(enquiries, registrations, &mockAdmissionStudentStore{}, nil, nil)

	err := svc.MarkRegistrationCompleted(context.Background(), "reg-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusAdmissionDone, registrations.registrations["reg-1"].Status)
	assert.Equal(t, models.EnquiryStatusAdmissionDone, enquiries.statuses[enquiryID])
}

func TestMarkRegistrationCompletedKeepsOriginalReviewer(t *testing.T) {
	reviewer := "admin-7"
	reviewedAt := time.Date(2026, 3, 12, 9, 30, 0, 0, time.UTC)
	registrations := &mockRegistrationStore{registrations: map[string]models.Registration{
		"reg-1": {ID: "reg-1", Status: models.RegistrationStatusApproved, ReviewedBy: &reviewer, ReviewedAt: &reviewedAt},
	}}
	svc := NewAdmissionService(&mockEnquiryStore{}, registrations, &mockAdmissionStudentStore{}, nil, nil)

	err := svc.MarkRegistrationCompleted(context.Background(), "reg-1", "clerk-2")
	require.NoError(t, err)

	completed := registrations.registrations["reg-1"]
	assert.Equal(t, models.RegistrationStatusAdmissionDone, completed.Status)
	require.NotNil(t, completed.ReviewedBy)
	assert.Equal(t, reviewer, *completed.ReviewedBy)
	require.NotNil(t, completed.ReviewedAt)
	assert.Equal(t, reviewedAt, *completed.ReviewedAt)
}

func TestFinalizeAdmissionRequiresProvisional(t *testing.T) {
	students := &mockAdmissionStudentStore{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", Status: models.StudentStatusActive},
	}}
	svc := NewAdmissionService(&mockEnquiryStore{}, &mockRegistrationStore{}, students, nil, nil)

	err := svc.FinalizeAdmission(context.Background(), "stu-1", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.StudentStatusActive, students.students["stu-1"].Status)
}

func TestFinalizeAdmissionActivatesStudent(t *testing.T) {
	students := &mockAdmissionStudentStore{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", Status: models.StudentStatusProvisional},
	}}
	svc := NewAdmissionService(&mockEnquiryStore{}, &mockRegistrationStore{}, students, nil, nil)

	err := svc.FinalizeAdmission(context.Background(), "stu-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusActive, students.students["stu-1"].Status)
}

func TestToggleStudentStatusFlipsBothWays(t *testing.T) {
	students := &mockAdmissionStudentStore{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", Status: models.StudentStatusActive},
	}}
	svc := NewAdmissionService(&mockEnquiryStore{}, &mockRegistrationStore{}, students, nil, nil)

	status, err := svc.ToggleStudentStatus(context.Background(), "stu-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusInactive, status)

	status, err = svc.ToggleStudentStatus(context.Background(), "stu-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusActive, status)
}

func TestToggleStudentStatusRejectsProvisional(t *testing.T) {
	students := &mockAdmissionStudentStore{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", Status: models.StudentStatusProvisional},
	}}
	svc := NewAdmissionService(&mockEnquiryStore{}, &mockRegistrationStore{}, students, nil, nil)

	_, err := svc.ToggleStudentStatus(context.Background(), "stu-1", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestGraduateStudentRequiresActive(t *testing.T) {
	students := &mockAdmissionStudentStore{students: map[string]models.Student{
		"active":   {ID: "active", Status: models.StudentStatusActive},
		"inactive": {ID: "inactive", Status: models.StudentStatusInactive},
	}}
	svc := NewAdmissionService(&mockEnquiryStore{}, &mockRegistrationStore{}, students, nil, nil)

	require.NoError(t, svc.GraduateStudent(context.Background(), "active", "user-1"))
	assert.Equal(t, models.StudentStatusAlumni, students.students["active"].Status)

	err := svc.GraduateStudent(context.Background(), "inactive", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

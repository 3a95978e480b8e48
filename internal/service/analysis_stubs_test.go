package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assess-api/internal/events"
	"github.com/noah-isme/gema-assess-api/internal/models"
	"github.com/noah-isme/gema-assess-api/internal/repository"
	"github.com/noah-isme/gema-assess-api/pkg/ai"
)

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type memorySubmissions struct {
	items map[string]models.Submission
}

func (m *memorySubmissions) GetByID(_ context.Context, id string) (models.Submission, error) {
	submission, ok := m.items[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

type memoryAssignments struct {
	items map[string]models.Assignment
}

func (m *memoryAssignments) GetByID(_ context.Context, id string) (models.Assignment, error) {
	assignment, ok := m.items[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

type memoryRubrics struct {
	items map[string]models.Rubric
}

func (m *memoryRubrics) GetByID(_ context.Context, id string) (models.Rubric, error) {
	rubric, ok := m.items[id]
	if !ok {
		return models.Rubric{}, gorm.ErrRecordNotFound
	}
	return rubric, nil
}

type recordedGrade struct {
	grade  models.SubmissionGrade
	update repository.SubmissionUpdate
}

type recordingGrades struct {
	records []recordedGrade
	err     error
}

func (r *recordingGrades) Record(_ context.Context, grade *models.SubmissionGrade, update repository.SubmissionUpdate) error {
	if r.err != nil {
		return r.err
	}
	grade.ID = fmt.Sprintf("grade-%d", len(r.records)+1)
	r.records = append(r.records, recordedGrade{grade: *grade, update: update})
	return nil
}

func (r *recordingGrades) ListBySubmission(context.Context, string) ([]models.SubmissionGrade, error) {
	grades := make([]models.SubmissionGrade, 0, len(r.records))
	for _, record := range r.records {
		grades = append(grades, record.grade)
	}
	return grades, nil
}

type recordedReport struct {
	report models.PlagiarismReport
	update repository.SubmissionUpdate
}

type recordingReports struct {
	records []recordedReport
	err     error
}

func (r *recordingReports) Record(_ context.Context, report *models.PlagiarismReport, update repository.SubmissionUpdate) error {
	if r.err != nil {
		return r.err
	}
	report.ID = "report-1"
	r.records = append(r.records, recordedReport{report: *report, update: update})
	return nil
}

func (r *recordingReports) ListBySubmission(context.Context, string) ([]models.PlagiarismReport, error) {
	return nil, nil
}

type memoryAnalyses struct {
	byStudent map[string]models.StudentFeedbackAnalysis
	upserts   int
	err       error
}

func (m *memoryAnalyses) Upsert(_ context.Context, analysis models.StudentFeedbackAnalysis) (models.StudentFeedbackAnalysis, error) {
	if m.err != nil {
		return models.StudentFeedbackAnalysis{}, m.err
	}
	m.upserts++
	if existing, ok := m.byStudent[analysis.StudentID]; ok {
		analysis.ID = existing.ID
	} else {
		analysis.ID = "analysis-" + analysis.StudentID
	}
	m.byStudent[analysis.StudentID] = analysis
	return analysis, nil
}

func (m *memoryAnalyses) GetByStudentID(_ context.Context, studentID string) (models.StudentFeedbackAnalysis, error) {
	analysis, ok := m.byStudent[studentID]
	if !ok {
		return models.StudentFeedbackAnalysis{}, gorm.ErrRecordNotFound
	}
	return analysis, nil
}

type staticLoader struct {
	text string
	err  error
}

func (l staticLoader) Load(context.Context, string) (string, error) {
	return l.text, l.err
}

type replyGenerator struct {
	replies  []string
	errs     []error
	prompts  []ai.Request
	fallback string
}

func (g *replyGenerator) Name() string { return "stub" }

func (g *replyGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	idx := len(g.prompts)
	g.prompts = append(g.prompts, req)
	if idx < len(g.errs) && g.errs[idx] != nil {
		return "", g.errs[idx]
	}
	if idx < len(g.replies) {
		return g.replies[idx], nil
	}
	return g.fallback, nil
}

type capturedEvents struct {
	mu     sync.Mutex
	events []events.AnalysisEvent
}

func (c *capturedEvents) Publish(_ context.Context, event events.AnalysisEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

var errDatabaseDown = errors.New("database down")

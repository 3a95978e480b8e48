package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assess-api/internal/analysis"
	"github.com/noah-isme/gema-assess-api/internal/dto"
	"github.com/noah-isme/gema-assess-api/internal/events"
	"github.com/noah-isme/gema-assess-api/internal/models"
	"github.com/noah-isme/gema-assess-api/pkg/ai"
)

func newPlagiarismFixture(status string) (*memorySubmissions, *recordingReports, *capturedEvents) {
	submission := models.Submission{ID: "sub-1", AssignmentID: "assignment-1", StudentID: "student-1", FileURL: "https://files/essay.txt", Status: status}
	return &memorySubmissions{items: map[string]models.Submission{submission.ID: submission}}, &recordingReports{}, &capturedEvents{}
}

func TestPlagiarismServiceRecordsHighRisk(t *testing.T) {
	submissions, reports, captured := newPlagiarismFixture(models.SubmissionStatusSubmitted)
	generator := &replyGenerator{replies: []string{`{"riskScore": 82, "suspiciousSections": [{"text": "copied", "reason": "verbatim"}], "recommendations": ["cite sources"], "overallAssessment": "High overlap."}`}}
	svc := NewPlagiarismService(submissions, reports, staticLoader{text: "Essay text"}, generator, captured, newValidator(), zerolog.Nop())
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.(*plagiarismService).now = func() time.Time { return fixed }

	resp, err := svc.Check(context.Background(), dto.PlagiarismCheckRequest{SubmissionID: "sub-1"})
	require.NoError(t, err)

	require.True(t, resp.Success)
	require.Equal(t, 82, resp.PlagiarismAnalysis.RiskScore)
	require.Equal(t, analysis.RiskHigh, resp.PlagiarismAnalysis.RiskLevel)
	require.Equal(t, float32(0.3), generator.prompts[0].Temperature)
	require.Zero(t, generator.prompts[0].MaxOutputTokens)

	require.Len(t, reports.records, 1)
	record := reports.records[0]
	require.Equal(t, 82, record.report.RiskScore)
	require.Equal(t, "high", record.report.RiskLevel)
	require.False(t, record.report.Degraded)
	require.Equal(t, models.SubmissionStatusPlagiarismChecked, record.update.Status)
	require.Equal(t, 82, *record.update.PlagiarismScore)

	var comments map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(*record.update.TeacherComments), &comments))
	require.Equal(t, true, comments["plagiarism_checked"])
	require.Equal(t, float64(82), comments["plagiarism_score"])
	require.Equal(t, true, comments["is_plagiarized"])
	require.Equal(t, "2024-03-01T10:00:00Z", comments["checked_at"])

	var stored analysis.PlagiarismResult
	require.NoError(t, json.Unmarshal(record.update.PlagiarismReport, &stored))
	require.Equal(t, resp.PlagiarismAnalysis, stored)

	require.Len(t, captured.events, 1)
	require.Equal(t, events.KindPlagiarism, captured.events[0].Kind)
	require.Equal(t, "report-1", captured.events[0].RecordID)
}

func TestPlagiarismServiceKeepsGradedStatus(t *testing.T) {
	submissions, reports, captured := newPlagiarismFixture(models.SubmissionStatusGraded)
	generator := &replyGenerator{replies: []string{`{"riskScore": 12}`}}
	svc := NewPlagiarismService(submissions, reports, staticLoader{text: "Essay text"}, generator, captured, newValidator(), zerolog.Nop())

	resp, err := svc.Check(context.Background(), dto.PlagiarismCheckRequest{SubmissionID: "sub-1"})
	require.NoError(t, err)
	require.Equal(t, analysis.RiskLow, resp.PlagiarismAnalysis.RiskLevel)
	require.Equal(t, models.SubmissionStatusGraded, reports.records[0].update.Status)
}

func TestPlagiarismServiceDegradedReplyNeedsManualReview(t *testing.T) {
	submissions, reports, captured := newPlagiarismFixture(models.SubmissionStatusSubmitted)
	generator := &replyGenerator{replies: []string{"I cannot determine this."}}
	svc := NewPlagiarismService(submissions, reports, staticLoader{text: "Essay text"}, generator, captured, newValidator(), zerolog.Nop())

	resp, err := svc.Check(context.Background(), dto.PlagiarismCheckRequest{SubmissionID: "sub-1"})
	require.NoError(t, err)
	require.Equal(t, 50, resp.PlagiarismAnalysis.RiskScore)
	require.True(t, reports.records[0].report.Degraded)
	require.Equal(t, "degraded", captured.events[0].Source)
}

func TestPlagiarismServiceSurfacesExhaustion(t *testing.T) {
	submissions, reports, captured := newPlagiarismFixture(models.SubmissionStatusSubmitted)
	generator := &replyGenerator{errs: []error{&ai.ExhaustedError{Attempts: 3}}}
	svc := NewPlagiarismService(submissions, reports, staticLoader{text: "Essay text"}, generator, captured, newValidator(), zerolog.Nop())

	_, err := svc.Check(context.Background(), dto.PlagiarismCheckRequest{SubmissionID: "sub-1"})
	require.ErrorIs(t, err, ai.ErrUpstreamUnavailable)
	require.Empty(t, reports.records)
	require.Empty(t, captured.events)
}

func TestPlagiarismServiceErrors(t *testing.T) {
	submissions, reports, captured := newPlagiarismFixture(models.SubmissionStatusSubmitted)
	svc := NewPlagiarismService(submissions, reports, staticLoader{text: "Essay text"}, &replyGenerator{fallback: `{"riskScore": 5}`}, captured, newValidator(), zerolog.Nop())

	_, err := svc.Check(context.Background(), dto.PlagiarismCheckRequest{SubmissionID: "missing"})
	require.ErrorIs(t, err, ErrNotFound)

	reports.err = errDatabaseDown
	_, err = svc.Check(context.Background(), dto.PlagiarismCheckRequest{SubmissionID: "sub-1"})
	var persistence *PersistenceError
	require.True(t, errors.As(err, &persistence))

	empty := NewPlagiarismService(submissions, &recordingReports{}, staticLoader{err: ErrEmptyContent}, &replyGenerator{}, nil, newValidator(), zerolog.Nop())
	_, err = empty.Check(context.Background(), dto.PlagiarismCheckRequest{SubmissionID: "sub-1"})
	require.ErrorIs(t, err, ErrEmptyContent)
}

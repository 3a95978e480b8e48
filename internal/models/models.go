package models

// All lists every model persisted by the service, in migration order.
func All() []interface{} {
	return []interface{}{
		&Rubric{},
		&RubricCriterion{},
		&Assignment{},
		&Submission{},
		&SubmissionGrade{},
		&CriteriaGrade{},
		&PlagiarismReport{},
		&StudentFeedbackAnalysis{},
	}
}

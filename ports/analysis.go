package ports

import (
	"context"

	"uniscan/domain/analysis"
	"uniscan/domain/submission"
)

// AnalysisOutcome is what a successful run returns: the stored record and
// the result it was built from
type AnalysisOutcome struct {
	Record *analysis.Record
	Result analysis.Result
}

// ID is the stored analysis id
func (o *AnalysisOutcome) ID() int64 {
	if o == nil || o.Record == nil {
		return 0
	}
	return o.Record.ID
}

// AnalysisRunner runs the full analysis for a validated submission. Runs are
// atomic: on error nothing has been stored.
type AnalysisRunner interface {
	RunAnalysis(ctx context.Context, sub submission.Submission) (*AnalysisOutcome, error)
}

// EmailGenerator drafts the follow-up email of a stored analysis
type EmailGenerator interface {
	Generate(ctx context.Context, analysisID int64) (*analysis.Email, error)
}

package judge

// Outcome classifies a graded submission.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeCorrect
	OutcomePartial
	OutcomeIncorrect
	OutcomeSyntaxError
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomePartial:
		return "partial"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeSyntaxError:
		return "syntax_error"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Submission pipeline states stored in the submissions table.
const (
	StatusPending = "pending"
	StatusGrading = "grading"
	StatusGraded  = "graded"
)

// Verdict is what the updater writes back for one submission.
type Verdict struct {
	SubmissionID int
	Status       string
	Outcome      Outcome
	Feedback     string
}

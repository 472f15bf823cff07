package judge

type GradingJob struct {
	SubmissionID int    `db:"submission_id"`
	SceneID      int    `db:"scene_id"`
	SubmittedSQL string `db:"submitted_sql"`
	ReferenceSQL string `db:"answer_sql"`
}

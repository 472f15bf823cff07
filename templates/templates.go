// Package templates holds the SQL the judge service runs against the main
// database. The grading core never uses these; it only executes the player
// and reference statements.
package templates

const FetchPendingSubmissions = `
SELECT s.submission_id, s.scene_id, s.submitted_sql, sc.answer_sql
FROM submissions s
JOIN scenes sc ON sc.id = s.scene_id
WHERE s.status = 'pending'
ORDER BY s.submitted_at, s.submission_id`

const MarkSubmissionGrading = `
UPDATE submissions
SET status = 'grading'
WHERE submission_id = ?`

const UpdateSubmissionVerdict = `
UPDATE submissions
SET status = ?, verdict = ?, feedback = ?, graded_at = datetime('now')
WHERE submission_id = ?`

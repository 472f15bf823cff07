package judge

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sqlmystery/judge/config"
	"github.com/sqlmystery/judge/templates"
)

// GradingJudge polls the main database for pending submissions and grades
// them against the game database. Each worker grades one submission at a
// time; executions never share a transaction, so one player's failed
// statement cannot corrupt another's.
type GradingJudge struct {
	logger    *zap.Logger
	mainDB    *sqlx.DB
	waitGroup *sync.WaitGroup
	stop      chan struct{}
	verdicts  chan Verdict

	gameDB      *sqlx.DB
	fetchTicker *time.Ticker
	jobs        chan GradingJob
}

func NewGradingJudge(
	logger *zap.Logger,
	mainDB *sqlx.DB,
	waitGroup *sync.WaitGroup,
	stop chan struct{},
	verdicts chan Verdict,
) *GradingJudge {
	return &GradingJudge{
		logger:    logger,
		mainDB:    mainDB,
		waitGroup: waitGroup,
		stop:      stop,
		verdicts:  verdicts,
		jobs:      make(chan GradingJob),
	}
}

func (j *GradingJudge) Start(cfg config.GradingJudgeConfig) error {
	if err := j.ConnectGameDB(cfg); err != nil {
		return err
	}
	j.fetchTicker = time.NewTicker(time.Duration(cfg.FetchPeriod) * time.Millisecond)

	j.waitGroup.Add(1 + cfg.WorkerCount)

	go j.StartFetching()
	for id := 1; id <= cfg.WorkerCount; id++ {
		go j.GradingWorker(id)
	}

	return nil
}

func (j *GradingJudge) Stop() {
	// Start may have failed before the ticker existed.
	if j.fetchTicker != nil {
		j.fetchTicker.Stop()
	}
}

func (j *GradingJudge) ConnectGameDB(cfg config.GradingJudgeConfig) error {
	// mode=ro keeps the grader read-only even if a mutating statement slips
	// past the sanitizer guard.
	connectionString := cfg.GameDBConfig.ReadOnlyConnectionString()

	db, err := connectDB(connectionString)
	if err != nil {
		return err
	}

	j.gameDB = db

	j.logger.Info(
		"game database connected",
		zap.String("connection_string", connectionString),
	)

	return nil
}

func (j *GradingJudge) FetchJobs() error {
	// Materialize the pending set before writing anything: marking a row
	// while the SELECT cursor is still open would deadlock SQLite against
	// its own shared lock.
	var jobs []GradingJob
	if err := j.mainDB.Select(&jobs, templates.FetchPendingSubmissions); err != nil {
		return err
	}

	for _, job := range jobs {
		// Mark before dispatch so the next tick does not refetch the row.
		if _, err := j.mainDB.Exec(templates.MarkSubmissionGrading, job.SubmissionID); err != nil {
			return err
		}

		select {
		case j.jobs <- job:
		case <-j.stop:
			return nil
		}
	}

	return nil
}

func (j *GradingJudge) StartFetching() {
	defer func() {
		j.logger.Info("stopped fetching grading jobs")
		j.waitGroup.Done()
	}()
	for {
		select {
		case <-j.stop:
			return
		case <-j.fetchTicker.C:
			if err := j.FetchJobs(); err != nil {
				j.logger.Error(
					"failed fetching grading jobs",
					zap.String("error_message", err.Error()),
				)
			}
		}
	}
}

func (j *GradingJudge) GradingWorker(workerID int) {
	defer func() {
		j.logger.Info(
			"stopped grading worker",
			zap.Int("worker_id", workerID),
		)
		j.waitGroup.Done()
	}()
	for {
		select {
		case <-j.stop:
			return
		case job := <-j.jobs:
			select {
			case j.verdicts <- j.gradeSubmission(job):
			case <-j.stop:
				return
			}
		}
	}
}

// gradeSubmission sanitizes, guards and grades one submission. The sanitized
// statement that passes the guard is exactly the statement that gets
// executed and logged.
func (j *GradingJudge) gradeSubmission(job GradingJob) Verdict {
	candidate := FirstStatement(job.SubmittedSQL)

	if accepted, reason := EnforceReadOnly(candidate); !accepted {
		j.logger.Info(
			"submission rejected by read-only guard",
			zap.Int("submission_id", job.SubmissionID),
			zap.String("reason", reason),
		)
		return Verdict{
			SubmissionID: job.SubmissionID,
			Status:       StatusGraded,
			Outcome:      OutcomeSyntaxError,
			Feedback:     reason,
		}
	}

	result := Grade(context.Background(), j.gameDB, candidate, job.ReferenceSQL)
	if result.Outcome == OutcomeError {
		j.logger.Error(
			"scene reference query is broken",
			zap.Int("submission_id", job.SubmissionID),
			zap.Int("scene_id", job.SceneID),
			zap.String("error_message", result.Message),
		)
	}

	return Verdict{
		SubmissionID: job.SubmissionID,
		Status:       StatusGraded,
		Outcome:      result.Outcome,
		Feedback:     result.Message,
	}
}

package judge

import (
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sqlmystery/judge/config"
	"github.com/sqlmystery/judge/templates"
)

// Judges owns the shared dependencies of the grading service: the logger,
// the main database holding scenes and submissions, and the verdict updater
// that drains graded results back into the submissions table.
type Judges struct {
	logger *zap.Logger

	mainDB *sqlx.DB

	waitGroup *sync.WaitGroup
	stop      chan struct{}

	gradingJudge *GradingJudge

	verdicts chan Verdict
}

func NewJudges(wg *sync.WaitGroup) *Judges {
	return &Judges{
		waitGroup: wg,
		stop:      make(chan struct{}),
		verdicts:  make(chan Verdict),
	}
}

func (j *Judges) Start(cfg config.JudgesConfig) error {
	// set up common dependencies
	if err := j.SetupLogger(cfg); err != nil {
		return err
	}
	if err := j.ConnectMainDB(cfg); err != nil {
		return err
	}
	j.waitGroup.Add(1)

	go j.SubmissionUpdater()

	j.gradingJudge = NewGradingJudge(j.logger, j.mainDB, j.waitGroup, j.stop, j.verdicts)

	return j.gradingJudge.Start(cfg.GradingJudgeConfig)
}

func (j *Judges) Stop() {
	// The SIGTERM handler is installed before Start, so Stop can arrive
	// before the grading judge exists.
	if j.gradingJudge != nil {
		j.gradingJudge.Stop()
	}
	close(j.stop)
}

func (j *Judges) SetupLogger(cfg config.JudgesConfig) error {
	logger, err := cfg.LoggerConfig.Build()
	if err != nil {
		return err
	}

	j.logger = logger

	return nil
}

func (j *Judges) ConnectMainDB(cfg config.JudgesConfig) error {
	connectionString := cfg.MainDBConfig.ConnectionString()

	db, err := connectDB(connectionString)
	if err != nil {
		return err
	}

	j.mainDB = db

	j.logger.Info(
		"main database connected",
		zap.String("connection_string", connectionString),
	)

	return nil
}

func (j *Judges) UpdateSubmissionVerdict(v Verdict) error {
	_, err := j.mainDB.Exec(
		templates.UpdateSubmissionVerdict,
		v.Status, v.Outcome.String(), v.Feedback, v.SubmissionID,
	)
	return err
}

func (j *Judges) SubmissionUpdater() {
	defer func() {
		j.logger.Info("stopped submission updater")
		j.waitGroup.Done()
	}()
	for {
		select {
		case <-j.stop:
			return
		case v := <-j.verdicts:
			if err := j.UpdateSubmissionVerdict(v); err != nil {
				j.logger.Error(
					"submission update failed",
					zap.Int("submission_id", v.SubmissionID),
					zap.String("error_message", err.Error()),
				)
			}
		}
	}
}

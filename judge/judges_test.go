package judge

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sqlmystery/judge/config"
	"github.com/sqlmystery/judge/game"
)

type submissionRow struct {
	Status   string  `db:"status"`
	Verdict  *string `db:"verdict"`
	Feedback *string `db:"feedback"`
}

func TestJudgesGradeSubmissionsEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.db")

	seed, err := sqlx.Connect(sqliteDriverName, "file:"+path+"?_fk=1&_busy_timeout=5000")
	require.NoError(t, err)
	require.NoError(t, game.Setup(seed))

	widgetAnswer := game.Scenes()[0].AnswerSQL
	insert := `INSERT INTO submissions (student_id, scene_id, submitted_sql) VALUES (?, ?, ?)`
	_, err = seed.Exec(insert, 1, 1, widgetAnswer)
	require.NoError(t, err)
	_, err = seed.Exec(insert, 1, 1, "DROP TABLE products")
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	loggerCfg := zap.NewDevelopmentConfig()
	loggerCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	cfg := config.JudgesConfig{
		LoggerConfig: loggerCfg,
		MainDBConfig: config.SQLiteConfig{Path: path},
		GradingJudgeConfig: config.GradingJudgeConfig{
			GameDBConfig: config.SQLiteConfig{Path: path},
			FetchPeriod:  100,
			WorkerCount:  2,
		},
	}
	require.NoError(t, cfg.Validate())

	wg := new(sync.WaitGroup)
	judges := NewJudges(wg)
	require.NoError(t, judges.Start(cfg))

	check, err := sqlx.Connect(sqliteDriverName, "file:"+path+"?_fk=1&_busy_timeout=5000")
	require.NoError(t, err)
	defer check.Close()

	allGraded := func() bool {
		var pending int
		if err := check.Get(&pending, `SELECT COUNT(*) FROM submissions WHERE status != 'graded'`); err != nil {
			return false
		}
		return pending == 0
	}
	require.Eventually(t, allGraded, 10*time.Second, 50*time.Millisecond)

	judges.Stop()
	wg.Wait()

	var rows []submissionRow
	require.NoError(t, check.Select(&rows, `SELECT status, verdict, feedback FROM submissions ORDER BY submission_id`))
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].Verdict)
	assert.Equal(t, "correct", *rows[0].Verdict)

	// The mutation never reaches the game database: the read-only guard
	// rejects it as a resubmittable syntax_error.
	require.NotNil(t, rows[1].Verdict)
	assert.Equal(t, "syntax_error", *rows[1].Verdict)
	require.NotNil(t, rows[1].Feedback)
	assert.Contains(t, *rows[1].Feedback, "only SELECT")

	var products int
	require.NoError(t, check.Get(&products, `SELECT COUNT(*) FROM products`))
	assert.Equal(t, 5, products)
}

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

	"github.com/sqlmystery/judge/game"
)

func newFileMainDB(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "game.db")
	db, err := sqlx.Connect(sqliteDriverName, "file:"+path+"?_fk=1&_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, game.Setup(db))
	return db
}

// A file-backed database in its default rollback-journal mode: the fetch
// loop must finish reading the pending set before it starts marking rows,
// or the UPDATE blocks on the SELECT's own shared lock until the busy
// timeout expires and nothing is ever dispatched.
func TestFetchJobsMarksAndDispatchesPending(t *testing.T) {
	db := newFileMainDB(t)

	insert := `INSERT INTO submissions (student_id, scene_id, submitted_sql) VALUES (?, ?, ?)`
	_, err := db.Exec(insert, 1, 1, "SELECT 1")
	require.NoError(t, err)
	_, err = db.Exec(insert, 1, 2, "SELECT 2")
	require.NoError(t, err)

	stop := make(chan struct{})
	j := NewGradingJudge(zap.NewNop(), db, new(sync.WaitGroup), stop, make(chan Verdict))

	received := make(chan GradingJob, 2)
	go func() {
		for i := 0; i < 2; i++ {
			received <- <-j.jobs
		}
	}()

	require.NoError(t, j.FetchJobs())

	var dispatched []GradingJob
	for i := 0; i < 2; i++ {
		select {
		case job := <-received:
			dispatched = append(dispatched, job)
		case <-time.After(5 * time.Second):
			t.Fatal("fetched job was never dispatched")
		}
	}
	require.Len(t, dispatched, 2)
	assert.Equal(t, "SELECT 1", dispatched[0].SubmittedSQL)
	assert.Equal(t, "SELECT 2", dispatched[1].SubmittedSQL)

	var pending int
	require.NoError(t, db.Get(&pending, `SELECT COUNT(*) FROM submissions WHERE status = 'pending'`))
	assert.Zero(t, pending)

	// Nothing left to fetch, and nobody draining: must still return clean.
	require.NoError(t, j.FetchJobs())
}

func TestFetchJobsReturnsOnStopWhileDispatchBlocked(t *testing.T) {
	db := newFileMainDB(t)

	_, err := db.Exec(`INSERT INTO submissions (student_id, scene_id, submitted_sql) VALUES (1, 1, 'SELECT 1')`)
	require.NoError(t, err)

	stop := make(chan struct{})
	j := NewGradingJudge(zap.NewNop(), db, new(sync.WaitGroup), stop, make(chan Verdict))
	close(stop)

	// No worker is draining j.jobs; the stop channel must unblock the send.
	require.NoError(t, j.FetchJobs())
}

func TestGradingWorkerStopsWhileVerdictSendBlocked(t *testing.T) {
	stop := make(chan struct{})
	wg := new(sync.WaitGroup)
	j := NewGradingJudge(zap.NewNop(), nil, wg, stop, make(chan Verdict))

	wg.Add(1)
	go j.GradingWorker(1)

	// The guard rejects this without touching any database; the worker then
	// blocks sending the verdict because nobody is draining the channel.
	j.jobs <- GradingJob{SubmissionID: 1, SubmittedSQL: "DROP TABLE products"}
	close(stop)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit after stop while its verdict send was blocked")
	}
}

func TestStopBeforeStartDoesNotPanic(t *testing.T) {
	j := NewGradingJudge(zap.NewNop(), nil, new(sync.WaitGroup), make(chan struct{}), make(chan Verdict))
	require.NotPanics(t, j.Stop)

	judges := NewJudges(new(sync.WaitGroup))
	require.NotPanics(t, judges.Stop)
}

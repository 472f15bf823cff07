package game

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	return db
}

func TestSetupSeedsMysteryData(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Setup(db))

	counts := map[string]int{
		"products":    5,
		"suppliers":   3,
		"warehouses":  3,
		"shipments":   9,
		"inventory":   5,
		"scenes":      5,
		"submissions": 0,
	}
	for table, want := range counts {
		var got int
		require.NoError(t, db.Get(&got, "SELECT COUNT(*) FROM "+table))
		assert.Equal(t, want, got, "table %s", table)
	}

	// The scene 1 anomaly: 200 Widgets in stock, only 150 ever shipped.
	var stock int
	require.NoError(t, db.Get(&stock, `SELECT stock FROM inventory WHERE product_id = 1 AND warehouse_id = 1`))
	assert.Equal(t, 200, stock)
}

func TestSetupIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Setup(db))
	require.NoError(t, Setup(db))

	var products int
	require.NoError(t, db.Get(&products, "SELECT COUNT(*) FROM products"))
	assert.Equal(t, 5, products)
}

func TestSceneAnswersExecute(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Setup(db))

	for _, scene := range Scenes() {
		rows, err := db.Query(scene.AnswerSQL)
		require.NoError(t, err, "scene %d (%s)", scene.ID, scene.Title)
		require.NoError(t, rows.Close())
	}
}

func TestScenesAreWellFormed(t *testing.T) {
	scenes := Scenes()
	require.Len(t, scenes, 5)
	for i, scene := range scenes {
		assert.Equal(t, i+1, scene.ID)
		assert.NotEmpty(t, scene.Title)
		assert.NotEmpty(t, scene.Story)
		assert.NotEmpty(t, scene.Question)
		assert.NotEmpty(t, scene.AnswerSQL)
	}
}

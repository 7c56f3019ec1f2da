package db

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_AppliesMigrations(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)

	// the schema is usable immediately
	require.NoError(t, db.RecordClassification("s1", "web", "true", 0.01, ""))
}

func TestOpen_Reentrant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	// reopening an already-migrated database is a no-op
	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()
}

func TestRecentClassifications_Order(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.RecordClassification("s1", "web", "first", 0.010, ""))
	require.NoError(t, db.RecordClassification("s1", "web", "second", 0.020, "ack:a"))
	require.NoError(t, db.RecordClassification("s2", "video-file", "third", 0.030, ""))

	events, err := db.RecentClassifications(10)
	require.NoError(t, err)
	require.Len(t, events, 3)

	// newest first
	assert.Equal(t, "third", events[0].Label)
	assert.Equal(t, "second", events[1].Label)
	assert.Equal(t, "first", events[2].Label)
	assert.Equal(t, "ack:a", events[1].Actuation)
	assert.Equal(t, "video-file", events[0].Source)
	assert.InDelta(t, 0.020, events[1].ProcessingSec, 1e-9)
}

func TestRecentClassifications_Limit(t *testing.T) {
	db := openTestDB(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.RecordClassification("s1", "web", "true", 0.01, ""))
	}

	events, err := db.RecentClassifications(2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestSummarizeSession(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.RecordClassification("s1", "web", "true", 0.010, ""))
	require.NoError(t, db.RecordClassification("s1", "web", "false", 0.030, ""))

	summary, err := db.SummarizeSession("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", summary.SessionID)
	assert.Equal(t, 2, summary.Classifications)
	assert.InDelta(t, 0.020, summary.AvgProcessingSec, 1e-9)

	_, err = db.SummarizeSession("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAdminRoutes(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.RecordClassification("s1", "web", "true", 0.01, ""))

	mux := http.NewServeMux()
	db.AttachAdminRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/debug/db/classifications")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

package service

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/auth"
	"github.com/iliyamo/cms-backend/internal/database"
	"github.com/iliyamo/cms-backend/internal/logger"
)

// Runs against a real MySQL when CMS_TEST_MYSQL_DSN is set, e.g.
// "root:pw@tcp(127.0.0.1:3306)/cms_test?parseTime=true&clientFoundRows=true".
func openMySQL(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("CMS_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("CMS_TEST_MYSQL_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func TestMySQL_ConcurrentBindHasOneWinner(t *testing.T) {
	db := openMySQL(t)
	ctx := context.Background()

	var actors []auth.Identity
	for _, name := range []string{"racer-a", "racer-b"} {
		res, err := db.ExecContext(ctx, "INSERT INTO users (username, password_hash) VALUES (?, 'x')", name)
		require.NoError(t, err)
		uid, err := res.LastInsertId()
		require.NoError(t, err)
		actors = append(actors, auth.Identity{UserID: uint64(uid), Username: name, Role: "author"})
	}
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), "DELETE FROM users WHERE username IN ('racer-a', 'racer-b')")
	})

	res, err := db.ExecContext(ctx,
		"INSERT INTO contents (title, content_type_id, metadata, status) VALUES ('race', 1, '{}', 'draft')")
	require.NoError(t, err)
	id64, err := res.LastInsertId()
	require.NoError(t, err)
	id := uint64(id64)
	t.Cleanup(func() { _, _ = db.ExecContext(context.Background(), "DELETE FROM contents WHERE id = ?", id) })

	s := NewContentService(db, nil, logger.Discard())

	errs := make([]error, len(actors))
	var wg sync.WaitGroup
	for i, a := range actors {
		wg.Add(1)
		go func(i int, a auth.Identity) {
			defer wg.Done()
			title := a.Username
			_, errs[i] = s.Update(ctx, a, id, ContentUpdate{Title: &title})
		}(i, a)
	}
	wg.Wait()

	var wins, forbidden int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case apperr.Is(err, apperr.Forbidden):
			forbidden++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, forbidden)

	var owner uint64
	require.NoError(t, db.QueryRowContext(ctx, "SELECT author_user_id FROM contents WHERE id = ?", id).Scan(&owner))
	assert.Contains(t, []uint64{actors[0].UserID, actors[1].UserID}, owner)
}

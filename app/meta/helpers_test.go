package meta

import (
	"context"
	"testing"
	"time"

	"github.com/hotosm/odmcatalog/app/db"
	"github.com/hotosm/odmcatalog/testutil"
)

// testDB connects to the test database, skipping when it is unavailable
func testDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.NewDB(testutil.RequireDB(t))
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := database.InitSchema(ctx); err != nil {
		database.Close()
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = database.Pool.Exec(ctx, "TRUNCATE TABLE odmcatalog_publications")
		database.Close()
	})

	return database
}

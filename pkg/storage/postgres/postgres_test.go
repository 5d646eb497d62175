package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rhuss/packagefeed/pkg/api"
	"github.com/rhuss/packagefeed/pkg/storage"
)

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if no container runtime is available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("packagefeed_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func makeTestPackage(id, version string) *api.Package {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &api.Package{
		ID:          id,
		Version:     version,
		Description: "Test package " + id,
		Authors:     "feed tests",
		Tags:        "test fixture",
		Listed:      true,
		Dependencies: []api.Dependency{
			{ID: "Dep.One", VersionSpec: "[1.0.0, )", TargetFramework: "net8.0"},
		},
		DownloadCount: 42,
		Created:       ts,
		Published:     ts,
		LastUpdated:   ts,
	}
}

func TestPostgres_PutAndGet(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	if err := store.Put(ctx, makeTestPackage("Newtonsoft.Json", "13.0.3")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "NEWTONSOFT.JSON", "13.0.3.0")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.ID != "Newtonsoft.Json" {
		t.Errorf("ID = %q, want %q", got.ID, "Newtonsoft.Json")
	}
	if got.NormalizedVersion != "13.0.3" {
		t.Errorf("NormalizedVersion = %q", got.NormalizedVersion)
	}
	if len(got.Dependencies) != 1 || got.Dependencies[0].ID != "Dep.One" {
		t.Errorf("Dependencies = %+v", got.Dependencies)
	}
	if !got.IsLatestVersion || !got.IsAbsoluteLatestVersion {
		t.Errorf("single version should be latest: %+v", got)
	}
	if !got.Published.Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Published = %v", got.Published)
	}
}

func TestPostgres_GetNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.Get(context.Background(), "Missing", "1.0.0")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_PutReplaces(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	p := makeTestPackage("A", "1.0.0")
	store.Put(ctx, p)
	p.Description = "updated"
	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, err := store.Get(ctx, "A", "1.0.0")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Description != "updated" {
		t.Errorf("Description = %q, want %q", got.Description, "updated")
	}
}

func TestPostgres_LatestFlags(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	for _, v := range []string{"1.0.0", "10.0.0", "2.0.0", "11.0.0-beta"} {
		if err := store.Put(ctx, makeTestPackage("A", v)); err != nil {
			t.Fatalf("Put(%s): %v", v, err)
		}
	}

	versions, err := store.FindByID(ctx, "a")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	var order []string
	for _, v := range versions {
		order = append(order, v.Version)
		switch v.Version {
		case "10.0.0":
			if !v.IsLatestVersion || v.IsAbsoluteLatestVersion {
				t.Errorf("10.0.0 flags: latest=%v absolute=%v", v.IsLatestVersion, v.IsAbsoluteLatestVersion)
			}
		case "11.0.0-beta":
			if v.IsLatestVersion || !v.IsAbsoluteLatestVersion {
				t.Errorf("11.0.0-beta flags: latest=%v absolute=%v", v.IsLatestVersion, v.IsAbsoluteLatestVersion)
			}
		default:
			if v.IsLatestVersion || v.IsAbsoluteLatestVersion {
				t.Errorf("%s should not be latest", v.Version)
			}
		}
	}
	if want := fmt.Sprint([]string{"1.0.0", "2.0.0", "10.0.0", "11.0.0-beta"}); fmt.Sprint(order) != want {
		t.Errorf("version order = %v, want %v", order, want)
	}
}

func TestPostgres_ListKeysetPagination(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	for i := range 5 {
		store.Put(ctx, makeTestPackage(fmt.Sprintf("Pkg%02d", i), "1.0.0"))
	}
	unlisted := makeTestPackage("Hidden", "1.0.0")
	unlisted.Listed = false
	store.Put(ctx, unlisted)

	var seen []string
	q := storage.Query{Top: 2}
	for {
		page, err := store.List(ctx, q)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if page.TotalHits != 5 {
			t.Errorf("TotalHits = %d, want 5", page.TotalHits)
		}
		for _, p := range page.Packages {
			seen = append(seen, p.ID)
		}
		if !page.More {
			break
		}
		last := storage.KeyOf(&page.Packages[len(page.Packages)-1])
		q.After = &last
	}

	if want := "[Pkg00 Pkg01 Pkg02 Pkg03 Pkg04]"; fmt.Sprint(seen) != want {
		t.Errorf("seen = %v, want %s", seen, want)
	}
}

func TestPostgres_ListSearchAndOrder(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	for i, id := range []string{"Json.Core", "Json.Extra", "Xml.Core"} {
		p := makeTestPackage(id, "1.0.0")
		p.DownloadCount = int64(100 * (i + 1))
		store.Put(ctx, p)
	}
	pre := makeTestPackage("Json.Core", "2.0.0-rc.1")
	store.Put(ctx, pre)

	page, err := store.List(ctx, storage.Query{
		SearchTerm: "json",
		OrderBy:    storage.OrderByDownloadCount,
		Descending: true,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.TotalHits != 2 || page.Packages[0].ID != "Json.Extra" {
		t.Errorf("unexpected page: total=%d first=%+v", page.TotalHits, page.Packages)
	}

	page, err = store.List(ctx, storage.Query{SearchTerm: "json", IncludePrerelease: true, LatestOnly: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.TotalHits != 2 {
		t.Errorf("latest with prerelease TotalHits = %d, want 2", page.TotalHits)
	}

	page, err = store.List(ctx, storage.Query{SearchTerm: "100%"})
	if err != nil {
		t.Fatalf("List with wildcard characters failed: %v", err)
	}
	if page.TotalHits != 0 {
		t.Errorf("LIKE wildcards should be escaped, got %d hits", page.TotalHits)
	}
}

func TestPostgres_MigrationsIdempotent(t *testing.T) {
	store := setupTestDB(t)
	if err := store.migrate(context.Background()); err != nil {
		t.Fatalf("re-running migrations failed: %v", err)
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

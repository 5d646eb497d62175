// Package postgres provides a PostgreSQL implementation of
// storage.PackageRepository. It uses pgx/v5 for connection pooling and JSONB
// for dependency lists.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/packagefeed/pkg/api"
	"github.com/rhuss/packagefeed/pkg/storage"
)

// Store is a PostgreSQL-backed PackageRepository.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.PackageRepository at compile time.
var _ storage.PackageRepository = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

const packageColumns = `id, version, normalized_version, title, description, summary,
	authors, tags, project_url, dependencies, is_prerelease, is_latest_version,
	is_absolute_latest_version, listed, download_count, version_download_count,
	package_size, package_hash, package_hash_algorithm, require_license_acceptance,
	created, published, last_updated`

// Put inserts or replaces a package version and recomputes the latest flags
// of its package id in the same transaction.
func (s *Store) Put(ctx context.Context, pkg *api.Package) error {
	p := *pkg
	if err := storage.Prepare(&p); err != nil {
		return err
	}

	deps := p.Dependencies
	if deps == nil {
		deps = []api.Dependency{}
	}
	depsJSON, err := json.Marshal(deps)
	if err != nil {
		return fmt.Errorf("marshaling dependencies: %w", err)
	}

	idLower := strings.ToLower(p.ID)

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO packages (id_lower, `+packageColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, false, false,
				$13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
			ON CONFLICT (id_lower, normalized_version) DO UPDATE SET
				id = EXCLUDED.id,
				version = EXCLUDED.version,
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				summary = EXCLUDED.summary,
				authors = EXCLUDED.authors,
				tags = EXCLUDED.tags,
				project_url = EXCLUDED.project_url,
				dependencies = EXCLUDED.dependencies,
				is_prerelease = EXCLUDED.is_prerelease,
				listed = EXCLUDED.listed,
				download_count = EXCLUDED.download_count,
				version_download_count = EXCLUDED.version_download_count,
				package_size = EXCLUDED.package_size,
				package_hash = EXCLUDED.package_hash,
				package_hash_algorithm = EXCLUDED.package_hash_algorithm,
				require_license_acceptance = EXCLUDED.require_license_acceptance,
				created = EXCLUDED.created,
				published = EXCLUDED.published,
				last_updated = EXCLUDED.last_updated`,
			idLower, p.ID, p.Version, p.NormalizedVersion, p.Title, p.Description, p.Summary,
			p.Authors, p.Tags, p.ProjectURL, depsJSON, p.IsPrerelease,
			p.Listed, p.DownloadCount, p.VersionDownloadCount,
			p.PackageSize, p.PackageHash, p.PackageHashAlgorithm, p.RequireLicenseAcceptance,
			p.Created, p.Published, p.LastUpdated,
		)
		if err != nil {
			return fmt.Errorf("upserting package: %w", err)
		}
		return s.markLatest(ctx, tx, idLower)
	})
}

// markLatest recomputes the latest flags for every version of one id.
func (s *Store) markLatest(ctx context.Context, tx pgx.Tx, idLower string) error {
	rows, err := tx.Query(ctx,
		`SELECT normalized_version, version, listed, is_prerelease
		 FROM packages WHERE id_lower = $1 FOR UPDATE`, idLower)
	if err != nil {
		return fmt.Errorf("loading versions: %w", err)
	}
	versions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*api.Package, error) {
		p := &api.Package{}
		err := row.Scan(&p.NormalizedVersion, &p.Version, &p.Listed, &p.IsPrerelease)
		return p, err
	})
	if err != nil {
		return fmt.Errorf("loading versions: %w", err)
	}

	storage.MarkLatest(versions)

	batch := &pgx.Batch{}
	for _, v := range versions {
		batch.Queue(`UPDATE packages SET is_latest_version = $3, is_absolute_latest_version = $4
			WHERE id_lower = $1 AND normalized_version = $2`,
			idLower, v.NormalizedVersion, v.IsLatestVersion, v.IsAbsoluteLatestVersion)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("updating latest flags: %w", err)
	}
	return nil
}

// Get returns one package version. Either form of the version (as
// published or normalized) is accepted.
func (s *Store) Get(ctx context.Context, id, version string) (*api.Package, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+packageColumns+` FROM packages
		 WHERE id_lower = $1 AND normalized_version = $2`,
		strings.ToLower(id), api.NormalizeVersion(version))
	if err != nil {
		return nil, fmt.Errorf("querying package: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPackage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning package: %w", err)
	}
	return &p, nil
}

// FindByID returns every version of a package in ascending version order.
func (s *Store) FindByID(ctx context.Context, id string) ([]api.Package, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+packageColumns+` FROM packages WHERE id_lower = $1`,
		strings.ToLower(id))
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	pkgs, err := pgx.CollectRows(rows, scanPackage)
	if err != nil {
		return nil, fmt.Errorf("scanning versions: %w", err)
	}
	sortByVersion(pkgs)
	return pkgs, nil
}

// List returns one page of listed packages matching q.
func (s *Store) List(ctx context.Context, q storage.Query) (*storage.Page, error) {
	var b queryBuilder
	where := b.filter(q)

	var total int
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM packages WHERE "+where, b.args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting packages: %w", err)
	}

	if q.After != nil && q.OrderBy == storage.OrderByKey {
		op := ">"
		if q.Descending {
			op = "<"
		}
		where += fmt.Sprintf(" AND (id_lower, normalized_version) %s (%s, %s)",
			op, b.arg(strings.ToLower(q.After.ID)), b.arg(q.After.Version))
	}

	sql := "SELECT " + packageColumns + " FROM packages WHERE " + where +
		" ORDER BY " + orderClause(q)
	if q.Top > 0 {
		sql += " LIMIT " + b.arg(q.Top+1)
	}
	if q.Skip > 0 {
		sql += " OFFSET " + b.arg(q.Skip)
	}

	rows, err := s.pool.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	pkgs, err := pgx.CollectRows(rows, scanPackage)
	if err != nil {
		return nil, fmt.Errorf("scanning packages: %w", err)
	}

	page := &storage.Page{TotalHits: total, Packages: pkgs}
	if q.Top > 0 && len(pkgs) > q.Top {
		page.More = true
		page.Packages = pkgs[:q.Top]
	}
	if page.Packages == nil {
		page.Packages = []api.Package{}
	}
	return page, nil
}

// HealthCheck verifies database connectivity.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// queryBuilder accumulates positional arguments.
type queryBuilder struct {
	args []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// filter renders the WHERE conditions shared by List's count and page
// queries. The semantics match storage.Matches.
func (b *queryBuilder) filter(q storage.Query) string {
	conds := []string{"listed"}
	if q.ID != "" {
		conds = append(conds, "id_lower = "+b.arg(strings.ToLower(q.ID)))
	}
	if !q.IncludePrerelease {
		conds = append(conds, "NOT is_prerelease")
	}
	if q.LatestOnly {
		if q.IncludePrerelease {
			conds = append(conds, "is_absolute_latest_version")
		} else {
			conds = append(conds, "is_latest_version")
		}
	}
	for _, term := range strings.Fields(strings.ToLower(q.SearchTerm)) {
		p := b.arg("%" + escapeLike(term) + "%")
		conds = append(conds, fmt.Sprintf(
			"(id_lower LIKE %[1]s OR lower(title) LIKE %[1]s OR lower(tags) LIKE %[1]s OR lower(description) LIKE %[1]s)", p))
	}
	return strings.Join(conds, " AND ")
}

func orderClause(q storage.Query) string {
	dir := " ASC"
	if q.Descending {
		dir = " DESC"
	}
	cols := []string{"id_lower", "normalized_version"}
	switch q.OrderBy {
	case storage.OrderByDownloadCount:
		cols = append([]string{"download_count"}, cols...)
	case storage.OrderByPublished:
		cols = append([]string{"published"}, cols...)
	case storage.OrderByLastUpdated:
		cols = append([]string{"last_updated"}, cols...)
	case storage.OrderByTitle:
		cols = append([]string{`lower(title) COLLATE "C"`}, cols...)
	}
	for i := range cols {
		cols[i] += dir
	}
	return strings.Join(cols, ", ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanPackage(row pgx.CollectableRow) (api.Package, error) {
	var (
		p        api.Package
		depsJSON []byte
	)
	err := row.Scan(
		&p.ID, &p.Version, &p.NormalizedVersion, &p.Title, &p.Description, &p.Summary,
		&p.Authors, &p.Tags, &p.ProjectURL, &depsJSON, &p.IsPrerelease, &p.IsLatestVersion,
		&p.IsAbsoluteLatestVersion, &p.Listed, &p.DownloadCount, &p.VersionDownloadCount,
		&p.PackageSize, &p.PackageHash, &p.PackageHashAlgorithm, &p.RequireLicenseAcceptance,
		&p.Created, &p.Published, &p.LastUpdated,
	)
	if err != nil {
		return p, err
	}
	if len(depsJSON) > 0 {
		if err := json.Unmarshal(depsJSON, &p.Dependencies); err != nil {
			return p, fmt.Errorf("unmarshaling dependencies: %w", err)
		}
	}
	if len(p.Dependencies) == 0 {
		p.Dependencies = nil
	}
	return p, nil
}

func sortByVersion(pkgs []api.Package) {
	slices.SortFunc(pkgs, func(a, b api.Package) int {
		return api.CompareVersions(a.Version, b.Version)
	})
}

package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/xhad/ragd/internal/models"
)

// Config configures the pgvector-backed store. Dimension and Metric are
// fixed when the collection is created; changing either requires dropping
// and re-creating the collection.
type Config struct {
	ConnString   string
	Collection   string
	Dimension    int
	Metric       string // "dot" (default) or "cosine"
	CountCeiling int
}

// VectorStore manages one collection (a pgvector-indexed table) of embedded
// chunks.
type VectorStore struct {
	config Config
	pool   *pgxpool.Pool
}

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func NewWithConfig(ctx context.Context, config Config) (*VectorStore, error) {
	if config.Collection == "" {
		config.Collection = "documents"
	}
	if config.Dimension == 0 {
		config.Dimension = 768
	}
	if config.Metric == "" {
		config.Metric = "dot"
	}
	if config.CountCeiling == 0 {
		config.CountCeiling = 1000
	}

	if !identRe.MatchString(config.Collection) {
		return nil, &models.ConfigurationError{
			Field:   "database.collection",
			Message: fmt.Sprintf("invalid collection name %q", config.Collection),
		}
	}
	if _, _, err := operatorFor(config.Metric); err != nil {
		return nil, &models.ConfigurationError{
			Field:   "database.metric",
			Message: err.Error(),
		}
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, &models.ProviderError{Provider: "pgvector", Err: err}
	}

	return &VectorStore{config: config, pool: pool}, nil
}

// operatorFor maps a similarity metric to its pgvector distance operator and
// index opclass.
func operatorFor(metric string) (op, opclass string, err error) {
	switch metric {
	case "dot":
		return "<#>", "vector_ip_ops", nil
	case "cosine":
		return "<=>", "vector_cosine_ops", nil
	default:
		return "", "", fmt.Errorf("unsupported metric %q", metric)
	}
}

// CreateCollection provisions the extension, table and similarity index.
// Re-creating an existing collection is idempotent success, never an error.
func (vs *VectorStore) CreateCollection(ctx context.Context) error {
	_, opclass, _ := operatorFor(vs.config.Metric)

	statements := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				url TEXT NOT NULL,
				chunk_index INTEGER NOT NULL,
				content TEXT NOT NULL,
				embedding vector(%d) NOT NULL
			)`, vs.config.Collection, vs.config.Dimension),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_embedding_idx
			ON %s
			USING ivfflat (embedding %s)
			WITH (lists = 100)`,
			vs.config.Collection, vs.config.Collection, opclass),
	}

	for _, stmt := range statements {
		if _, err := vs.pool.Exec(ctx, stmt); err != nil {
			if alreadyExists(err) {
				continue
			}
			return &models.ProviderError{Provider: "pgvector", Err: err}
		}
	}
	return nil
}

// alreadyExists reports whether err is a duplicate object condition.
func alreadyExists(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 42P07 duplicate_table, 42710 duplicate_object
	return pgErr.Code == "42P07" || pgErr.Code == "42710"
}

// Insert stores one record. There is no upsert: re-ingesting the same source
// produces duplicate records.
func (vs *VectorStore) Insert(ctx context.Context, rec models.Record) error {
	stmt := fmt.Sprintf(`
		INSERT INTO %s (url, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4)`, vs.config.Collection)

	_, err := vs.pool.Exec(ctx, stmt,
		rec.SourceURL,
		rec.Sequence,
		rec.Text,
		pgvector.NewVector(rec.Vector),
	)
	if err != nil {
		return &models.ProviderError{Provider: "pgvector", Err: err}
	}
	return nil
}

// Search returns up to k records nearest to the query vector, sorted by
// similarity descending. An empty collection yields an empty slice.
func (vs *VectorStore) Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error) {
	op, _, _ := operatorFor(vs.config.Metric)

	query := fmt.Sprintf(`
		SELECT url, chunk_index, content, (embedding %s $1) AS distance
		FROM %s
		ORDER BY embedding %s $1
		LIMIT $2`, op, vs.config.Collection, op)

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, &models.ProviderError{Provider: "pgvector", Err: err}
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var rec models.Record
		var distance float32
		if err := rows.Scan(&rec.SourceURL, &rec.Sequence, &rec.Text, &distance); err != nil {
			return nil, &models.ProviderError{Provider: "pgvector", Err: err}
		}
		results = append(results, models.SearchResult{
			Record: rec,
			Score:  scoreFromDistance(vs.config.Metric, distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &models.ProviderError{Provider: "pgvector", Err: err}
	}
	return results, nil
}

// scoreFromDistance converts a pgvector distance into a similarity score
// where higher is more similar. The <#> operator returns the negated inner
// product; <=> returns cosine distance.
func scoreFromDistance(metric string, distance float32) float32 {
	if metric == "cosine" {
		return 1 - distance
	}
	return -distance
}

// Drop removes the collection and all its records.
func (vs *VectorStore) Drop(ctx context.Context) error {
	stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", vs.config.Collection)
	if _, err := vs.pool.Exec(ctx, stmt); err != nil {
		return &models.ProviderError{Provider: "pgvector", Err: err}
	}
	return nil
}

// Sample returns up to n stored records for diagnostic preview.
func (vs *VectorStore) Sample(ctx context.Context, n int) ([]models.Record, error) {
	query := fmt.Sprintf(`
		SELECT url, chunk_index, content
		FROM %s
		ORDER BY id
		LIMIT $1`, vs.config.Collection)

	rows, err := vs.pool.Query(ctx, query, n)
	if err != nil {
		return nil, &models.ProviderError{Provider: "pgvector", Err: err}
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var rec models.Record
		if err := rows.Scan(&rec.SourceURL, &rec.Sequence, &rec.Text); err != nil {
			return nil, &models.ProviderError{Provider: "pgvector", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.ProviderError{Provider: "pgvector", Err: err}
	}
	return records, nil
}

// Count reports the number of stored records, capped at the configured
// ceiling: counts beyond it come back as "N+" rather than an exact figure.
func (vs *VectorStore) Count(ctx context.Context) (string, error) {
	query := fmt.Sprintf(
		"SELECT count(*) FROM (SELECT 1 FROM %s LIMIT %d) capped",
		vs.config.Collection, vs.config.CountCeiling+1)

	var n int
	if err := vs.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return "", &models.ProviderError{Provider: "pgvector", Err: err}
	}
	return countLabel(n, vs.config.CountCeiling), nil
}

func countLabel(n, ceiling int) string {
	if n > ceiling {
		return strconv.Itoa(ceiling) + "+"
	}
	return strconv.Itoa(n)
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

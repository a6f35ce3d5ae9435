package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// SubjectLineRepository handles subject line and embedding queries.
type SubjectLineRepository struct {
	db DB
}

// NewSubjectLineRepository creates a new subject line repository.
func NewSubjectLineRepository(db DB) *SubjectLineRepository {
	return &SubjectLineRepository{db: db}
}

const subjectLineColumns = `
	sl.id, sl.subject_line, sl.company, sl.sub_industry,
	COALESCE(sl.open_rate, 0), COALESCE(sl.projected_volume, 0),
	COALESCE(sl.date_sent::text, ''), COALESCE(sl.mailing_type, ''),
	COALESCE(sl.inbox_rate, 0), COALESCE(sl.spam_rate, 0),
	COALESCE(sl.read_rate, 0), COALESCE(sl.read_delete_rate, 0),
	COALESCE(sl.delete_without_read_rate, 0)`

func scanSubjectLine(scan func(dest ...interface{}) error, s *SubjectLine) error {
	return scan(
		&s.ID, &s.SubjectLine, &s.Company, &s.SubIndustry,
		&s.OpenRate, &s.ProjectedVolume, &s.DateSent, &s.MailingType,
		&s.InboxRate, &s.SpamRate, &s.ReadRate, &s.ReadDeleteRate,
		&s.DeleteWithoutReadRate,
	)
}

// FindSimilar returns subject lines whose embeddings are within the cosine
// similarity threshold of the query embedding, most similar first.
func (r *SubjectLineRepository) FindSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]SimilarSubjectLine, error) {
	query := `
		SELECT ` + subjectLineColumns + `,
			1 - (e.embedding <=> $1::vector) AS similarity
		FROM subject_line_embeddings e
		JOIN subject_lines sl ON sl.id = e.subject_line_id
		WHERE 1 - (e.embedding <=> $1::vector) > $2
		ORDER BY e.embedding <=> $1::vector
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, vectorLiteral(embedding), threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var out []SimilarSubjectLine
	for rows.Next() {
		var s SimilarSubjectLine
		if err := scanSimilar(rows, &s); err != nil {
			return nil, fmt.Errorf("scan similar subject line: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSimilar(rows *sql.Rows, s *SimilarSubjectLine) error {
	return rows.Scan(
		&s.ID, &s.SubjectLine, &s.Company, &s.SubIndustry,
		&s.OpenRate, &s.ProjectedVolume, &s.DateSent, &s.MailingType,
		&s.InboxRate, &s.SpamRate, &s.ReadRate, &s.ReadDeleteRate,
		&s.DeleteWithoutReadRate, &s.Similarity,
	)
}

// SearchByKeyword finds subject lines containing the term, best open rates
// first. Used as the fallback when vector search returns nothing.
func (r *SubjectLineRepository) SearchByKeyword(ctx context.Context, term string, limit int) ([]SubjectLine, error) {
	query := `
		SELECT ` + subjectLineColumns + `
		FROM subject_lines sl
		WHERE UPPER(sl.subject_line) LIKE '%' || UPPER($1) || '%'
		ORDER BY sl.open_rate DESC NULLS LAST
		LIMIT $2
	`
	return r.querySubjectLines(ctx, query, term, limit)
}

// SubjectLineFilter narrows a templated subject line query.
type SubjectLineFilter struct {
	Companies     []string
	SubIndustries []string
	MailingTypes  []string
	OrderBy       string // open_rate or projected_volume
	Limit         int
}

// TopPerforming returns subject lines matching the filter, ordered by the
// requested metric descending.
func (r *SubjectLineRepository) TopPerforming(ctx context.Context, f SubjectLineFilter) ([]SubjectLine, error) {
	var (
		conds []string
		args  []interface{}
	)
	argIdx := 1

	if len(f.Companies) > 0 {
		conds = append(conds, fmt.Sprintf("sl.company = ANY($%d)", argIdx))
		args = append(args, pq.Array(f.Companies))
		argIdx++
	}
	if len(f.SubIndustries) > 0 {
		conds = append(conds, fmt.Sprintf("sl.sub_industry = ANY($%d)", argIdx))
		args = append(args, pq.Array(f.SubIndustries))
		argIdx++
	}
	if len(f.MailingTypes) > 0 {
		conds = append(conds, fmt.Sprintf("sl.mailing_type = ANY($%d)", argIdx))
		args = append(args, pq.Array(f.MailingTypes))
		argIdx++
	}

	orderBy := "sl.open_rate"
	if f.OrderBy == "projected_volume" {
		orderBy = "sl.projected_volume"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + subjectLineColumns + ` FROM subject_lines sl`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s DESC NULLS LAST LIMIT $%d", orderBy, argIdx)
	args = append(args, limit)

	return r.querySubjectLines(ctx, query, args...)
}

// GetByID retrieves a subject line by ID.
func (r *SubjectLineRepository) GetByID(ctx context.Context, id int64) (*SubjectLine, error) {
	query := `SELECT ` + subjectLineColumns + ` FROM subject_lines sl WHERE sl.id = $1`
	var s SubjectLine
	err := scanSubjectLine(r.db.QueryRowContext(ctx, query, id).Scan, &s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Insert stores a new subject line and returns its assigned ID.
func (r *SubjectLineRepository) Insert(ctx context.Context, s *SubjectLine) error {
	query := `
		INSERT INTO subject_lines (
			subject_line, company, sub_industry, open_rate, projected_volume,
			date_sent, mailing_type, inbox_rate, spam_rate, read_rate,
			read_delete_rate, delete_without_read_rate
		)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::date, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		s.SubjectLine, s.Company, s.SubIndustry, s.OpenRate, s.ProjectedVolume,
		s.DateSent, s.MailingType, s.InboxRate, s.SpamRate, s.ReadRate,
		s.ReadDeleteRate, s.DeleteWithoutReadRate,
	).Scan(&s.ID)
}

// ListMissingEmbeddings returns subject lines that have no stored embedding,
// for backfill.
func (r *SubjectLineRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]SubjectLine, error) {
	query := `
		SELECT ` + subjectLineColumns + `
		FROM subject_lines sl
		LEFT JOIN subject_line_embeddings e ON e.subject_line_id = sl.id
		WHERE e.id IS NULL
		ORDER BY sl.id
		LIMIT $1
	`
	return r.querySubjectLines(ctx, query, limit)
}

// UpsertEmbedding stores or replaces the embedding for a subject line.
func (r *SubjectLineRepository) UpsertEmbedding(ctx context.Context, subjectLineID int64, embedding []float32) error {
	query := `
		INSERT INTO subject_line_embeddings (subject_line_id, embedding)
		VALUES ($1, $2::vector)
		ON CONFLICT (subject_line_id) DO UPDATE SET embedding = EXCLUDED.embedding
	`
	_, err := r.db.ExecContext(ctx, query, subjectLineID, vectorLiteral(embedding))
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	return nil
}

// Count returns the number of stored subject lines.
func (r *SubjectLineRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subject_lines`).Scan(&n)
	return n, err
}

// Companies returns the distinct companies present in the warehouse.
func (r *SubjectLineRepository) Companies(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT company FROM subject_lines
		WHERE company <> '' ORDER BY company
	`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SubjectLineRepository) querySubjectLines(ctx context.Context, query string, args ...interface{}) ([]SubjectLine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subject lines: %w", err)
	}
	defer rows.Close()

	var out []SubjectLine
	for rows.Next() {
		var s SubjectLine
		if err := scanSubjectLine(rows.Scan, &s); err != nil {
			return nil, fmt.Errorf("scan subject line: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

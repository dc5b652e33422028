package db

import (
	"context"
	"fmt"

	"github.com/modfin/megatune/internal/db/vec"
)

func (q *Queries) AddExample(ctx context.Context, split string, question string, query string) (Example, error) {

	const addExample = `
INSERT INTO examples (split, question, sql)
VALUES (?, ?, ?)
ON CONFLICT (split, question) DO
	UPDATE
    SET sql = excluded.sql,
		updated_at = strftime('%s', 'now')
RETURNING id, split, question, sql, embedding_model, embedding_vector, created_at, updated_at
`

	row := q.db.QueryRowContext(ctx, addExample,
		split,
		question,
		query,
	)
	i, err := scanExample(row)
	if err != nil {
		return Example{}, fmt.Errorf("insert example: %w", err)
	}
	return i, nil
}

func (q *Queries) DirtyExample(ctx context.Context, split string, question string, query string) (bool, error) {

	const dirty = `
	SELECT count(*) = 0
	FROM examples
	WHERE split = ? AND question = ? AND sql = ?
`

	row := q.db.QueryRowContext(ctx, dirty,
		split,
		question,
		query,
	)
	var i bool
	if err := row.Scan(&i); err != nil {
		return false, err
	}
	return i, nil
}

func (q *Queries) SetEmbedding(ctx context.Context, id int, embeddingModel string, embeddingVector []float64) error {

	const setEmbedding = `
UPDATE examples
SET embedding_model = ?, embedding_vector = ?, updated_at = strftime('%s', 'now')
WHERE id = ?
`

	_, err := q.db.ExecContext(ctx, setEmbedding,
		embeddingModel,
		vec.EncodeVector(embeddingVector),
		id,
	)
	return err
}

// AllSplits matches every split in ListExamples and SimilarExamples.
const AllSplits = "%"

// ListExamples returns the examples of a split in insertion order.
func (q *Queries) ListExamples(ctx context.Context, split string) ([]Example, error) {

	const listExamples = `
SELECT id, split, question, sql, embedding_model, embedding_vector, created_at, updated_at
FROM examples
WHERE (? = '%' OR split = ?)
ORDER BY id
`

	rows, err := q.db.QueryContext(ctx, listExamples, split, split)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Example
	for rows.Next() {
		i, err := scanExample(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type SimilarExample struct {
	Example
	Distance float64
}

// SimilarExamples orders embedded examples by cosine distance to vector.
func (q *Queries) SimilarExamples(ctx context.Context, vector []float64, split string, limit int) ([]SimilarExample, error) {

	const similar = `
SELECT id, split, question, sql, embedding_model, embedding_vector, created_at, updated_at,
       vec_dist(?, embedding_vector) AS distance
FROM examples
WHERE (? = '%' OR split = ?) AND embedding_vector IS NOT NULL
ORDER BY distance
LIMIT ?
`

	rows, err := q.db.QueryContext(ctx, similar,
		vec.EncodeVector(vector),
		split,
		split,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SimilarExample
	for rows.Next() {
		var i SimilarExample
		var vecbytes []byte
		if err := rows.Scan(
			&i.ID,
			&i.Split,
			&i.Question,
			&i.SQL,
			&i.EmbeddingModel,
			&vecbytes,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.Distance,
		); err != nil {
			return nil, err
		}

		i.EmbeddingVector, err = vec.DecodeVector(vecbytes)
		if err != nil {
			return nil, fmt.Errorf("failed decoding embedding vector: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) AddEpoch(ctx context.Context, run string, epoch float64, bestMetric float64, badEpochs int, decision string) (Epoch, error) {

	const addEpoch = `
INSERT INTO epochs (run, epoch, best_metric, bad_epochs, decision)
VALUES (?, ?, ?, ?, ?)
RETURNING id, run, epoch, best_metric, bad_epochs, decision, created_at
`

	row := q.db.QueryRowContext(ctx, addEpoch,
		run,
		epoch,
		bestMetric,
		badEpochs,
		decision,
	)
	var i Epoch
	err := row.Scan(
		&i.ID,
		&i.Run,
		&i.Epoch,
		&i.BestMetric,
		&i.BadEpochs,
		&i.Decision,
		&i.CreatedAt,
	)
	if err != nil {
		return Epoch{}, fmt.Errorf("insert epoch: %w", err)
	}
	return i, nil
}

func (q *Queries) ListEpochs(ctx context.Context, run string) ([]Epoch, error) {

	const listEpochs = `
SELECT id, run, epoch, best_metric, bad_epochs, decision, created_at
FROM epochs
WHERE run = ?
ORDER BY id
`

	rows, err := q.db.QueryContext(ctx, listEpochs, run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Epoch
	for rows.Next() {
		var i Epoch
		if err := rows.Scan(
			&i.ID,
			&i.Run,
			&i.Epoch,
			&i.BestMetric,
			&i.BadEpochs,
			&i.Decision,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExample(row scanner) (Example, error) {
	var i Example
	var vecbin []byte
	err := row.Scan(
		&i.ID,
		&i.Split,
		&i.Question,
		&i.SQL,
		&i.EmbeddingModel,
		&vecbin,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return Example{}, err
	}
	i.EmbeddingVector, err = vec.DecodeVector(vecbin)
	if err != nil {
		return Example{}, fmt.Errorf("decoding embedding vector: %w", err)
	}
	return i, nil
}

package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type Example struct {
	ID              int
	Split           string
	Question        string
	SQL             string
	EmbeddingModel  string
	EmbeddingVector []float64
	CreatedAt       int64
	UpdatedAt       int64
}

type Epoch struct {
	ID         int
	Run        string
	Epoch      float64
	BestMetric float64
	BadEpochs  int
	Decision   string
	CreatedAt  int64
}

// Open opens the sqlite file at path and makes sure the schema exists.
func Open(ctx context.Context, path string) (*sql.DB, *Queries, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, err
	}
	if _, err = conn.ExecContext(ctx, Schema); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, New(conn), nil
}

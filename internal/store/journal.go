// Package store provides decision persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"signal-router/internal/models"
)

// Journal records every Decision the router produces. It is an audit
// surface only: routing never reads it back, and journal failures never
// affect a Decision.
type Journal struct {
	db *sql.DB
}

// NewJournal opens (or creates) the journal database at dbPath.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		status TEXT NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT,
		product TEXT,
		quantity INTEGER,
		order_id TEXT,
		result TEXT,
		reason TEXT,
		contract TEXT,
		decided_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_decisions_symbol ON decisions(symbol);
	CREATE INDEX IF NOT EXISTS idx_decisions_decided_at ON decisions(decided_at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Append records one decision.
func (j *Journal) Append(ctx context.Context, d *models.Decision) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO decisions (status, symbol, side, product, quantity, order_id, result, reason, contract, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(d.Status), d.Symbol, string(d.Side), string(d.Product),
		d.Quantity, d.OrderID, d.Result, d.Reason, d.Contract, d.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append decision: %w", err)
	}
	return nil
}

// Recent returns the latest decisions, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]models.Decision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT status, symbol, side, product, quantity, order_id, result, reason, contract, decided_at
		FROM decisions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var out []models.Decision
	for rows.Next() {
		var d models.Decision
		var status, side, product string
		var decidedAt time.Time
		if err := rows.Scan(&status, &d.Symbol, &side, &product, &d.Quantity,
			&d.OrderID, &d.Result, &d.Reason, &d.Contract, &decidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.Status = models.DecisionStatus(status)
		d.Side = models.OrderSide(side)
		d.Product = models.ProductKind(product)
		d.DecidedAt = decidedAt
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

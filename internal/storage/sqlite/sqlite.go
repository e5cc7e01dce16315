// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/godutch/internal/models"
	"github.com/mmynk/godutch/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps the foreign_keys pragma in effect and
	// serialises writers.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession persists a new session with its receipt, participants and assignments.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session ID is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	receipt := receiptColumns(session.Receipt)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, step, loading, error, has_receipt, total_price, currency, currency_symbol, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, string(session.Step), session.Loading, session.Error,
		receipt.present, receipt.totalPrice, receipt.currency, receipt.symbol,
		session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if err := insertChildren(ctx, tx, session); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateSession replaces the stored state of an existing session.
func (s *SQLiteStore) UpdateSession(ctx context.Context, session *models.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	receipt := receiptColumns(session.Receipt)
	result, err := tx.ExecContext(ctx,
		`UPDATE sessions
		 SET step = ?, loading = ?, error = ?, has_receipt = ?, total_price = ?, currency = ?, currency_symbol = ?, updated_at = ?
		 WHERE id = ?`,
		string(session.Step), session.Loading, session.Error,
		receipt.present, receipt.totalPrice, receipt.currency, receipt.symbol,
		session.UpdatedAt, session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, session.ID)
	}

	if err := deleteChildren(ctx, tx, session.ID); err != nil {
		return err
	}
	if err := insertChildren(ctx, tx, session); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteSession removes a session and all of its rows.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteChildren(ctx, tx, sessionID); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, sessionID)
	}

	return tx.Commit()
}

// GetSession retrieves a session by ID, including its receipt, participants and assignments.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	session := &models.Session{}
	var (
		step       string
		hasReceipt bool
		receipt    models.ReceiptAnalysisResult
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, step, loading, error, has_receipt, total_price, currency, currency_symbol, created_at, updated_at
		 FROM sessions WHERE id = ?`,
		sessionID,
	).Scan(&session.ID, &step, &session.Loading, &session.Error,
		&hasReceipt, &receipt.TotalPrice, &receipt.Currency, &receipt.CurrencySymbol,
		&session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	session.Step = models.Step(step)

	if hasReceipt {
		if receipt.Items, err = getItems(ctx, tx, sessionID); err != nil {
			return nil, err
		}
		if receipt.AdditionalCosts, err = getAdditionalCosts(ctx, tx, sessionID); err != nil {
			return nil, err
		}
		session.Receipt = &receipt
	}

	if session.Participants, err = getParticipants(ctx, tx, sessionID); err != nil {
		return nil, err
	}
	if session.Assignments, err = getAssignments(ctx, tx, sessionID); err != nil {
		return nil, err
	}

	return session, nil
}

type receiptRow struct {
	present    bool
	totalPrice float64
	currency   string
	symbol     string
}

func receiptColumns(r *models.ReceiptAnalysisResult) receiptRow {
	if r == nil {
		return receiptRow{}
	}
	return receiptRow{
		present:    true,
		totalPrice: r.TotalPrice,
		currency:   r.Currency,
		symbol:     r.CurrencySymbol,
	}
}

func insertChildren(ctx context.Context, tx *sql.Tx, session *models.Session) error {
	if r := session.Receipt; r != nil {
		for i, item := range r.Items {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO receipt_items (session_id, position, name, quantity, price) VALUES (?, ?, ?, ?, ?)",
				session.ID, i, item.Name, item.Quantity, item.Price,
			)
			if err != nil {
				return fmt.Errorf("failed to insert receipt item: %w", err)
			}
		}
		for j, cost := range r.AdditionalCosts {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO additional_costs (session_id, position, name, amount, additional_cost) VALUES (?, ?, ?, ?, ?)",
				session.ID, j, cost.Name, cost.Amount, cost.AdditionalCost,
			)
			if err != nil {
				return fmt.Errorf("failed to insert additional cost: %w", err)
			}
		}
	}

	for i, p := range session.Participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO participants (session_id, position, id, name) VALUES (?, ?, ?, ?)",
			session.ID, i, p.ID, p.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	// Insert assignments and their members
	for i, a := range session.Assignments {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO assignments (session_id, position, charge_id) VALUES (?, ?, ?)",
			session.ID, i, a.ChargeID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
		for j, participantID := range a.AssignedTo {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO assignment_members (session_id, charge_id, position, participant_id) VALUES (?, ?, ?, ?)",
				session.ID, a.ChargeID, j, participantID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert assignment member: %w", err)
			}
		}
	}

	return nil
}

func deleteChildren(ctx context.Context, tx *sql.Tx, sessionID string) error {
	for _, table := range []string{"assignment_members", "assignments", "participants", "additional_costs", "receipt_items"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE session_id = ?", sessionID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func getItems(ctx context.Context, tx *sql.Tx, sessionID string) ([]models.ReceiptItem, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT name, quantity, price FROM receipt_items WHERE session_id = ? ORDER BY position",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt items: %w", err)
	}
	defer rows.Close()

	items := []models.ReceiptItem{}
	for rows.Next() {
		var item models.ReceiptItem
		if err := rows.Scan(&item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan receipt item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipt items: %w", err)
	}
	return items, nil
}

func getAdditionalCosts(ctx context.Context, tx *sql.Tx, sessionID string) ([]models.AdditionalCost, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT name, amount, additional_cost FROM additional_costs WHERE session_id = ? ORDER BY position",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get additional costs: %w", err)
	}
	defer rows.Close()

	var costs []models.AdditionalCost
	for rows.Next() {
		var cost models.AdditionalCost
		if err := rows.Scan(&cost.Name, &cost.Amount, &cost.AdditionalCost); err != nil {
			return nil, fmt.Errorf("failed to scan additional cost: %w", err)
		}
		costs = append(costs, cost)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate additional costs: %w", err)
	}
	return costs, nil
}

func getParticipants(ctx context.Context, tx *sql.Tx, sessionID string) ([]models.Participant, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, name FROM participants WHERE session_id = ? ORDER BY position",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

func getAssignments(ctx context.Context, tx *sql.Tx, sessionID string) ([]models.Assignment, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT charge_id FROM assignments WHERE session_id = ? ORDER BY position",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}

	assignments := []models.Assignment{}
	for rows.Next() {
		a := models.Assignment{AssignedTo: []string{}}
		if err := rows.Scan(&a.ChargeID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}

	// Get members for each assignment
	for i := range assignments {
		memberRows, err := tx.QueryContext(ctx,
			"SELECT participant_id FROM assignment_members WHERE session_id = ? AND charge_id = ? ORDER BY position",
			sessionID, assignments[i].ChargeID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get assignment members: %w", err)
		}

		for memberRows.Next() {
			var participantID string
			if err := memberRows.Scan(&participantID); err != nil {
				memberRows.Close()
				return nil, fmt.Errorf("failed to scan assignment member: %w", err)
			}
			assignments[i].AssignedTo = append(assignments[i].AssignedTo, participantID)
		}
		memberRows.Close()
		if err := memberRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate assignment members: %w", err)
		}
	}

	return assignments, nil
}

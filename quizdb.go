package quizsystem

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "github.com/mattn/go-sqlite3"    // driver: sqlite3
)

// Driver selects the database backend
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// DB stores question banks and quiz results
type DB struct {
	db     *sql.DB
	driver Driver
}

// BankSummary is a bank without its questions
type BankSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// OpenDB opens a database connection and verifies it
func OpenDB(ctx context.Context, driver Driver, dsn string) (*DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite, "sqlite3":
		driver = DriverSQLite
		drvName = "sqlite3"
		if dsn == "" {
			dsn = "./quiz.db"
		}
	case DriverPostgres, "pgx":
		driver = DriverPostgres
		drvName = "pgx"
		if dsn == "" {
			dsn = "postgres://localhost:5432/quizsystem?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	tunePool(driver, db)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	return &DB{db: db, driver: driver}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db == nil || db.db == nil {
		return nil
	}
	return db.db.Close()
}

// Driver reports the backend in use
func (db *DB) Driver() Driver {
	return db.driver
}

func tunePool(driver Driver, db *sql.DB) {
	if driver == DriverSQLite {
		// single writer; one connection also keeps :memory: databases shared
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(45 * time.Minute)
	db.SetConnMaxIdleTime(15 * time.Minute)
}

// rebind rewrites ? placeholders to $1, $2... for postgres
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS banks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			bank_id TEXT NOT NULL REFERENCES banks(id) ON DELETE CASCADE,
			question_num INTEGER NOT NULL,
			type TEXT NOT NULL,
			text TEXT NOT NULL,
			options TEXT NOT NULL,
			answer TEXT NOT NULL,
			explanation TEXT NOT NULL DEFAULT '',
			difficulty TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_bank ON questions(bank_id, question_num)`,
		`CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			bank_id TEXT NOT NULL,
			bank_name TEXT NOT NULL,
			mode TEXT NOT NULL,
			score DOUBLE PRECISION NOT NULL DEFAULT 0,
			started_at BIGINT NOT NULL,
			ended_at BIGINT NOT NULL,
			quiz_json TEXT NOT NULL,
			evaluation_json TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, query := range queries {
		if _, err := db.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// withTx runs fn in a transaction, committing when it returns nil
func (db *DB) withTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("failed to commit: %w", cerr)
		}
	}()
	return fn(tx)
}

// CreateBank stores a bank and its questions
func (db *DB) CreateBank(ctx context.Context, bank *QuestionBank) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			db.rebind("INSERT INTO banks (id, name, description, created_at) VALUES (?, ?, ?, ?)"),
			bank.ID, bank.Name, bank.Description, bank.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to create bank: %w", err)
		}

		insert := db.rebind("INSERT INTO questions (id, bank_id, question_num, type, text, options, answer, explanation, difficulty) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
		for i, q := range bank.Questions {
			optionsJSON, err := OptionsToJSON(q.Options)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, insert,
				q.ID, bank.ID, i+1, string(q.Type), q.Question, optionsJSON, q.Answer, q.Explanation, q.Difficulty,
			)
			if err != nil {
				return fmt.Errorf("failed to create question %s: %w", q.ID, err)
			}
		}
		return nil
	})
}

// GetBank retrieves a bank with its questions in order
func (db *DB) GetBank(ctx context.Context, id string) (*QuestionBank, error) {
	var (
		bank    QuestionBank
		created int64
	)
	err := db.db.QueryRowContext(ctx,
		db.rebind("SELECT id, name, description, created_at FROM banks WHERE id = ?"),
		id,
	).Scan(&bank.ID, &bank.Name, &bank.Description, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bank %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bank: %w", err)
	}
	bank.CreatedAt = time.UnixMilli(created)

	rows, err := db.db.QueryContext(ctx,
		db.rebind("SELECT id, type, text, options, answer, explanation, difficulty FROM questions WHERE bank_id = ? ORDER BY question_num"),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	bank.Questions = []Question{}
	for rows.Next() {
		var (
			q           Question
			qtype       string
			optionsJSON string
		)
		if err := rows.Scan(&q.ID, &qtype, &q.Question, &optionsJSON, &q.Answer, &q.Explanation, &q.Difficulty); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.Type = QuestionType(qtype)
		if q.Options, err = JSONToOptions(optionsJSON); err != nil {
			return nil, err
		}
		bank.Questions = append(bank.Questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return &bank, nil
}

// ListBanks returns every bank, newest first
func (db *DB) ListBanks(ctx context.Context) ([]BankSummary, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT b.id, b.name, b.description, b.created_at, COUNT(q.id)
		FROM banks b LEFT JOIN questions q ON q.bank_id = b.id
		GROUP BY b.id, b.name, b.description, b.created_at
		ORDER BY b.created_at DESC, b.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list banks: %w", err)
	}
	defer rows.Close()

	banks := []BankSummary{}
	for rows.Next() {
		var (
			b       BankSummary
			created int64
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &created, &b.QuestionCount); err != nil {
			return nil, fmt.Errorf("failed to scan bank: %w", err)
		}
		b.CreatedAt = time.UnixMilli(created)
		banks = append(banks, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating banks: %w", err)
	}
	return banks, nil
}

// DeleteBank removes a bank and its questions
func (db *DB) DeleteBank(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, db.rebind("DELETE FROM questions WHERE bank_id = ?"), id); err != nil {
			return fmt.Errorf("failed to delete questions: %w", err)
		}
		res, err := tx.ExecContext(ctx, db.rebind("DELETE FROM banks WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("failed to delete bank: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("bank %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// SaveResult stores a finished quiz
func (db *DB) SaveResult(ctx context.Context, result *QuizResult) error {
	quizJSON, err := json.Marshal(result.Quiz)
	if err != nil {
		return fmt.Errorf("failed to marshal quiz: %w", err)
	}
	evalJSON := ""
	if result.Evaluation != nil {
		data, err := json.Marshal(result.Evaluation)
		if err != nil {
			return fmt.Errorf("failed to marshal evaluation: %w", err)
		}
		evalJSON = string(data)
	}

	_, err = db.db.ExecContext(ctx,
		db.rebind("INSERT INTO results (id, bank_id, bank_name, mode, score, started_at, ended_at, quiz_json, evaluation_json) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		result.ID, result.BankID, result.BankName, string(result.Mode), result.Score,
		result.StartTime.UnixMilli(), result.EndTime.UnixMilli(), string(quizJSON), evalJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// ListResults returns finished quizzes newest first, optionally limited
func (db *DB) ListResults(ctx context.Context, limit int) ([]QuizResult, error) {
	query := "SELECT score, ended_at, quiz_json, evaluation_json FROM results ORDER BY ended_at DESC, id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	results := []QuizResult{}
	for rows.Next() {
		var (
			r        QuizResult
			ended    int64
			quizJSON string
			evalJSON string
		)
		if err := rows.Scan(&r.Score, &ended, &quizJSON, &evalJSON); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(quizJSON), &r.Quiz); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quiz: %w", err)
		}
		if evalJSON != "" {
			r.Evaluation = &Evaluation{}
			if err := json.Unmarshal([]byte(evalJSON), r.Evaluation); err != nil {
				return nil, fmt.Errorf("failed to unmarshal evaluation: %w", err)
			}
		}
		r.EndTime = time.UnixMilli(ended)
		results = append(results, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}
	return results, nil
}

// OptionsToJSON converts an options slice to a JSON array string
func OptionsToJSON(options []string) (string, error) {
	if options == nil {
		options = []string{}
	}
	data, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("failed to marshal options: %w", err)
	}
	return string(data), nil
}

// JSONToOptions converts a JSON array string back to an options slice.
// An empty array yields nil.
func JSONToOptions(optionsJSON string) ([]string, error) {
	var options []string
	if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	if len(options) == 0 {
		return nil, nil
	}
	return options, nil
}

package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	e "nuclight.org/redirect-tg-bot/pkg/entities"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, filePath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite3 database: %w", err)
	}

	client := &SQLite{
		db: db,
	}

	err = client.init(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing sqlite3 database: %w", err)
	}

	return client, nil
}

func (c *SQLite) Close() error {
	return c.db.Close()
}

// GetUser returns the user record or nil when the sender never registered.
func (c *SQLite) GetUser(ctx context.Context, id string) (*e.UserRecord, error) {
	var user e.UserRecord
	err := c.db.QueryRowContext(
		ctx,
		"SELECT id, premium, quota, created_at FROM users WHERE id = ?",
		id,
	).Scan(&user.ID, &user.Premium, &user.Quota, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &user, nil
}

func (c *SQLite) SaveUser(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(
		ctx,
		`INSERT INTO users (id, premium, quota, created_at)
			VALUES (?, 0, 0, CURRENT_TIMESTAMP)
			ON CONFLICT(id) DO NOTHING`,
		id,
	)
	return err
}

func (c *SQLite) GetRedirections(ctx context.Context, sender string) ([]e.Redirection, error) {
	rows, err := c.db.QueryContext(
		ctx,
		`SELECT id, sender, source, destination, source_title, destination_title, created_at
			FROM redirections WHERE sender = ? ORDER BY id`,
		sender,
	)
	if err != nil {
		return nil, fmt.Errorf("querying redirections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reds []e.Redirection
	for rows.Next() {
		var red e.Redirection
		err = rows.Scan(
			&red.ID,
			&red.Sender,
			&red.Source,
			&red.Destination,
			&red.SourceTitle,
			&red.DestinationTitle,
			&red.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning redirection: %w", err)
		}

		reds = append(reds, red)
	}

	return reds, rows.Err()
}

func (c *SQLite) SaveRedirection(ctx context.Context, sender, srcChatID, dstChatID, srcTitle, dstTitle string) (int64, error) {
	result, err := c.db.ExecContext(
		ctx,
		`INSERT INTO redirections (
			sender, source, destination, source_title, destination_title, created_at
		) VALUES (
			?, ?, ?, ?, ?, CURRENT_TIMESTAMP
		)`,
		sender, srcChatID, dstChatID, srcTitle, dstTitle,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting redirection: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return id, nil
}

// ChangeUserQuota increments the sender's quota counter by one.
func (c *SQLite) ChangeUserQuota(ctx context.Context, sender string) error {
	_, err := c.db.ExecContext(
		ctx,
		"UPDATE users SET quota = quota + 1 WHERE id = ?",
		sender,
	)
	return err
}

// CountRedirections returns the actual per-sender link counts, used by the
// audit command to compare against the quota counters.
func (c *SQLite) CountRedirections(ctx context.Context) (map[string]int, error) {
	rows, err := c.db.QueryContext(
		ctx,
		"SELECT sender, COUNT(*) FROM redirections GROUP BY sender",
	)
	if err != nil {
		return nil, fmt.Errorf("counting redirections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var sender string
		var count int
		if err = rows.Scan(&sender, &count); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}

		counts[sender] = count
	}

	return counts, rows.Err()
}

// ListUsers returns all registered users, used by the audit command.
func (c *SQLite) ListUsers(ctx context.Context) ([]e.UserRecord, error) {
	rows, err := c.db.QueryContext(
		ctx,
		"SELECT id, premium, quota, created_at FROM users ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []e.UserRecord
	for rows.Next() {
		var user e.UserRecord
		err = rows.Scan(&user.ID, &user.Premium, &user.Quota, &user.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}

		users = append(users, user)
	}

	return users, rows.Err()
}

//go:embed init.sql
var initQuery string

func (c *SQLite) init(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, initQuery)
	return err
}

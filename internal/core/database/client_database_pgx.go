package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/devmarkh/converso/internal/apperr"
	"github.com/devmarkh/converso/internal/config"
	"github.com/devmarkh/converso/internal/core"
	"github.com/devmarkh/converso/internal/models"
)

const pgUniqueViolation = "23505"

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// NewDatabaseClientFromDB wraps an already-open handle. Used by tests.
func NewDatabaseClientFromDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	if user.Role == "" {
		user.Role = models.RoleRegular
	}
	const q = `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := c.db.QueryRowContext(ctx, q, user.Email, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, apperr.ErrConflict)
	}
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, email, password_hash, role, created_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) ListUsers(ctx context.Context) ([]models.User, error) {
	const q = `
		SELECT id, email, password_hash, role, created_at
		FROM users ORDER BY id
	`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Chats

func (c *DatabaseClient) CreateChat(ctx context.Context, userID int64) (*models.Chat, error) {
	const q = `
		INSERT INTO chats (user_id)
		VALUES ($1)
		RETURNING id, created_at
	`
	ch := models.Chat{UserID: userID}
	if err := c.db.QueryRowContext(ctx, q, userID).Scan(&ch.ID, &ch.CreatedAt); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *DatabaseClient) GetChatForUser(ctx context.Context, chatID, userID int64) (*models.Chat, error) {
	const q = `
		SELECT id, user_id, created_at
		FROM chats WHERE id = $1 AND user_id = $2
	`
	var ch models.Chat
	err := c.db.QueryRowContext(ctx, q, chatID, userID).Scan(&ch.ID, &ch.UserID, &ch.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chat %d: %w", chatID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *DatabaseClient) ListChatsByUser(ctx context.Context, userID int64) ([]models.Chat, error) {
	const q = `
		SELECT id, user_id, created_at
		FROM chats
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Chat
	for rows.Next() {
		var ch models.Chat
		if err := rows.Scan(&ch.ID, &ch.UserID, &ch.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// Messages

// CreateMessage verifies chat ownership and inserts the exchange in one
// transaction, so a rejected ownership check can never leave a half-written
// row behind.
func (c *DatabaseClient) CreateMessage(ctx context.Context, chatID, userID int64, content, response string) (*models.Message, error) {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var owner int64
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM chats WHERE id = $1 AND user_id = $2`, chatID, userID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chat %d: %w", chatID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	msg := models.Message{ChatID: chatID, Content: content, Response: response}
	const q = `
		INSERT INTO messages (chat_id, content, response)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, q, chatID, content, response).Scan(&msg.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *DatabaseClient) ListMessagesByChat(ctx context.Context, chatID int64) ([]models.Message, error) {
	const q = `
		SELECT id, chat_id, content, response
		FROM messages
		WHERE chat_id = $1
		ORDER BY id
	`
	rows, err := c.db.QueryContext(ctx, q, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Content, &m.Response); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) DeleteMessage(ctx context.Context, messageID int64) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, messageID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("message %d: %w", messageID, apperr.ErrNotFound)
	}
	return nil
}

package core

import (
	"context"
	"io"

	"github.com/devmarkh/converso/internal/models"
)

// DbClient defines all persistence operations the handlers need. It
// abstracts Postgres so higher layers never depend on a specific DB.
//
// Every chat and message accessor that serves a regular user filters by the
// owning foreign key; the unscoped variants exist only for the admin
// surface.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	CreateChat(ctx context.Context, userID int64) (*models.Chat, error)
	GetChatForUser(ctx context.Context, chatID, userID int64) (*models.Chat, error)
	ListChatsByUser(ctx context.Context, userID int64) ([]models.Chat, error)

	CreateMessage(ctx context.Context, chatID, userID int64, content, response string) (*models.Message, error)
	ListMessagesByChat(ctx context.Context, chatID int64) ([]models.Message, error)
	DeleteMessage(ctx context.Context, messageID int64) error

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, key string) error
	GetObjectReader(ctx context.Context, key string) (io.ReadCloser, error)
}

// LLMProvider generates a text reply for a user message. The provider is an
// opaque request/response service; its output lands verbatim in a Message.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Close() error
}

// ImageGenerator turns a prompt into a URL of a generated image.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Captioner describes an uploaded image in one sentence.
type Captioner interface {
	Caption(ctx context.Context, image []byte) (string, error)
}

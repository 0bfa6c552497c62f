package handlers

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/devmarkh/converso/internal/apperr"
	"github.com/devmarkh/converso/internal/models"
)

// fakeStore is an in-memory DbClient with the same rejection semantics as
// the Postgres client: Conflict on duplicate email, NotFound on missing or
// unowned rows.
type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	chats    map[int64]*models.Chat
	messages map[int64]*models.Message
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[int64]*models.User{},
		chats:    map[int64]*models.Chat{},
		messages: map[int64]*models.Message{},
	}
}

func (s *fakeStore) next() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, apperr.ErrConflict)
		}
	}
	user.ID = s.next()
	user.CreatedAt = time.Now()
	if user.Role == "" {
		user.Role = models.RoleRegular
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, apperr.ErrNotFound)
}

func (s *fakeStore) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) CreateChat(_ context.Context, userID int64) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := &models.Chat{ID: s.next(), UserID: userID, CreatedAt: time.Now()}
	s.chats[ch.ID] = ch
	cp := *ch
	return &cp, nil
}

func (s *fakeStore) GetChatForUser(_ context.Context, chatID, userID int64) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.chats[chatID]
	if !ok || ch.UserID != userID {
		return nil, fmt.Errorf("chat %d: %w", chatID, apperr.ErrNotFound)
	}
	cp := *ch
	return &cp, nil
}

func (s *fakeStore) ListChatsByUser(_ context.Context, userID int64) ([]models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Chat
	for _, ch := range s.chats {
		if ch.UserID == userID {
			out = append(out, *ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) CreateMessage(_ context.Context, chatID, userID int64, content, response string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.chats[chatID]
	if !ok || ch.UserID != userID {
		return nil, fmt.Errorf("chat %d: %w", chatID, apperr.ErrNotFound)
	}
	m := &models.Message{ID: s.next(), ChatID: chatID, Content: content, Response: response}
	s.messages[m.ID] = m
	cp := *m
	return &cp, nil
}

func (s *fakeStore) ListMessagesByChat(_ context.Context, chatID int64) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.ChatID == chatID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) DeleteMessage(_ context.Context, messageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[messageID]; !ok {
		return fmt.Errorf("message %d: %w", messageID, apperr.ErrNotFound)
	}
	delete(s.messages, messageID)
	return nil
}

func (s *fakeStore) Close() error { return nil }

// fakeLLM echoes the prompt or fails on demand.
type fakeLLM struct {
	err error
}

func (f *fakeLLM) Generate(_ context.Context, _, userPrompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "echo: " + userPrompt, nil
}

func (f *fakeLLM) Close() error { return nil }

// fakeGenerator stands in for the image service.
type fakeGenerator struct {
	url string
	err error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	return f.url, f.err
}

// fakeObjects records uploads in memory.
type fakeObjects struct {
	mu      sync.Mutex
	uploads map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{uploads: map[string][]byte{}}
}

func (f *fakeObjects) UploadFile(_ context.Context, key string, data io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[key] = b
	return "https://bucket.example.com/" + key, nil
}

func (f *fakeObjects) DeleteFile(_ context.Context, _ string) error { return nil }

func (f *fakeObjects) GetObjectReader(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("not implemented")
}

// fakeCaptioner returns a fixed caption.
type fakeCaptioner struct {
	caption string
	err     error
}

func (f *fakeCaptioner) Caption(_ context.Context, _ []byte) (string, error) {
	return f.caption, f.err
}

// fakeFederator returns a fixed email from Exchange.
type fakeFederator struct {
	email string
	err   error
}

func (f *fakeFederator) AuthURL(state string) string {
	return "https://provider.example.com/auth?state=" + state
}

func (f *fakeFederator) Exchange(_ context.Context, _ string) (string, error) {
	return f.email, f.err
}

package handlers

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/devmarkh/converso/internal/apperr"
	"github.com/devmarkh/converso/internal/api/middlewares"
	"github.com/devmarkh/converso/internal/core"
	"github.com/devmarkh/converso/internal/models"
)

type ChatHandler struct {
	dbclient core.DbClient
	llm      core.LLMProvider
}

func NewChatHandler(dbclient core.DbClient, llm core.LLMProvider) *ChatHandler {
	return &ChatHandler{dbclient: dbclient, llm: llm}
}

type chatSummary struct {
	ID     int64 `json:"id"`
	Number int   `json:"number"`
}

// ListChats returns the caller's chats with per-user sequence numbers
// (1, 2, 3, ...) in creation order. The numbers are presentation only and
// recomputed on every read.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	chats, err := h.dbclient.ListChatsByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	summaries := make([]chatSummary, 0, len(chats))
	for i, ch := range chats {
		summaries = append(summaries, chatSummary{ID: ch.ID, Number: i + 1})
	}
	writeJSON(w, http.StatusOK, map[string][]chatSummary{"chats": summaries})
}

func (h *ChatHandler) NewChat(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	chat, err := h.dbclient.CreateChat(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chat_id": chat.ID,
		"message": "New chat created",
	})
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, chatID, ok := h.ownChat(w, r)
	if !ok {
		return
	}
	_ = user

	messages, err := h.dbclient.ListMessagesByChat(r.Context(), chatID)
	if err != nil {
		writeError(w, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

type sendRequest struct {
	Content string `json:"content"`
}

// SendMessage forwards the user's text to the model and persists the
// exchange. An upstream failure leaves nothing behind.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, chatID, ok := h.ownChat(w, r)
	if !ok {
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	response, err := h.llm.Generate(r.Context(), "", req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.dbclient.CreateMessage(r.Context(), chatID, user.ID, req.Content, response)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

var suggestionPool = []string{
	"Can you explain more?",
	"Give me an example.",
	"Translate this to Arabic.",
	"Summarize in 3 points.",
	"Continue the last answer.",
	"Show as a table.",
	"Make it more detailed.",
	"What's the opposite?",
	"Give me pros and cons.",
	"Draw it as a diagram.",
}

// Suggestions returns three random follow-up prompts for the chat.
func (h *ChatHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	_, _, ok := h.ownChat(w, r)
	if !ok {
		return
	}

	picks := rand.Perm(len(suggestionPool))[:3]
	out := make([]string, 0, 3)
	for _, i := range picks {
		out = append(out, suggestionPool[i])
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": out})
}

// ownChat resolves the chatID route param and confirms the caller owns the
// chat. On failure it has already written the response.
func (h *ChatHandler) ownChat(w http.ResponseWriter, r *http.Request) (*models.User, int64, bool) {
	user, ok := middlewares.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthorized)
		return nil, 0, false
	}

	chatID, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid chat id", http.StatusBadRequest)
		return nil, 0, false
	}

	if _, err := h.dbclient.GetChatForUser(r.Context(), chatID, user.ID); err != nil {
		writeError(w, err)
		return nil, 0, false
	}
	return user, chatID, true
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/devmarkh/converso/internal/core"
	"github.com/devmarkh/converso/internal/models"
)

// AdminHandler serves the moderation surface. Every route is mounted behind
// the session gate plus RequireAdmin, so by the time a request lands here
// the caller is a verified administrator.
type AdminHandler struct {
	dbclient core.DbClient
}

func NewAdminHandler(dbclient core.DbClient) *AdminHandler {
	return &AdminHandler{dbclient: dbclient}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.dbclient.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// ListUserChats returns any user's chats, unscoped by ownership.
func (h *AdminHandler) ListUserChats(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	chats, err := h.dbclient.ListChatsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	writeJSON(w, http.StatusOK, chats)
}

// ListChatMessages returns any chat's messages, unscoped by ownership.
func (h *AdminHandler) ListChatMessages(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid chat id", http.StatusBadRequest)
		return
	}

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

func (h *AdminHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, err := strconv.ParseInt(chi.URLParam(r, "messageID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	if err := h.dbclient.DeleteMessage(r.Context(), messageID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Message deleted"})
}

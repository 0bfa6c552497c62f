package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/devmarkh/converso/internal/apperr"
	"github.com/devmarkh/converso/internal/api/middlewares"
	"github.com/devmarkh/converso/internal/core"
	"github.com/devmarkh/converso/internal/models"
)

const maxImageBytes = 10 << 20 // 10 MB

type ImageHandler struct {
	dbclient  core.DbClient
	objects   core.ObjectClient
	generator core.ImageGenerator
	captioner core.Captioner
}

func NewImageHandler(dbclient core.DbClient, objects core.ObjectClient, gen core.ImageGenerator, cap core.Captioner) *ImageHandler {
	return &ImageHandler{dbclient: dbclient, objects: objects, generator: gen, captioner: cap}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateImage submits the prompt to the image service and persists
// (prompt, image URL) as a message once the image is ready.
func (h *ImageHandler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	user, chatID, ok := h.ownChat(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	imageURL, err := h.generator.Generate(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.dbclient.CreateMessage(r.Context(), chatID, user.ID, req.Prompt, imageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// UploadImage stores the posted image in object storage and captions it,
// then persists (image markup, caption) as a message. Upload and captioning
// run concurrently; either failure aborts before anything is written to the
// chat.
func (h *ImageHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user, chatID, ok := h.ownChat(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		http.Error(w, "read image", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("%d/%d/%s.png", user.ID, chatID, uuid.NewString())

	var (
		storageURL string
		caption    string
	)
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		storageURL, err = h.objects.UploadFile(gctx, key, bytes.NewReader(data), contentType)
		return err
	})
	g.Go(func() error {
		var err error
		caption, err = h.captioner.Caption(gctx, data)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, fmt.Errorf("%v: %w", err, apperr.ErrUpstream))
		return
	}

	content := fmt.Sprintf(`<img src="%s" alt="uploaded" class="rounded-lg max-w-full" />`, storageURL)
	msg, err := h.dbclient.CreateMessage(r.Context(), chatID, user.ID, content, caption)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *ImageHandler) ownChat(w http.ResponseWriter, r *http.Request) (user *models.User, chatID int64, ok bool) {
	u, found := middlewares.CurrentUser(r.Context())
	if !found {
		writeError(w, apperr.ErrUnauthorized)
		return nil, 0, false
	}

	chatID, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid chat id", http.StatusBadRequest)
		return nil, 0, false
	}

	if _, err := h.dbclient.GetChatForUser(r.Context(), chatID, u.ID); err != nil {
		writeError(w, err)
		return nil, 0, false
	}
	return u, chatID, true
}

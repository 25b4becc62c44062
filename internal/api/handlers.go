package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"secure.paste/internal/envelope"
)

// Sharer is the protocol the handlers drive. *envelope.Protocol implements it.
type Sharer interface {
	Share(ctx context.Context, content []byte) (string, error)
	Retrieve(ctx context.Context, token string) ([]byte, error)
}

type Handler struct {
	sharer Sharer
	log    logrus.FieldLogger
}

func NewHandler(s Sharer, log logrus.FieldLogger) *Handler {
	return &Handler{
		sharer: s,
		log:    log,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateShare takes the raw request body as the content and answers with
// the token as plain text.
func (h *Handler) CreateShare(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, envelope.MaxContentSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.text(w, http.StatusBadRequest, "content exceeds 1 MiB")
			return
		}
		h.text(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.sharer.Share(r.Context(), body)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.text(w, http.StatusCreated, token)
}

func (h *Handler) RetrieveShare(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	content, err := h.sharer.Retrieve(r.Context(), token)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

func (h *Handler) json(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) text(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	io.WriteString(w, message)
}

// handleError maps protocol errors to a status and a fixed message.
// Only input errors echo their text; it never holds secret material.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, envelope.ErrInput):
		h.text(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, envelope.ErrInvalidToken):
		h.text(w, http.StatusBadRequest, "invalid token")
	case errors.Is(err, envelope.ErrNotFound):
		h.text(w, http.StatusNotFound, "share not found")
	case errors.Is(err, envelope.ErrStorage):
		h.text(w, http.StatusInternalServerError, "storage error")
	case errors.Is(err, envelope.ErrDecryption):
		h.log.WithField("request_id", GetRequestID(r.Context())).Warn("stored share is corrupt")
		h.text(w, http.StatusInternalServerError, "internal error")
	default:
		h.log.WithError(err).WithField("request_id", GetRequestID(r.Context())).Error("request failed")
		h.text(w, http.StatusInternalServerError, "internal error")
	}
}

package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/facilform-dev/facilform/internal/errors"
	"github.com/facilform-dev/facilform/internal/logger"
	"github.com/facilform-dev/facilform/internal/session"
)

// sessionForm resolves the single active form instance for the request's
// session. The session middleware guarantees a session id is present.
func (h *Handler) sessionForm(r *http.Request) *session.Form {
	sid, ok := session.FromContext(r.Context())
	if !ok {
		// Middleware misconfiguration; fall back to a shared instance
		// rather than crash.
		logger.Log.Error("request reached form handler without session id")
		sid = "anonymous"
	}
	return h.Registry.Get(sid)
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := h.Templates[name]
	if !ok {
		logger.Log.Error("template not found", "name", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.Execute(w, data); err != nil {
		logger.Log.Error("template render failed", "name", name, "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func decodeJSON(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		return &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: http.StatusBadRequest}
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	if e, ok := err.(*errors.ErrorWithStatusCode); ok {
		http.Error(w, err.Error(), e.StatusCode)
		return
	}
	// default error is 500
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

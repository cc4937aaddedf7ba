package handler

import (
	"html/template"
	"net/http"

	"github.com/facilform-dev/facilform/internal/attachments"
	"github.com/facilform-dev/facilform/internal/config"
	"github.com/facilform-dev/facilform/internal/geo"
	"github.com/facilform-dev/facilform/internal/session"
	"github.com/facilform-dev/facilform/internal/textproc"
)

const formPath = "/facilities/new"

type Handler struct {
	Templates     map[string]*template.Template
	Public        config.Public
	Registry      *session.Registry
	Probe         *geo.Probe
	Previews      *attachments.PreviewStore
	TextProcessor *textproc.TextProcessor
}

func New(
	templates map[string]*template.Template,
	publicCfg config.Public,
	registry *session.Registry,
	probe *geo.Probe,
	previews *attachments.PreviewStore,
	textProcessor *textproc.TextProcessor,
) *Handler {
	return &Handler{
		Templates:     templates,
		Public:        publicCfg,
		Registry:      registry,
		Probe:         probe,
		Previews:      previews,
		TextProcessor: textProcessor,
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

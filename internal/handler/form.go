package handler

import (
	"html/template"
	"io"
	"net/http"

	"github.com/facilform-dev/facilform/internal/attachments"
	"github.com/facilform-dev/facilform/internal/domain"
	"github.com/facilform-dev/facilform/internal/form"
	"github.com/facilform-dev/facilform/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// formPage is everything the creation form template renders.
type formPage struct {
	MapCenter      domain.Coordinates
	MapReady       bool
	Marker         domain.Coordinates
	Input          form.TextInput
	Description    template.HTML
	Gallery        []*domain.Attachment
	FieldErrors    map[string]string
	Notice         *domain.Notice
	MaxAttachments int
}

// FormGetHandler renders the creation form with the current draft state.
// Without an acquired map center the map is not rendered at all.
func (h *Handler) FormGetHandler(w http.ResponseWriter, r *http.Request) {
	f := h.sessionForm(r)

	center, ok := h.Probe.Center()
	page := formPage{
		MapCenter:      center,
		MapReady:       ok,
		Marker:         f.Selector.Location(),
		Input:          f.Input(),
		Gallery:        f.Manager.List(),
		FieldErrors:    f.Errors.Snapshot(),
		MaxAttachments: h.Public.MaxAttachments,
	}
	page.Description = h.TextProcessor.RenderDescription(page.Input.Description)
	if notice, ok := f.TakeNotice(); ok {
		page.Notice = &notice
	}

	h.render(w, "form.html", page)
}

// FormPostHandler is the submit trigger.
func (h *Handler) FormPostHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	f := h.sessionForm(r)
	input := form.TextInput{
		Name:           r.PostFormValue("name"),
		Description:    r.PostFormValue("description"),
		OpeningHours:   r.PostFormValue("opening_hours"),
		OpenOnWeekends: r.PostFormValue("open_on_weekends") == "true",
	}
	f.SetInput(input)

	outcome := f.Controller.Submit(r.Context(), input)
	if outcome == form.OutcomeSuccess {
		f.ResetInput()
	}

	if target, ok := f.TakeRedirect(); ok {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, formPath, http.StatusSeeOther)
}

// LocationPostHandler receives map click events.
func (h *Handler) LocationPostHandler(w http.ResponseWriter, r *http.Request) {
	var click struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if err := decodeJSON(r.Body, &click); err != nil {
		writeError(w, err)
		return
	}

	f := h.sessionForm(r)
	f.Selector.Select(click.Lat, click.Lng)
	w.WriteHeader(http.StatusNoContent)
}

// ImagesPostHandler receives a file pick. The picked set replaces the
// whole gallery, matching the picker contract.
func (h *Handler) ImagesPostHandler(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.Public.MaxAttachmentSizeBytes*int64(h.Public.MaxAttachments) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		http.Error(w, "Payload too large or malformed", http.StatusRequestEntityTooLarge)
		return
	}

	files, err := readPickedFiles(r)
	if err != nil {
		writeError(w, err)
		return
	}

	f := h.sessionForm(r)
	if _, err := f.Manager.AddMany(files); err != nil {
		logger.Log.Info("file pick rejected", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	http.Redirect(w, r, formPath, http.StatusSeeOther)
}

// ImageDeleteHandler removes one attachment by id.
func (h *Handler) ImageDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	f := h.sessionForm(r)
	f.Manager.Remove(id) // removing an unknown id is a no-op
	http.Redirect(w, r, formPath, http.StatusSeeOther)
}

// PreviewGetHandler serves a generated thumbnail.
func (h *Handler) PreviewGetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	preview, err := h.Previews.Open(id)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	defer preview.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	if _, err := io.Copy(w, preview); err != nil {
		logger.Log.Debug("failed to stream preview", "err", err)
	}
}

func readPickedFiles(r *http.Request) ([]attachments.PickedFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	var picked []attachments.PickedFile
	for _, fh := range r.MultipartForm.File["images"] {
		src, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, err
		}
		picked = append(picked, attachments.PickedFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return picked, nil
}

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/facilform-dev/facilform/internal/domain"
	"github.com/facilform-dev/facilform/internal/errors"
)

// imagesPartKey is the shared multipart key every attachment goes under,
// in gallery order.
const imagesPartKey = "images"

// CreateFacility submits the draft as one multipart request. Any 2xx
// response is success. On rejection the store body carries a numeric
// bcode; it is surfaced as a BusinessConflictError so the caller can
// distinguish business conflicts from transport failures.
func (c *APIClient) CreateFacility(ctx context.Context, draft domain.DraftRecord) error {
	body, contentType, err := encodeFacility(draft)
	if err != nil {
		return &errors.SubmissionError{Err: err}
	}

	resp, err := c.do(ctx, http.MethodPost, "/v1/facilities", contentType, body)
	if err != nil {
		return &errors.SubmissionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var rejection struct {
		Bcode int `json:"bcode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rejection); err != nil || rejection.Bcode == 0 {
		return &errors.SubmissionError{Err: fmt.Errorf("store returned status %d", resp.StatusCode)}
	}
	return &errors.BusinessConflictError{Bcode: rejection.Bcode}
}

func encodeFacility(draft domain.DraftRecord) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"name":             draft.Name,
		"description":      draft.Description,
		"latitude":         strconv.FormatFloat(draft.Location.Lat, 'f', -1, 64),
		"longitude":        strconv.FormatFloat(draft.Location.Lng, 'f', -1, 64),
		"opening_hours":    draft.OpeningHours,
		"open_on_weekends": strconv.FormatBool(draft.OpenOnWeekends),
	}
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	for _, att := range draft.Attachments {
		part, err := w.CreatePart(imagePartHeader(att))
		if err != nil {
			return nil, "", fmt.Errorf("failed to create image part: %w", err)
		}
		if _, err := part.Write(att.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write image part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func imagePartHeader(att *domain.Attachment) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`,
		imagesPartKey, escapeQuotes(att.Filename)))
	h.Set("Content-Type", att.MimeType)
	return h
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

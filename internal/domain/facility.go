package domain

import "github.com/google/uuid"

// Coordinates is a latitude/longitude pair picked on the map.
// The zero value means "not selected yet": a point is only considered
// set when both components are non-zero.
type Coordinates struct {
	Lat float64
	Lng float64
}

func (c Coordinates) Set() bool {
	return c.Lat != 0 && c.Lng != 0
}

// Attachment is one picked image together with its generated preview.
// ID is the single stable identity used everywhere: gallery membership,
// removal and preview lookup all key on it.
type Attachment struct {
	ID        uuid.UUID
	Filename  string
	SizeBytes int64
	MimeType  string
	Data      []byte
}

// DraftRecord is the in-progress, unsaved facility being created. It is
// assembled from the form components right before validation.
type DraftRecord struct {
	Name           string
	Description    string
	Location       Coordinates
	OpeningHours   string
	OpenOnWeekends bool
	Attachments    []*Attachment
}

// Notice is what the notification surface displays: a modal with title,
// body, icon and a single confirm action.
type Notice struct {
	Title string
	Body  string
	Icon  string
}

// BcodeDuplicateName is the only business code the client distinguishes
// in store rejections. Everything else is treated as a generic failure.
const BcodeDuplicateName = 1001

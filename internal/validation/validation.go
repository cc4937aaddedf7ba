// Package validation checks an assembled draft against the facility form
// schema. Every rule runs unconditionally; all failures are collected.
package validation

import (
	"fmt"

	"github.com/facilform-dev/facilform/internal/domain"
	"github.com/go-playground/validator/v10"
)

// MaxDescriptionLen and MaxAttachments are schema constants, enforced
// here centrally even when the UI path happens to keep inputs bounded.
const (
	MaxDescriptionLen = 300
	MaxAttachments    = 5
)

// draftSchema declares the five field rules. The tags are the schema;
// Validate only translates failures into tagged errors.
type draftSchema struct {
	Name         string               `validate:"required"`
	Description  string               `validate:"required,max=300"`
	Location     domain.Coordinates   `validate:"geopoint"`
	Attachments  []*domain.Attachment `validate:"min=1,max=5"`
	OpeningHours string               `validate:"required"`
}

// schemaFields maps schema struct fields onto the closed field set. The
// table is total over draftSchema; TestSchemaFieldsTotal keeps it that way.
var schemaFields = map[string]domain.Field{
	"Name":         domain.FieldName,
	"Description":  domain.FieldDescription,
	"Location":     domain.FieldLocation,
	"Attachments":  domain.FieldAttachments,
	"OpeningHours": domain.FieldOpeningHours,
}

type Engine struct {
	validate *validator.Validate
}

func NewEngine() *Engine {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("geopoint", validGeopoint); err != nil {
		panic("failed to register geopoint validation: " + err.Error())
	}
	return &Engine{validate: v}
}

// Validate runs every rule against the draft and returns one tagged error
// per failing field. A nil result means the draft is submittable.
func (e *Engine) Validate(draft domain.DraftRecord) []domain.ValidationError {
	schema := draftSchema{
		Name:         draft.Name,
		Description:  draft.Description,
		Location:     draft.Location,
		Attachments:  draft.Attachments,
		OpeningHours: draft.OpeningHours,
	}

	err := e.validate.Struct(schema)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		panic("unexpected validator error: " + err.Error())
	}

	out := make([]domain.ValidationError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		field, known := schemaFields[fe.StructField()]
		if !known {
			// draftSchema and schemaFields moved out of sync; this is a
			// programmer error, not an input error.
			panic("no form field for schema field " + fe.StructField())
		}
		out = append(out, domain.ValidationError{
			Field:   field,
			Message: message(field, fe),
		})
	}
	return out
}

// a location counts as picked only when both coordinates are non-zero
func validGeopoint(fl validator.FieldLevel) bool {
	coords, ok := fl.Field().Interface().(domain.Coordinates)
	return ok && coords.Set()
}

func message(field domain.Field, fe validator.FieldError) string {
	switch field {
	case domain.FieldName:
		return "Please enter a name"
	case domain.FieldDescription:
		if fe.Tag() == "max" {
			return fmt.Sprintf("Description must be at most %d characters", MaxDescriptionLen)
		}
		return "Please enter a description"
	case domain.FieldLocation:
		return "Please pick a point on the map"
	case domain.FieldAttachments:
		if fe.Tag() == "max" {
			return fmt.Sprintf("At most %d images are allowed", MaxAttachments)
		}
		return "Please add at least one image"
	case domain.FieldOpeningHours:
		return "Please enter the opening hours"
	}
	return "Invalid field"
}

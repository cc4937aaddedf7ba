package domain

// Field enumerates the facility form schema fields. The set is closed:
// error slots, validation rules and messages are all keyed by it, so a
// failure can never carry a tag without a matching slot.
type Field int

const (
	FieldName Field = iota
	FieldDescription
	FieldLocation
	FieldAttachments
	FieldOpeningHours
)

// Fields lists every schema field, in form order.
var Fields = [...]Field{
	FieldName,
	FieldDescription,
	FieldLocation,
	FieldAttachments,
	FieldOpeningHours,
}

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldDescription:
		return "description"
	case FieldLocation:
		return "location"
	case FieldAttachments:
		return "attachments"
	case FieldOpeningHours:
		return "opening_hours"
	}
	return "unknown"
}

// ValidationError is one failed rule, tagged with the field it belongs to.
type ValidationError struct {
	Field   Field
	Message string
}

func (e ValidationError) Error() string {
	return e.Field.String() + ": " + e.Message
}

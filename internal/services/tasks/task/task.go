// Package task defines the task model and the rules applied to task input
// before it is written.
package task

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/louisbranch/taskmanager/internal/platform/errors"
)

// MaxTitleLength is the longest accepted title, in characters.
const MaxTitleLength = 255

const (
	msgTitleRequired     = "Title is required"
	msgTitleTooLong      = "Title must not exceed 255 characters"
	msgCompletedRequired = "Completed must be a boolean value"
)

// Task is one to-do item owned by exactly one user.
type Task struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInput is the untrusted payload for a new task.
type CreateInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// UpdateInput is the untrusted payload for a full task update. Completed is a
// pointer so an omitted field can be told apart from false.
type UpdateInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   *Bool   `json:"completed"`
}

// Bool is a leniently decoded boolean. It accepts JSON true and false, the
// numbers 0 and 1, and the strings "true", "false", "0" and "1". Anything else
// decodes without error and leaves Valid false so validation can name the field.
type Bool struct {
	Value bool
	Valid bool
}

// NewBool returns a valid Bool holding v.
func NewBool(v bool) *Bool {
	return &Bool{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bool) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil && strings.HasPrefix(raw, `"`) {
		raw = unquoted
	}
	switch raw {
	case "true", "1":
		*b = Bool{Value: true, Valid: true}
	case "false", "0":
		*b = Bool{Valid: true}
	default:
		*b = Bool{}
	}
	return nil
}

// Fields is validated task content ready to be stored.
type Fields struct {
	Title       string
	Description string
	Completed   bool
}

// NormalizeCreateInput trims the title and description and validates the title.
func NormalizeCreateInput(input CreateInput) (Fields, error) {
	fields, violations := normalizeContent(input.Title, input.Description)
	if len(violations) > 0 {
		return Fields{}, apperrors.Validation(violations)
	}
	return fields, nil
}

// NormalizeUpdateInput applies the create rules and also requires completed.
func NormalizeUpdateInput(input UpdateInput) (Fields, error) {
	fields, violations := normalizeContent(input.Title, input.Description)
	if input.Completed == nil || !input.Completed.Valid {
		violations = append(violations, apperrors.FieldViolation{Field: "completed", Message: msgCompletedRequired})
	} else {
		fields.Completed = input.Completed.Value
	}
	if len(violations) > 0 {
		return Fields{}, apperrors.Validation(violations)
	}
	return fields, nil
}

func normalizeContent(title string, description *string) (Fields, []apperrors.FieldViolation) {
	var violations []apperrors.FieldViolation

	fields := Fields{Title: strings.TrimSpace(title)}
	switch {
	case fields.Title == "":
		violations = append(violations, apperrors.FieldViolation{Field: "title", Message: msgTitleRequired})
	case utf8.RuneCountInString(fields.Title) > MaxTitleLength:
		violations = append(violations, apperrors.FieldViolation{Field: "title", Message: msgTitleTooLong})
	}
	if description != nil {
		fields.Description = strings.TrimSpace(*description)
	}
	return fields, violations
}

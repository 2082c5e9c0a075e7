package services

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/huangang/researchhub/pkg/response"
	"gorm.io/gorm"
)

// sanitize trims s and escapes HTML so stored text renders inert.
func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

// Column widths for sanitized text. Escaping can grow a value up to five
// times, so the stored form is measured again.
const (
	maxTitleLen    = 255
	maxUsernameLen = 100
)

func checkStoredLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return response.NewValidation("validation failed", response.FieldError{
			Field: field, Rule: "max", Message: fmt.Sprintf("%s is too long", field),
		})
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// passThrough keeps AppErrors raised inside a transaction intact and wraps
// everything else as a storage failure.
func passThrough(err error, msg string) error {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return response.NewStorageError(msg, err)
}

func isForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

func newTitleRequired() error {
	return response.NewValidation("validation failed", response.FieldError{
		Field: "title", Rule: "required", Message: "title is required",
	})
}

package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

var validate = validator.New()

// parseBody decodes the JSON body into dst and runs struct validation.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate.Struct(dst); err != nil {
		details := map[string]any{}
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			for _, f := range invalid {
				details[f.Field()] = f.Tag()
			}
		}
		return apperrors.NewValidationError("invalid payload", details)
	}
	return nil
}

// parseDate parses a yyyy-mm-dd value, returning nil when empty.
func parseDate(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return nil
	}
	return &t
}

// parseTimestamp parses an RFC3339 value, returning nil when empty.
func parseTimestamp(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

// splitQueryList splits a comma-separated query value, dropping empties.
func splitQueryList(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInt(val string, fallback int) int {
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

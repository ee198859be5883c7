package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/maheshrc27/postdeck/internal/apperr"
	"github.com/maheshrc27/postdeck/internal/models"
)

const maxContentLength = 5000

// Shared validation rules for creating and updating posts. Every rule runs
// before any write, so a failing mutation leaves no partial state behind.

func validateContent(content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("%w: post content cannot be empty", apperr.ErrValidation)
	}
	if utf8.RuneCountInString(trimmed) > maxContentLength {
		return fmt.Errorf("%w: post content exceeds maximum length of %d characters", apperr.ErrValidation, maxContentLength)
	}
	return nil
}

func validatePlatforms(platforms []string) error {
	if len(platforms) == 0 {
		return fmt.Errorf("%w: at least one platform must be selected", apperr.ErrValidation)
	}
	for _, platform := range platforms {
		if !models.IsValidPlatform(platform) {
			return fmt.Errorf("%w: unknown platform %q", apperr.ErrValidation, platform)
		}
	}
	return nil
}

func validateSchedule(scheduledAt, now time.Time) error {
	if !scheduledAt.After(now) {
		return fmt.Errorf("%w: scheduled time must be in the future", apperr.ErrValidation)
	}
	return nil
}

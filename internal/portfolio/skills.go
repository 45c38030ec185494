// AngelaMos | 2026
// skills.go

package portfolio

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

const (
	MaxSkills       = 30
	MaxTechnologies = 20
	MaxTagLength    = 50
	clockLayout     = "15:04"
)

// NormalizeTags trims and case-folds each tag, drops empties and duplicates,
// and keeps first-seen order.
func NormalizeTags(field string, tags []string, limit int) ([]string, error) {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))

	for _, raw := range tags {
		tag := fold.String(strings.Join(strings.Fields(raw), " "))
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return nil, core.ValidationError(
				fmt.Sprintf("%s entries must be at most %d characters", field, MaxTagLength),
			)
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	if len(out) > limit {
		return nil, core.ValidationError(
			fmt.Sprintf("%s must have at most %d entries", field, limit),
		)
	}

	return out, nil
}

// NormalizeWindow validates optional "HH:MM" bounds; when both are present
// start must be before end.
func NormalizeWindow(start, end *string) (*string, *string, error) {
	s, err := normalizeClock("availability_start", start)
	if err != nil {
		return nil, nil, err
	}
	e, err := normalizeClock("availability_end", end)
	if err != nil {
		return nil, nil, err
	}

	if s != nil && e != nil && *s >= *e {
		return nil, nil, core.ValidationError(
			"availability_start must be before availability_end",
		)
	}

	return s, e, nil
}

func normalizeClock(field string, v *string) (*string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}

	t, err := time.Parse(clockLayout, strings.TrimSpace(*v))
	if err != nil {
		return nil, core.ValidationError(field + " must be HH:MM")
	}

	out := t.Format(clockLayout)
	return &out, nil
}

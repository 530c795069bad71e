package smartwatch

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ActivityLabel turns vendor activity keys such as "trail_running" or
// "STRENGTH-TRAINING" into display labels ("Trail Running"). An empty key
// becomes "Unknown".
func ActivityLabel(key string) string {
	key = strings.Join(strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}), " ")
	if key == "" {
		return "Unknown"
	}
	return cases.Title(language.Und).String(strings.ToLower(key))
}

package timezone

import (
	"fmt"
	"strings"
)

// Compose builds the greeting for the given zone names.
// It reports false when there is nobody to greet.
func Compose(names []string) (string, bool) {
	switch len(names) {
	case 0:
		return "", false
	case 1:
		return fmt.Sprintf("Good morning to %s!", names[0]), true
	default:
		last := len(names) - 1
		return fmt.Sprintf("Good morning to %s, and %s!", strings.Join(names[:last], ", "), names[last]), true
	}
}

package reference

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Key normalizes a subject or sub-subject name for matching across the
// profile, the catalog and the syllabus: surrounding and repeated spaces
// are collapsed and the result is upper-cased.
func Key(name string) string {
	return cases.Upper(language.Und).String(strings.Join(strings.Fields(name), " "))
}

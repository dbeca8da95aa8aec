package staging

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// unknownName replaces entity names that sanitize to nothing
const unknownName = "unknown"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slug lower-cases s and collapses every whitespace run into a single dash.
func Slug(s string) string {
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "-")
	// A Caser keeps state, so one is built per call.
	return cases.Lower(language.Und).String(s)
}

// SanitizeName turns an entity name into a single safe directory segment.
// Path separators become dashes and leading or trailing dots are dropped so
// that a name can never escape its kind directory.
func SanitizeName(name string) string {
	s := Slug(name)
	s = strings.NewReplacer("/", "-", `\`, "-").Replace(s)
	s = strings.Trim(s, ".")
	if s == "" {
		return unknownName
	}
	return s
}

// Filename builds the staged filename {slug(base)}-{unix millis}{ext}.
// Two uploads of the same original name within one millisecond collide.
func Filename(original string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}
	ext := filepath.Ext(base)
	stem := Slug(strings.TrimSuffix(base, ext))
	if stem == "" {
		stem = "file"
	}
	return stem + "-" + strconv.FormatInt(now.UnixMilli(), 10) + ext
}

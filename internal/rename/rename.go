// Package rename turns raw artist, album and song names into the canonical
// snake_case form used by the dataset tree.
//
// Songs end up as "<artist>-<title>.mp3" and albums as "album_name".
package rename

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// reTagWithSpace matches a bracketed group followed by a space: "(2001) ", "[Live] "
	reTagWithSpace = regexp.MustCompile(`[\(\[].*?[\)\]] `)
	// reTag matches a bracketed group with an optional leading space: " (1969)"
	reTag = regexp.MustCompile(` ?[\(\[].*?[\)\]]`)
)

// StripLeadingOrderNumber removes leading decimal digits.
// "03 - Song" becomes " - Song"; an all-digit name becomes empty.
func StripLeadingOrderNumber(name string) string {
	return strings.TrimLeftFunc(name, unicode.IsDigit)
}

// StripLeadingNonAlphanumeric removes leading characters until the first letter.
// Digits are not letters and are stripped too.
func StripLeadingNonAlphanumeric(name string) string {
	return strings.TrimLeftFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// StripYearOrTag removes the first "(...)" or "[...]" group.
// A space following the group is consumed; otherwise a space preceding it is.
func StripYearOrTag(name string) string {
	if loc := reTagWithSpace.FindStringIndex(name); loc != nil {
		return name[:loc[0]] + name[loc[1]:]
	}
	if loc := reTag.FindStringIndex(name); loc != nil {
		return name[:loc[0]] + name[loc[1]:]
	}
	return name
}

// ToSnakeCase collapses " - " to "-", replaces remaining spaces with
// underscores and lowercases the result.
func ToSnakeCase(name string) string {
	// The dash separator must be collapsed before spaces become underscores
	name = strings.ReplaceAll(name, " - ", "-")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

// CleanFilename applies the song file rules. It returns the original name
// and false when the rules would leave nothing behind.
func CleanFilename(name string) (string, bool) {
	s := StripLeadingOrderNumber(name)
	s = StripLeadingNonAlphanumeric(s)
	s = ToSnakeCase(s)
	return keepNonEmpty(name, s)
}

// CleanDirname applies the artist/album directory rules. It returns the
// original name and false when the rules would leave nothing behind.
//
// A name already in snake_case is canonical and comes back unchanged, so a
// second bracket group left over from an earlier pass ("abbey_road_(2009)")
// is not stripped on the next one.
func CleanDirname(name string) (string, bool) {
	s := StripYearOrTag(name)
	if isSnakeCase(name) {
		return name, s != ""
	}
	s = ToSnakeCase(s)
	return keepNonEmpty(name, s)
}

func isSnakeCase(name string) bool {
	return ToSnakeCase(name) == name
}

func keepNonEmpty(original, cleaned string) (string, bool) {
	if cleaned == "" {
		return original, false
	}
	return cleaned, true
}

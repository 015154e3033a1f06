package memory

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minCaptureChars = 10
	maxCaptureChars = 500
	maxEmoji        = 3
)

var captureTriggers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)zapamatuj si|pamatuj|remember`),
	regexp.MustCompile(`(?i)preferuji|radši|nechci|prefer`),
	regexp.MustCompile(`(?i)rozhodli jsme|budeme používat`),
	regexp.MustCompile(`\+\d{10,}`),
	regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`),
	regexp.MustCompile(`(?i)můj\s+\w+\s+je|je\s+můj`),
	regexp.MustCompile(`(?i)my\s+\w+\s+is|is\s+my`),
	regexp.MustCompile(`(?i)i (like|prefer|hate|love|want|need)`),
	regexp.MustCompile(`(?i)always|never|important`),
}

var (
	emojiPattern      = regexp.MustCompile(`[\x{1F300}-\x{1F9FF}]`)
	preferencePattern = regexp.MustCompile(`prefer|radši|like|love|hate|want`)
	decisionPattern   = regexp.MustCompile(`rozhodli|decided|will use|budeme`)
	entityPattern     = regexp.MustCompile(`\+\d{10,}|@[\w.-]+\.\w+|is called|jmenuje se`)
	factPattern       = regexp.MustCompile(`is|are|has|have|je|má|jsou`)
)

// ShouldCapture reports whether text looks like something worth remembering:
// a preference, a decision, contact details or a stated fact. Injected
// memory context, markup, formatted lists and emoji-heavy text never are.
func ShouldCapture(text string) bool {
	n := utf8.RuneCountInString(text)
	if n < minCaptureChars || n > maxCaptureChars {
		return false
	}
	if strings.Contains(text, contextTag) {
		return false
	}
	if strings.HasPrefix(text, "<") && strings.Contains(text, "</") {
		return false
	}
	if strings.Contains(text, "**") && strings.Contains(text, "\n-") {
		return false
	}
	if len(emojiPattern.FindAllStringIndex(text, maxEmoji+1)) > maxEmoji {
		return false
	}
	for _, re := range captureTriggers {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// DetectCategory guesses the category of text. Checks run from the most to
// the least specific.
func DetectCategory(text string) Category {
	lower := strings.ToLower(text)
	switch {
	case preferencePattern.MatchString(lower):
		return Preference
	case decisionPattern.MatchString(lower):
		return Decision
	case entityPattern.MatchString(lower):
		return Entity
	case factPattern.MatchString(lower):
		return Fact
	}
	return Other
}

package digest

import (
	"regexp"
	"strings"
	"unicode"
)

// tagTailRunes bounds the search for the tag line to the end of the text so
// that a "タグ:" inside the body is never picked up
const tagTailRunes = 300

// Localized label first, then the English one
var tagLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\*{0,2}タグ\*{0,2}[:：]\s*(.+?)(?:\n|$)`),
	regexp.MustCompile(`(?i)\*{0,2}Tags?\*{0,2}[:：]\s*(.+?)(?:\n|$)`),
}

var (
	tagSeparator  = regexp.MustCompile(`[,、]`)
	tagLabelStart = regexp.MustCompile(`(?i)^\*{0,2}(?:タグ|Tags?)\*{0,2}[:：]`)
)

// ExtractTags returns the tags declared on the trailing tag line of text, in
// order. Whitespace inside a tag is removed ("Claude Code" -> "ClaudeCode").
func ExtractTags(text string) []string {
	tail := lastRunes(text, tagTailRunes)

	for _, re := range tagLinePatterns {
		match := re.FindStringSubmatch(tail)
		if match == nil {
			continue
		}

		tags := []string{}
		for _, part := range tagSeparator.Split(match[1], -1) {
			tag := strings.Join(strings.Fields(part), "")
			if tag != "" {
				tags = append(tags, tag)
			}
		}
		return tags
	}
	return []string{}
}

// StripTagSection removes trailing tag lines, "---" separators and blank
// lines, in any order, from the end of text.
func StripTagSection(text string) string {
	lines := strings.Split(strings.TrimRightFunc(text, unicode.IsSpace), "\n")

	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if last == "" || last == "---" || tagLabelStart.MatchString(last) {
			lines = lines[:len(lines)-1]
			continue
		}
		break
	}
	return strings.Join(lines, "\n")
}

func lastRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

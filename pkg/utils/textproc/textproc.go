package textproc

import (
	"regexp"
	"strings"
)

// MaxContentLength bounds normalized output to keep downstream model cost
// predictable. Truncation is a hard cutoff, not word-boundary-aware.
const MaxContentLength = 10000

var (
	fencedCodeRe  = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe  = regexp.MustCompile("`[^`]*`")
	mdLinkRe      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	markupTagRe   = regexp.MustCompile(`<[^>]+>`)
	listMarkerRe  = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+`)
	specialCharRe = regexp.MustCompile(`[^\w\s.,;:!?\-]`)
)

// Normalize prepares raw text for classification: code spans are dropped
// entirely, markup tags are removed (anchor text survives), list markers
// become plain bullets, whitespace runs collapse to single spaces, characters
// outside word characters and basic punctuation are removed, and the result
// is truncated to MaxContentLength runes. Pure and total: empty input yields
// empty output.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := fencedCodeRe.ReplaceAllString(raw, "")
	text = inlineCodeRe.ReplaceAllString(text, "")
	text = mdLinkRe.ReplaceAllString(text, "$1")
	text = markupTagRe.ReplaceAllString(text, "")
	text = listMarkerRe.ReplaceAllString(text, "- ")
	text = specialCharRe.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) > MaxContentLength {
		return string(runes[:MaxContentLength])
	}
	return text
}

var codeBlockRe = regexp.MustCompile("(?s)```(?:[a-z]+\n)?(.*?)```")

// ExtractCodeBlocks returns the contents of all fenced code blocks.
func ExtractCodeBlocks(text string) []string {
	var blocks []string
	for _, m := range codeBlockRe.FindAllStringSubmatch(text, -1) {
		blocks = append(blocks, m[1])
	}
	return blocks
}

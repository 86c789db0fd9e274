// Package chunker splits documents into bounded text spans, preferring
// markdown headings, then paragraphs, then sentences, then words.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the chunk size used when none is configured.
const DefaultMaxChars = 1000

var (
	blankLine      = regexp.MustCompile(`\n[ \t]*\n`)
	sentenceBreak  = regexp.MustCompile(`([.!?]["')\]]?)\s+`)
	headingPattern = regexp.MustCompile(`^#{1,6}\s`)
)

// Splitter packs semantic units greedily into chunks of at most MaxChars runes.
type Splitter struct {
	MaxChars int
}

// New returns a Splitter; non-positive sizes fall back to DefaultMaxChars.
func New(maxChars int) *Splitter {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Splitter{MaxChars: maxChars}
}

// Split returns the chunks of text in order. Whitespace-only input yields nil.
func (s *Splitter) Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if c := strings.TrimSpace(current.String()); c != "" {
			chunks = append(chunks, c)
		}
		current.Reset()
		size = 0
	}
	add := func(unit string, sep string) {
		n := runeLen(unit)
		if size > 0 && size+runeLen(sep)+n > s.MaxChars {
			flush()
		}
		if size > 0 {
			current.WriteString(sep)
			size += runeLen(sep)
		}
		current.WriteString(unit)
		size += n
	}

	for _, para := range Paragraphs(text) {
		if isHeading(para) && size >= s.MaxChars/4 {
			flush()
		}
		if runeLen(para) <= s.MaxChars {
			add(para, "\n\n")
			continue
		}
		for _, piece := range s.splitLong(para) {
			add(piece, " ")
		}
	}
	flush()

	return chunks
}

// splitLong breaks an oversized paragraph into sentence, word or rune pieces
// that each fit MaxChars.
func (s *Splitter) splitLong(para string) []string {
	var out []string
	for _, sentence := range Sentences(para) {
		if runeLen(sentence) <= s.MaxChars {
			out = append(out, sentence)
			continue
		}
		var line strings.Builder
		lineLen := 0
		for _, word := range strings.Fields(sentence) {
			for runeLen(word) > s.MaxChars {
				if lineLen > 0 {
					out = append(out, line.String())
					line.Reset()
					lineLen = 0
				}
				head, tail := splitRunes(word, s.MaxChars)
				out = append(out, head)
				word = tail
			}
			if lineLen > 0 && lineLen+1+runeLen(word) > s.MaxChars {
				out = append(out, line.String())
				line.Reset()
				lineLen = 0
			}
			if lineLen > 0 {
				line.WriteByte(' ')
				lineLen++
			}
			line.WriteString(word)
			lineLen += runeLen(word)
		}
		if lineLen > 0 {
			out = append(out, line.String())
		}
	}
	return out
}

// Paragraphs splits text on blank lines and returns the trimmed, non-empty
// blocks. Heading lines are kept as their own block.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, block := range blankLine.Split(text, -1) {
		var body []string
		for _, line := range strings.Split(block, "\n") {
			if isHeading(strings.TrimSpace(line)) {
				if p := strings.TrimSpace(strings.Join(body, "\n")); p != "" {
					out = append(out, p)
				}
				body = body[:0]
				out = append(out, strings.TrimSpace(line))
				continue
			}
			body = append(body, line)
		}
		if p := strings.TrimSpace(strings.Join(body, "\n")); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Sentences splits a paragraph after terminal punctuation.
func Sentences(para string) []string {
	marked := sentenceBreak.ReplaceAllString(para, "$1\x00")
	var out []string
	for _, s := range strings.Split(marked, "\x00") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isHeading(line string) bool {
	return headingPattern.MatchString(line)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func splitRunes(s string, n int) (string, string) {
	r := []rune(s)
	return string(r[:n]), string(r[n:])
}

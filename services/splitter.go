package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// separatorLine is the explicit record separator emitted by the Composer.
const separatorLine = "--"

// SplitUTF8Smart splits text into chunks of at most maxBytes UTF-8 bytes.
//
// Text is consumed line by line. When the next line would overflow the
// current chunk, the chunk is cut at the last preferred boundary inside it:
//
//  1. a blank line that follows a line containing completionToken,
//  2. a line that is exactly "--".
//
// Otherwise the chunk is flushed as is. A line longer than maxBytes is split
// on its own at code point boundaries. Concatenating the returned chunks
// yields text.
func SplitUTF8Smart(text string, maxBytes int, completionToken string) []string {
	if maxBytes < 1 {
		maxBytes = 1
	}

	var (
		chunks []string
		buf    strings.Builder
	)
	flush := func() {
		if buf.Len() > 0 {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
	}

	for _, line := range splitLines(text) {
		lb := len(line)

		if lb > maxBytes {
			flush()
			chunks = append(chunks, SplitLineHard(line, maxBytes)...)
			continue
		}

		if buf.Len()+lb > maxBytes {
			cur := buf.String()
			if cut, ok := LastPreferredBoundary(cur, completionToken); ok {
				chunks = append(chunks, cur[:cut])
				buf.Reset()
				buf.WriteString(cur[cut:])
			}

			if buf.Len()+lb > maxBytes {
				flush()
			}
		}

		buf.WriteString(line)
	}

	flush()
	return chunks
}

// SplitLineHard greedily packs code points into pieces of at most maxBytes
// bytes. A single code point wider than maxBytes becomes a piece of its own.
func SplitLineHard(line string, maxBytes int) []string {
	var pieces []string
	start := 0
	for i := 0; i < len(line); {
		_, size := utf8.DecodeRuneInString(line[i:])
		if i+size-start > maxBytes && i > start {
			pieces = append(pieces, line[start:i])
			start = i
		}
		i += size
	}
	if start < len(line) {
		pieces = append(pieces, line[start:])
	}
	return pieces
}

// LastPreferredBoundary returns the byte offset just after the last
// preferred boundary in text, and false when there is none.
func LastPreferredBoundary(text, completionToken string) (int, bool) {
	var (
		offset       int
		cut          = -1
		prevNonEmpty string
	)

	for _, line := range splitLines(text) {
		offset += len(line)
		stripped := trimLine(line)

		if stripped == separatorLine {
			cut = offset
		}

		if stripped != "" {
			prevNonEmpty = line
			continue
		}

		if prevNonEmpty != "" && isCompletionLine(prevNonEmpty, completionToken) {
			cut = offset
		}
	}

	if cut < 0 {
		return 0, false
	}
	return cut, true
}

var emphasis = strings.NewReplacer("*", "", "_", "")

// isCompletionLine reports whether line mentions token, ignoring case and
// simple markdown emphasis.
func isCompletionLine(line, token string) bool {
	fold := cases.Fold()
	normalized := fold.String(emphasis.Replace(line))
	return strings.Contains(normalized, fold.String(token))
}

// splitLines splits s into lines that keep their terminator. Besides "\n",
// "\r\n" and a lone "\r", the vertical tab, form feed, file, group and
// record separators, NEL and the Unicode line and paragraph separators end
// a line.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		end := i + size
		switch r {
		case '\r':
			if end < len(s) && s[end] == '\n' {
				end++
			}
			fallthrough
		case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			lines = append(lines, s[start:end])
			start = end
		}
		i = end
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

// trimLine strips surrounding whitespace, counting the ASCII information
// separators as whitespace too.
func trimLine(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
	})
}

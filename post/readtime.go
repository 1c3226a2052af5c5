package post

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// WordCount sums the words of every section heading and body block.
func WordCount(sections []Section) int {
	total := 0
	for _, s := range sections {
		total += countWords(s.Heading)
		for _, b := range s.Body {
			total += countWords(b.Text)
		}
	}
	return total
}

// ReadingTime returns ceil(WordCount / WordsPerMinute) minutes.
func ReadingTime(sections []Section) int {
	words := WordCount(sections)
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// countWords splits on every whitespace rune, so a string holding k
// whitespace runes has k+1 words. Runs of whitespace and empty strings are
// not collapsed, and formatting markers in the text count as words.
func countWords(s string) int {
	n := 1
	for _, r := range s {
		if isSpace(r) {
			n++
		}
	}
	return n
}

// isSpace matches the ECMAScript WhiteSpace and LineTerminator sets that a
// \s regular expression class matches. It differs from unicode.IsSpace on
// U+0085 (excluded) and U+FEFF (included).
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0x00A0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	return r >= 0x2000 && r <= 0x200A
}

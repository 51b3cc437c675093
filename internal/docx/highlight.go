package docx

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// defaultCodeStyle is the chroma style used when none is configured.
const defaultCodeStyle = "github"

// codeToken is one colored span of a code-block line.
type codeToken struct {
	Text   string
	Color  string
	Bold   bool
	Italic bool
}

// highlightLines tokenizes code with chroma and splits the token stream
// into lines of colored spans. Unknown languages and tokenizer failures
// degrade to uncolored text; highlighting never fails a serialization.
func highlightLines(language, code, styleName string) [][]codeToken {
	if code == "" {
		return [][]codeToken{{{Text: ""}}}
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		return plainLines(code)
	}
	lexer = chroma.Coalesce(lexer)

	if styleName == "" {
		styleName = defaultCodeStyle
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plainLines(code)
	}

	var lines [][]codeToken
	current := []codeToken{}
	for _, tok := range iterator.Tokens() {
		entry := style.Get(tok.Type)
		color := ""
		if entry.Colour.IsSet() {
			color = strings.TrimPrefix(entry.Colour.String(), "#")
			color = strings.ToUpper(color)
		}

		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, current)
				current = []codeToken{}
			}
			if part == "" {
				continue
			}
			current = append(current, codeToken{
				Text:   part,
				Color:  color,
				Bold:   entry.Bold == chroma.Yes,
				Italic: entry.Italic == chroma.Yes,
			})
		}
	}
	lines = append(lines, current)

	// Trim a trailing empty line left by a final newline token.
	if n := len(lines); n > 1 && len(lines[n-1]) == 0 {
		lines = lines[:n-1]
	}
	for i, line := range lines {
		if len(line) == 0 {
			lines[i] = []codeToken{{Text: ""}}
		}
	}
	return lines
}

// plainLines returns the code split into uncolored single-token lines.
func plainLines(code string) [][]codeToken {
	raw := strings.Split(code, "\n")
	lines := make([][]codeToken, len(raw))
	for i, line := range raw {
		lines[i] = []codeToken{{Text: line}}
	}
	return lines
}

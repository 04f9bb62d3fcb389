package editor

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Br: true, atom.Col: true, atom.Embed: true, atom.Hr: true,
	atom.Img: true, atom.Input: true, atom.Link: true, atom.Meta: true, atom.Source: true,
	atom.Track: true, atom.Wbr: true,
}

// wordEnds returns the byte offset just past each word of text. Words are
// split on Unicode whitespace, non-breaking spaces included.
func wordEnds(text string) []int {
	var ends []int
	inWord := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if inWord && space {
			ends = append(ends, i)
		}
		inWord = !space
	}
	if inWord {
		ends = append(ends, len(text))
	}
	return ends
}

// countWords counts the whitespace-separated words in the text of markup.
func countWords(markup string) int {
	z := html.NewTokenizer(strings.NewReader(markup))
	n := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return n
		case html.TextToken:
			n += len(wordEnds(string(z.Text())))
		}
	}
}

// RevealHTML returns the prefix of markup holding its first n words, with
// every element still open at the cut closed again.
func RevealHTML(markup string, n int) string {
	if n <= 0 {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(markup))
	var sb strings.Builder
	var open []string
	left := n

	for left > 0 {
		tt := z.Next()
		if tt == html.ErrorToken {
			return markup
		}
		tok := z.Token()
		switch tt {
		case html.TextToken:
			text := tok.Data
			ends := wordEnds(text)
			if len(ends) <= left {
				sb.WriteString(html.EscapeString(text))
				left -= len(ends)
				continue
			}
			sb.WriteString(html.EscapeString(text[:ends[left-1]]))
			left = 0
		case html.StartTagToken:
			sb.WriteString(tok.String())
			if !voidElements[tok.DataAtom] {
				open = append(open, tok.Data)
			}
		case html.EndTagToken:
			sb.WriteString(tok.String())
			for i := len(open) - 1; i >= 0; i-- {
				if open[i] == tok.Data {
					open = open[:i]
					break
				}
			}
		default:
			sb.WriteString(tok.String())
		}
	}
	for i := len(open) - 1; i >= 0; i-- {
		sb.WriteString("</" + open[i] + ">")
	}
	return sb.String()
}

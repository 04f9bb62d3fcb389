package editor

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	attrLineID   = "data-line-id"
	attrKind     = "data-kind"
	attrAIPrompt = "data-ai-prompt"
	attrChecked  = "data-checked"
	attrPrompt   = "data-prompt"
)

var fragmentContext = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}

// HTML serializes the surface. Every top-level element carries the Line's ID
// and kind so the result can be loaded back.
func (s *Surface) HTML() string {
	var sb strings.Builder
	for _, l := range s.lines {
		_ = html.Render(&sb, renderLine(l))
	}
	return sb.String()
}

func renderLine(l *Line) *html.Node {
	attrs := []html.Attribute{
		{Key: attrLineID, Val: string(l.ID)},
		{Key: attrKind, Val: string(l.Kind)},
	}
	if l.AIPrompt {
		attrs = append(attrs, html.Attribute{Key: attrAIPrompt, Val: "true"})
	}

	switch l.Kind {
	case KindHeading1:
		return textBlock(atom.H1, attrs, l.Text)
	case KindHeading2:
		return textBlock(atom.H2, attrs, l.Text)
	case KindHeading3:
		return textBlock(atom.H3, attrs, l.Text)
	case KindBulleted:
		return wrap(atom.Ul, attrs, textBlock(atom.Li, nil, l.Text))
	case KindNumbered:
		return wrap(atom.Ol, attrs, textBlock(atom.Li, nil, l.Text))
	case KindTodo:
		item := textBlock(atom.Li, nil, l.Text)
		if l.Checked {
			item.Attr = append(item.Attr, html.Attribute{Key: attrChecked, Val: "true"})
		}
		return wrap(atom.Ul, attrs, item)
	case KindQuote:
		return textBlock(atom.Blockquote, attrs, l.Text)
	case KindCode:
		return wrap(atom.Pre, attrs, textBlock(atom.Code, nil, l.Text))
	case KindDivider:
		return element(atom.Hr, attrs)
	case KindTable:
		body := element(atom.Tbody, nil)
		for _, row := range l.Cells {
			tr := element(atom.Tr, nil)
			for _, cell := range row {
				tr.AppendChild(textBlock(atom.Td, nil, cell))
			}
			body.AppendChild(tr)
		}
		return wrap(atom.Table, attrs, body)
	case KindRich, KindAIResponse:
		n := element(atom.Div, attrs)
		appendMarkup(n, l.HTML)
		return n
	case KindAIPending, KindAIError:
		n := element(atom.Div, attrs)
		if l.Exchange != nil {
			n.Attr = append(n.Attr, html.Attribute{Key: attrPrompt, Val: l.Exchange.PromptText})
			n.AppendChild(&html.Node{Type: html.TextNode, Data: l.Exchange.PromptText})
		}
		return n
	}
	return textBlock(atom.P, attrs, l.Text)
}

func element(a atom.Atom, attrs []html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func wrap(a atom.Atom, attrs []html.Attribute, child *html.Node) *html.Node {
	n := element(a, attrs)
	n.AppendChild(child)
	return n
}

// textBlock renders an empty block as <br> so it keeps its height.
func textBlock(a atom.Atom, attrs []html.Attribute, text string) *html.Node {
	n := element(a, attrs)
	if text == "" {
		n.AppendChild(element(atom.Br, nil))
		return n
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

func appendMarkup(parent *html.Node, markup string) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), fragmentContext)
	if err != nil {
		parent.AppendChild(&html.Node{Type: html.TextNode, Data: markup})
		return
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
}

// parseMarkup reads serialized or foreign markup into Lines. Elements without
// a line ID, or repeating one already seen, get a fresh one; unknown block
// elements become rich Lines.
func parseMarkup(markup string) ([]*Line, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), fragmentContext)
	if err != nil {
		return nil, err
	}
	var lines []*Line
	seen := make(map[LineID]bool)
	for _, n := range nodes {
		for _, l := range parseNode(n) {
			if seen[l.ID] {
				l.ID = LineID(uuid.NewString())
			}
			seen[l.ID] = true
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func parseNode(n *html.Node) []*Line {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return nil
		}
		return []*Line{NewLine(KindParagraph, strings.TrimSpace(n.Data))}
	case html.ElementNode:
	default:
		return nil
	}

	l := &Line{ID: LineID(attr(n, attrLineID)), Kind: Kind(attr(n, attrKind))}
	if l.ID == "" {
		l.ID = LineID(uuid.NewString())
	}
	l.AIPrompt = attr(n, attrAIPrompt) == "true"

	if l.Kind == "" {
		switch n.DataAtom {
		case atom.P:
			l.Kind = KindParagraph
		case atom.H1:
			l.Kind = KindHeading1
		case atom.H2:
			l.Kind = KindHeading2
		case atom.H3, atom.H4, atom.H5, atom.H6:
			l.Kind = KindHeading3
		case atom.Ul, atom.Ol:
			return parseList(n)
		case atom.Blockquote:
			l.Kind = KindQuote
		case atom.Pre:
			l.Kind = KindCode
		case atom.Hr:
			l.Kind = KindDivider
		case atom.Table:
			l.Kind = KindTable
		default:
			l.Kind = KindRich
		}
	}

	switch l.Kind {
	case KindBulleted, KindNumbered, KindTodo:
		if li := firstChild(n, atom.Li); li != nil {
			l.Text = textContent(li)
			l.Checked = attr(li, attrChecked) == "true"
		}
	case KindTable:
		l.Cells = tableCells(n)
		if len(l.Cells) == 0 {
			l.Cells = [][]string{{"", ""}, {"", ""}}
		}
	case KindDivider:
	case KindRich, KindAIResponse:
		l.Kind = KindRich
		l.HTML = innerHTML(n)
	case KindAIPending, KindAIError:
		// an exchange cannot be restored from markup, keep its prompt as text
		l.Kind = KindParagraph
		l.Text = attr(n, attrPrompt)
	default:
		if !l.Kind.Editable() {
			l.Kind = KindParagraph
		}
		l.Text = textContent(n)
	}
	return []*Line{l}
}

// parseList splits a foreign list into one Line per item.
func parseList(n *html.Node) []*Line {
	kind := KindBulleted
	if n.DataAtom == atom.Ol {
		kind = KindNumbered
	}
	var lines []*Line
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Li {
			lines = append(lines, NewLine(kind, textContent(c)))
		}
	}
	return lines
}

func tableCells(n *html.Node) [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					row = append(row, textContent(c))
				}
			}
			rows = append(rows, row)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return rows
}

func firstChild(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func innerHTML(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&sb, c)
	}
	return sb.String()
}

// blockBreaks are elements whose boundaries separate words in extracted text.
var blockBreaks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Tr: true, atom.Td: true, atom.Th: true, atom.Pre: true, atom.Blockquote: true,
}

// markupText flattens markup to whitespace-normalized text.
func markupText(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var sb strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockBreaks[atom.Lookup(name)] {
				sb.WriteByte(' ')
			}
		}
	}
}

package editor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueLoadRoundTrip(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	heading := NewLine(KindHeading1, "Title <draft>")
	item := NewLine(KindBulleted, "first & second")
	todo := NewLine(KindTodo, "done")
	todo.Checked = true
	table := NewLine(KindTable, "")
	table.Cells = [][]string{{"a", "b"}, {"c", "d"}}
	divider := NewLine(KindDivider, "")
	code := NewLine(KindCode, "x := 1")
	quote := NewLine(KindQuote, "said")
	rich := NewLine(KindRich, "")
	rich.HTML = "<p>kept <em>markup</em></p>"
	prompt := NewLine(KindParagraph, "ask")
	prompt.AIPrompt = true
	empty := NewLine(KindParagraph, "")
	ed.Mutator().Reset([]*Line{heading, item, todo, table, divider, code, quote, rich, prompt, empty})

	value := ed.Value()
	assert.Contains(t, value, `data-line-id="`+string(heading.ID)+`"`)
	assert.Contains(t, value, "<p data-line-id=\""+string(empty.ID)+"\" data-kind=\"paragraph\"><br/></p>")

	other, _, _ := newTestEditor(t)
	require.NoError(t, other.Load(value))

	want := ed.Surface().Lines()
	got := other.Surface().Lines()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Kind, got[i].Kind)
		assert.Equal(t, want[i].Text, got[i].Text)
		assert.Equal(t, want[i].Checked, got[i].Checked)
		assert.Equal(t, want[i].Cells, got[i].Cells)
		assert.Equal(t, want[i].AIPrompt, got[i].AIPrompt)
	}
	assert.Equal(t, rich.HTML, other.Surface().Line(rich.ID).HTML)
	assert.Equal(t, AIActive, other.AIMode(), "a loaded flag is adopted")
	assert.Equal(t, prompt.ID, other.AILine())
}

func TestLoadForeignMarkup(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	require.NoError(t, ed.Load(`<h2>Hi</h2><ul><li>a</li><li>b</li></ul>loose text<h5>deep</h5><section><b>x</b></section><hr><pre>code</pre>`))

	var kinds []Kind
	var texts []string
	for _, l := range ed.Surface().Lines() {
		kinds = append(kinds, l.Kind)
		texts = append(texts, l.Text)
		assert.NotEmpty(t, l.ID)
	}
	assert.Equal(t, []Kind{
		KindHeading2, KindBulleted, KindBulleted, KindParagraph, KindHeading3, KindRich, KindDivider, KindCode,
	}, kinds)
	assert.Equal(t, []string{"Hi", "a", "b", "loose text", "deep", "", "", "code"}, texts)
	assert.Equal(t, "<b>x</b>", ed.Surface().At(5).HTML)
	assert.Equal(t, "x", ed.Surface().At(5).PlainText())
}

func TestLoadKeepsOneAIFlag(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	require.NoError(t, ed.Load(`<p data-ai-prompt="true">one</p><p data-ai-prompt="true">two</p>`))
	assert.Len(t, ed.Surface().flagged(), 1)
	assert.Equal(t, ed.Surface().At(0).ID, ed.AILine())
}

func TestLoadRenamesRepeatedLineIDs(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	require.NoError(t, ed.Load(`<p data-line-id="x"><br></p><p data-line-id="x"><br></p><h1 data-line-id="x">t</h1>`))

	require.Equal(t, 3, ed.Surface().Len())
	assert.Equal(t, LineID("x"), ed.Surface().At(0).ID, "first occurrence keeps its id")
	ids := map[LineID]bool{}
	for _, l := range ed.Surface().Lines() {
		assert.False(t, ids[l.ID], "duplicate id %s", l.ID)
		ids[l.ID] = true
	}

	ed.StartAIPrompt("x", "")
	assert.Len(t, ed.Surface().flagged(), 1)
	assert.Equal(t, AIActive, ed.AIMode())
	assert.Equal(t, LineID("x"), ed.AILine())
}

func TestLoadEmptyBackfills(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	require.NoError(t, ed.Load(""))
	require.Equal(t, 1, ed.Surface().Len())
	assert.True(t, ed.Surface().At(0).IsEmpty())
}

func TestLoadKeepsPendingExchange(t *testing.T) {
	ed, loop, _ := newTestEditor(t)
	id := startPrompt(t, ed, "go")
	ed.Key(KeyEvent{Key: KeyEnter, Line: id, Offset: 2})

	value := ed.Value()
	assert.Contains(t, value, `data-kind="ai_pending"`)
	require.NoError(t, ed.Load(value+"<p>appended</p>"))
	require.Equal(t, KindAIPending, ed.Surface().Line(id).Kind)

	loop.Flush()
	assert.Equal(t, KindAIResponse, ed.Surface().Line(id).Kind, "exchange survives a reload")

	fresh, _, _ := newTestEditor(t)
	require.NoError(t, fresh.Load(value))
	l := fresh.Surface().Line(id)
	require.NotNil(t, l)
	assert.Equal(t, KindParagraph, l.Kind)
	assert.Equal(t, "go", l.Text, "an orphaned exchange falls back to its prompt")
}

func TestMarkupText(t *testing.T) {
	tests := []struct {
		markup string
		want   string
	}{
		{markup: "<p>Hello <b>world</b></p><p>again</p>", want: "Hello world again"},
		{markup: "<ul><li>a</li><li>b</li></ul>", want: "a b"},
		{markup: "line<br>break", want: "line break"},
		{markup: "AT&amp;T", want: "AT&T"},
		{markup: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, markupText(tt.markup), tt.markup)
	}
}

func TestRevealHTML(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		n      int
		want   string
	}{
		{name: "nothing", markup: "<p>a b</p>", n: 0, want: ""},
		{name: "first word", markup: "<p>alpha beta</p>", n: 1, want: "<p>alpha</p>"},
		{name: "closes nested", markup: "<ul><li>one two</li><li>three</li></ul>", n: 2, want: "<ul><li>one two</li></ul>"},
		{name: "void element", markup: "<p>a<br>b c</p>", n: 2, want: "<p>a<br>b</p>"},
		{name: "escapes text", markup: "<p>x &lt; y z</p>", n: 3, want: "<p>x &lt; y</p>"},
		{name: "past the end", markup: "<p>a b</p>", n: 10, want: "<p>a b</p>"},
		{name: "non-breaking space", markup: "<p>one&nbsp;two three</p>", n: 1, want: "<p>one</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RevealHTML(tt.markup, tt.n))
		})
	}
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, countWords(""))
	assert.Equal(t, 3, countWords("<p>one <b>two</b> three</p>"))
	assert.Equal(t, 4, countWords("<h1>A title</h1><p>and body</p>"))
	assert.Equal(t, 2, countWords(strings.Repeat(" ", 5)+"hi <br/> there"))
	assert.Equal(t, 3, countWords("<p>one&nbsp;two\u2003three</p>"))
}

func TestRevealTicksMatchWordCount(t *testing.T) {
	markup := "<p>a&nbsp;b&nbsp;c</p><p>d\u00a0e</p>"
	words := countWords(markup)
	require.Equal(t, 5, words)

	prev := ""
	for n := 1; n <= words; n++ {
		got := RevealHTML(markup, n)
		assert.NotEqual(t, prev, got, "tick %d reveals a new word", n)
		assert.Equal(t, n, countWords(got))
		prev = got
	}
	assert.Equal(t, words, countWords(RevealHTML(markup, words+1)))
}

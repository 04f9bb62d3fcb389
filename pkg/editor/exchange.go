package editor

import "strings"

// ContextLines bounds how many non-empty Lines above and below the subject
// are sent along with a prompt.
const ContextLines = 3

type ExchangeStatus string

const (
	ExchangePending   ExchangeStatus = "pending"
	ExchangeSucceeded ExchangeStatus = "succeeded"
	ExchangeFailed    ExchangeStatus = "failed"
)

// Exchange is one prompt/response turn with the Gateway.
type Exchange struct {
	ID           string         `json:"id"`
	PromptText   string         `json:"prompt"`
	ContextAbove []string       `json:"context_above,omitempty"`
	ContextBelow []string       `json:"context_below,omitempty"`
	ResponseHTML string         `json:"response_html,omitempty"`
	Status       ExchangeStatus `json:"status"`
	Err          string         `json:"error,omitempty"`

	revealed int
	words    int
}

// Prompt renders the text sent to the Gateway.
func (x *Exchange) Prompt() string {
	var sb strings.Builder
	if len(x.ContextAbove) > 0 {
		sb.WriteString("Context above:\n")
		sb.WriteString(strings.Join(x.ContextAbove, "\n"))
		sb.WriteString("\n\n")
	}
	if len(x.ContextBelow) > 0 {
		sb.WriteString("Context below:\n")
		sb.WriteString(strings.Join(x.ContextBelow, "\n"))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Prompt: ")
	sb.WriteString(x.PromptText)
	return sb.String()
}

// Revealing reports whether the word-by-word reveal is still running.
func (x *Exchange) Revealing() bool {
	return x.Status == ExchangeSucceeded && x.revealed < x.words
}

// composeContext collects up to ContextLines trimmed, non-empty Lines on each
// side of subject, in document order. The subject itself is never included.
func composeContext(s *Surface, subject LineID) (above, below []string) {
	i := s.IndexOf(subject)
	if i < 0 {
		return nil, nil
	}
	for j := i - 1; j >= 0 && len(above) < ContextLines; j-- {
		if text := strings.TrimSpace(s.lines[j].PlainText()); text != "" {
			above = append(above, text)
		}
	}
	for l, r := 0, len(above)-1; l < r; l, r = l+1, r-1 {
		above[l], above[r] = above[r], above[l]
	}
	for j := i + 1; j < len(s.lines) && len(below) < ContextLines; j++ {
		if text := strings.TrimSpace(s.lines[j].PlainText()); text != "" {
			below = append(below, text)
		}
	}
	return above, below
}

// resolveExchange applies a gateway result. Results for Lines that vanished
// or moved on to another exchange are dropped.
func (e *Editor) resolveExchange(id LineID, x *Exchange, markup string, err error) {
	if e.closed {
		return
	}
	line := e.surface.Line(id)
	if line == nil || line.Exchange != x {
		return
	}
	if err == nil && strings.TrimSpace(markup) == "" {
		err = ErrEmptyResponse
	}

	if err != nil {
		x.Status = ExchangeFailed
		x.Err = err.Error()
		e.mutator.SetExchange(id, KindAIError, x, "")
	} else {
		x.Status = ExchangeSucceeded
		x.ResponseHTML = markup
		x.words = countWords(markup)
		x.revealed = 0
		e.mutator.SetExchange(id, KindAIResponse, x, markup)
		e.startReveal(id, x)
	}
	if e.observer != nil {
		e.observer.ExchangeResolved(*x)
	}
	e.refreshTrigger()
}

func (e *Editor) startReveal(id LineID, x *Exchange) {
	if x.words == 0 {
		return
	}
	var tick func()
	tick = func() {
		delete(e.reveals, x.ID)
		line := e.surface.Line(id)
		if e.closed || line == nil || line.Exchange != x {
			return
		}
		x.revealed++
		if x.revealed < x.words {
			e.reveals[x.ID] = e.loop.AfterFunc(RevealInterval, tick)
		}
	}
	e.reveals[x.ID] = e.loop.AfterFunc(RevealInterval, tick)
}

func (e *Editor) stopReveal(x *Exchange) {
	if t, ok := e.reveals[x.ID]; ok {
		t.Stop()
		delete(e.reveals, x.ID)
	}
	x.revealed = x.words
}

// Accept keeps a resolved response as document content and opens a new empty
// Line after it.
func (e *Editor) Accept(id LineID) error {
	if e.closed {
		return ErrClosed
	}
	line := e.surface.Line(id)
	if line == nil {
		return ErrLineNotFound
	}
	if line.Kind != KindAIResponse || line.Exchange == nil {
		return ErrNoExchange
	}
	e.stopReveal(line.Exchange)
	e.mutator.Promote(id)
	next := e.mutator.InsertAfter(id, NewLine(KindParagraph, ""))
	e.mutator.MoveCaretStart(next.ID)
	e.refreshTrigger()
	return nil
}

// Dismiss drops the prompt and its response, leaving one empty Line in their
// place.
func (e *Editor) Dismiss(id LineID) error {
	if e.closed {
		return ErrClosed
	}
	line := e.surface.Line(id)
	if line == nil {
		return ErrLineNotFound
	}
	if (line.Kind != KindAIResponse && line.Kind != KindAIError) || line.Exchange == nil {
		return ErrNoExchange
	}
	e.stopReveal(line.Exchange)
	fresh := e.mutator.Replace(id, NewLine(KindParagraph, ""))
	e.mutator.MoveCaretStart(fresh.ID)
	e.refreshTrigger()
	return nil
}

// TryAgain turns a failed exchange back into an AI prompt holding the
// original text.
func (e *Editor) TryAgain(id LineID) error {
	if e.closed {
		return ErrClosed
	}
	line := e.surface.Line(id)
	if line == nil {
		return ErrLineNotFound
	}
	if line.Kind != KindAIError || line.Exchange == nil {
		return ErrNoExchange
	}
	prompt := line.Exchange.PromptText
	if e.ai.mode != AIInactive {
		e.exitAI(false)
	}
	e.mutator.SetExchange(id, KindParagraph, nil, "")

	e.ai.reset()
	e.ai.mode = AIActive
	e.ai.line = id
	e.mutator.SetAIPrompt(id, true)
	e.mutator.SetText(id, prompt)
	e.mutator.MoveCaretEnd(id)
	e.refreshTrigger()
	return nil
}

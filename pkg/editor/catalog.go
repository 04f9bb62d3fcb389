package editor

// Action performs a structural insertion against target.
type Action func(ed *Editor, target LineID)

// InsertionOption is one entry of the insertion menu.
type InsertionOption struct {
	ID          string
	Label       string
	Description string
	Action      Action
}

// DefaultCatalog lists the block types offered by the insertion menu.
func DefaultCatalog() []InsertionOption {
	return []InsertionOption{
		blockOption("heading1", "Heading 1", "Big section heading", KindHeading1),
		blockOption("heading2", "Heading 2", "Medium section heading", KindHeading2),
		blockOption("heading3", "Heading 3", "Small section heading", KindHeading3),
		blockOption("bulleted", "Bulleted list", "Create a simple bulleted list", KindBulleted),
		blockOption("numbered", "Numbered list", "Create a list with numbering", KindNumbered),
		blockOption("todo", "To-do list", "Track tasks with a checklist", KindTodo),
		blockOption("table", "Table", "Add a simple grid", KindTable),
		blockOption("code", "Code", "Capture a code snippet", KindCode),
		blockOption("quote", "Quote", "Capture a quotation", KindQuote),
		blockOption("divider", "Divider", "Visually divide blocks", KindDivider),
		{
			ID:          "ai_prompt",
			Label:       "AI Prompt",
			Description: "Ask AI to write or edit for you",
			Action: func(ed *Editor, target LineID) {
				ed.StartAIPrompt(target, "")
			},
		},
	}
}

func blockOption(id, label, description string, kind Kind) InsertionOption {
	return InsertionOption{
		ID:          id,
		Label:       label,
		Description: description,
		Action: func(ed *Editor, target LineID) {
			ed.InsertBlock(target, kind)
		},
	}
}

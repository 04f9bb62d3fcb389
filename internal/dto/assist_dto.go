package dto

import "ai-editor-be/pkg/editor"

type CompleteRequest struct {
	Prompt string `json:"prompt" validate:"required,max=20000"`
}

type CompleteResponse struct {
	Text string `json:"text"`
}

// TextRequest is the body shared by the document-wide gateways.
type TextRequest struct {
	Text string `json:"text" validate:"required,max=100000"`
}

type SuggestionsResponse struct {
	Suggestions []editor.Suggestion `json:"suggestions"`
}

type SummaryResponse struct {
	Summary string `json:"summary"`
}

type TableOfContentsResponse struct {
	TableOfContents string `json:"tableOfContents"`
}

type FormatResponse struct {
	Content string `json:"content"`
}

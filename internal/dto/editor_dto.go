package dto

import (
	"time"

	"ai-editor-be/pkg/editor"
)

type CreateSessionRequest struct {
	Content string `json:"content" validate:"max=1000000"`
}

type SessionResponse struct {
	Id        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	View      editor.View `json:"view"`
}

// Inbound websocket frame types.
const (
	FrameInput        = "input"
	FrameKey          = "key"
	FrameCaret        = "caret"
	FramePointerMove  = "pointer_move"
	FramePointerLeave = "pointer_leave"
	FrameButtonHover  = "button_hover"
	FrameTriggerClick = "trigger_click"
	FrameClickOutside = "click_outside"
	FrameChoose       = "choose"
	FrameAccept       = "accept"
	FrameDismiss      = "dismiss"
	FrameTryAgain     = "try_again"
	FrameLayout       = "layout"
	FrameLoad         = "load"
	FrameCell         = "cell"
	FrameToggle       = "toggle"
)

// Outbound websocket frame types.
const (
	FrameView     = "view"
	FrameError    = "error"
	FrameAck      = "ack"
	FrameExchange = "exchange"
	FrameClosed   = "closed"
)

// ClientFrame is one event sent by the browser. Which fields are read
// depends on Type.
type ClientFrame struct {
	Type    string           `json:"type" validate:"required"`
	Seq     int64            `json:"seq,omitempty"`
	Line    editor.LineID    `json:"line,omitempty"`
	Text    string           `json:"text,omitempty"`
	Caret   int              `json:"caret,omitempty"`
	Key     string           `json:"key,omitempty"`
	Shift   bool             `json:"shift,omitempty"`
	Y       float64          `json:"y,omitempty"`
	Hovered bool             `json:"hovered,omitempty"`
	Index   int              `json:"index,omitempty"`
	Row     int              `json:"row,omitempty"`
	Col     int              `json:"col,omitempty"`
	Boxes   []editor.LineBox `json:"boxes,omitempty"`
	Content string           `json:"content,omitempty"`
}

// ServerFrame is pushed to the browser.
type ServerFrame struct {
	Type    string         `json:"type"`
	Seq     int64          `json:"seq,omitempty"`
	Handled bool           `json:"handled,omitempty"`
	Error   string         `json:"error,omitempty"`
	Data    *editor.View   `json:"data,omitempty"`
	Event   *ExchangeEvent `json:"event,omitempty"`
}

// ExchangeEvent is the bus message for an AI exchange that reached a final
// status.
type ExchangeEvent struct {
	SessionID      string                `json:"session_id"`
	ExchangeID     string                `json:"exchange_id"`
	Status         editor.ExchangeStatus `json:"status"`
	Prompt         string                `json:"prompt"`
	Error          string                `json:"error,omitempty"`
	ResponseLength int                   `json:"response_length"`
	OccurredAt     time.Time             `json:"occurred_at"`
}

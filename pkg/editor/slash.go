package editor

import (
	"regexp"
	"strings"
	"unicode"
)

// SlashIntent is what the slash detector asks of the insertion menu.
type SlashIntent int

const (
	SlashNone SlashIntent = iota
	SlashOpen
	SlashUpdate
	SlashClose
)

func (i SlashIntent) String() string {
	switch i {
	case SlashOpen:
		return "open"
	case SlashUpdate:
		return "update"
	case SlashClose:
		return "close"
	}
	return "none"
}

var slashCommandPattern = regexp.MustCompile(`(?:^|\s)(/[^/\s]*)$`)

// DetectSlash inspects text up to the caret (a rune offset). openedBySlash
// tells whether the menu is currently open because of a slash on this Line;
// a menu opened by the floating button is never closed from here.
func DetectSlash(text string, caret int, openedBySlash bool) (SlashIntent, string) {
	before := beforeCaret(text, caret)

	if n := len(before); n > 0 && before[n-1] == '/' && (n == 1 || unicode.IsSpace(before[n-2])) {
		return SlashOpen, ""
	}
	if m := slashCommandPattern.FindStringSubmatch(string(before)); m != nil && openedBySlash {
		return SlashUpdate, strings.TrimPrefix(m[1], "/")
	}
	if openedBySlash {
		return SlashClose, ""
	}
	return SlashNone, ""
}

// StripSlashCommand removes the slash command ending at the caret and returns
// the new text and caret.
func StripSlashCommand(text string, caret int) (string, int) {
	before := beforeCaret(text, caret)
	head := string(before)
	loc := slashCommandPattern.FindStringSubmatchIndex(head)
	if loc == nil {
		return text, len(before)
	}
	rest := string([]rune(text)[len(before):])
	kept := head[:loc[2]]
	return kept + rest, runeLen(kept)
}

func beforeCaret(text string, caret int) []rune {
	runes := []rune(text)
	if caret < 0 {
		caret = 0
	}
	if caret > len(runes) {
		caret = len(runes)
	}
	return runes[:caret]
}

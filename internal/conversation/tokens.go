package conversation

import (
	"strconv"
	"strings"
)

// TokenSeparator splits a token into its action and data parts.
const TokenSeparator = ":"

// Button actions.
const (
	ActionMode     = "mode"
	ActionMenu     = "menu"
	ActionCategory = "cat"
	ActionVariant  = "var"
	ActionPick     = "pick"
	ActionPage     = "page"
	ActionBrowse   = "browse"
	ActionTyped    = "typed"
	ActionSkip     = "skip"
	ActionSave     = "save"
	ActionCancel   = "cancel"
)

const menuSearch = "search"

// Token joins an action and its data.
func Token(action, data string) string {
	if data == "" {
		return action
	}
	return action + TokenSeparator + data
}

// SplitToken separates a token into its action and data.
func SplitToken(token string) (action, data string) {
	token = strings.TrimSpace(token)
	idx := strings.Index(token, TokenSeparator)
	if idx == -1 {
		return token, ""
	}
	return token[:idx], token[idx+len(TokenSeparator):]
}

func indexToken(action string, i int) string {
	return Token(action, strconv.Itoa(i))
}

func tokenIndex(data string) (int, bool) {
	i, err := strconv.Atoi(data)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

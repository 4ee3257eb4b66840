// Package model provides domain types shared across packages.
package model

import "strings"

// Role identifies who wrote a conversation entry.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// ParseRole normalizes a role name. "assistant" is accepted as an alias
// for RoleAI; anything else is rejected.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, true
	case "ai", "assistant":
		return RoleAI, true
	default:
		return "", false
	}
}

// Entry is one turn of the conversation about a document.
// History is ordered and append-only; the core never mutates it.
type Entry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserEntry creates a user turn.
func UserEntry(content string) Entry {
	return Entry{Role: RoleUser, Content: content}
}

// AIEntry creates an assistant turn.
func AIEntry(content string) Entry {
	return Entry{Role: RoleAI, Content: content}
}

package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Callback binds an inline button unique key to its handler.
type Callback struct {
	Handler   tele.HandlerFunc
	AdminOnly bool
}

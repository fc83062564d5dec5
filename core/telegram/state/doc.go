// Package state tracks per-conversation dialog state for Telegram bots.
// Sessions live in a pluggable Store; the Manager owns the state handler table.
package state

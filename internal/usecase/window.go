package usecase

import "legal-intake/internal/domain"

// windowMessages returns the trailing slice of history actually sent to the
// provider. Relative order is preserved; histories at or under the window
// size pass through unchanged.
func windowMessages(history []domain.ChatMessage, size int) []domain.ChatMessage {
	if size <= 0 || len(history) <= size {
		return history
	}
	return history[len(history)-size:]
}

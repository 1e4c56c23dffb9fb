package telegram

import (
	"context"
	"log/slog"
)

// Mock logs outbound messages instead of sending them, for local development.
type Mock struct {
	logger *slog.Logger
}

// NewMock creates a mock sender.
func NewMock(logger *slog.Logger) *Mock {
	return &Mock{logger: logger}
}

// SendMessage logs the message instead of sending it.
func (m *Mock) SendMessage(_ context.Context, chatID int64, text string) error {
	m.logger.Info("MOCK MESSAGE", "chat_id", chatID, "text", text)
	return nil
}

// SendSticker logs the sticker instead of sending it.
func (m *Mock) SendSticker(_ context.Context, chatID int64, fileID string) error {
	m.logger.Info("MOCK STICKER", "chat_id", chatID, "sticker", fileID)
	return nil
}

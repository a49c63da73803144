package domain

// UserRepository records every chat that wrote to the bot; it is the broadcast audience.
type UserRepository interface {
	SaveUser(chatID int64) error
	ListChatIDs() ([]int64, error)
}

// MessageSender delivers outbound messages; implemented by the Telegram adapter.
type MessageSender interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, fileID string, caption string) error
}

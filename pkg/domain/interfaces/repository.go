package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Webhook() WebhookRepository
	Workspace() WorkspaceRepository
	EmojiPreference() EmojiPreferenceRepository
	User() UserRepository
	ProcessedEvent() ProcessedEventRepository
	Task() TaskRepository
	DeadLetter() DeadLetterRepository

	Close() error
}

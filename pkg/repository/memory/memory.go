package memory

import (
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// ErrNotFound and ErrAlreadyExists are the shared repository sentinels
var (
	ErrNotFound      = interfaces.ErrNotFound
	ErrAlreadyExists = interfaces.ErrAlreadyExists
)

// Memory is an in-process repository. Stored values are copied on the way in and out.
type Memory struct {
	webhook        *webhookRepository
	workspace      *workspaceRepository
	emoji          *emojiPreferenceRepository
	user           *userRepository
	processedEvent *processedEventRepository
	task           *taskRepository
	deadLetter     *deadLetterRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		webhook:        newWebhookRepository(),
		workspace:      newWorkspaceRepository(),
		emoji:          newEmojiPreferenceRepository(),
		user:           newUserRepository(),
		processedEvent: newProcessedEventRepository(),
		task:           newTaskRepository(),
		deadLetter:     newDeadLetterRepository(),
	}
}

func (m *Memory) Webhook() interfaces.WebhookRepository {
	return m.webhook
}

func (m *Memory) Workspace() interfaces.WorkspaceRepository {
	return m.workspace
}

func (m *Memory) EmojiPreference() interfaces.EmojiPreferenceRepository {
	return m.emoji
}

func (m *Memory) User() interfaces.UserRepository {
	return m.user
}

func (m *Memory) ProcessedEvent() interfaces.ProcessedEventRepository {
	return m.processedEvent
}

func (m *Memory) Task() interfaces.TaskRepository {
	return m.task
}

func (m *Memory) DeadLetter() interfaces.DeadLetterRepository {
	return m.deadLetter
}

func (m *Memory) Close() error {
	return nil
}

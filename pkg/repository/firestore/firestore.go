package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
)

// ErrNotFound and ErrAlreadyExists are the shared repository sentinels
var (
	ErrNotFound      = interfaces.ErrNotFound
	ErrAlreadyExists = interfaces.ErrAlreadyExists
)

const (
	webhooksCollection         = "webhooks"
	workspacesCollection       = "workspace_connections"
	emojiPreferencesCollection = "emoji_preferences"
	usersCollection            = "users"
	processedEventsCollection  = "processed_events"
	tasksCollection            = "tasks"
	deadLettersCollection      = "dead_letters"
)

// collections resolves collection names with an optional prefix
type collections struct {
	client *firestore.Client
	prefix string
}

func (c *collections) get(name string) *firestore.CollectionRef {
	if c.prefix != "" {
		return c.client.Collection(c.prefix + "_" + name)
	}
	return c.client.Collection(name)
}

type Firestore struct {
	client         *firestore.Client
	cols           *collections
	webhook        *webhookRepository
	workspace      *workspaceRepository
	emoji          *emojiPreferenceRepository
	user           *userRepository
	processedEvent *processedEventRepository
	task           *taskRepository
	deadLetter     *deadLetterRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes every collection name with "<prefix>_"
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.cols.prefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	cols := &collections{client: client}
	f := &Firestore{
		client:         client,
		cols:           cols,
		webhook:        &webhookRepository{cols: cols},
		workspace:      &workspaceRepository{cols: cols},
		emoji:          &emojiPreferenceRepository{cols: cols},
		user:           &userRepository{cols: cols},
		processedEvent: &processedEventRepository{cols: cols},
		task:           &taskRepository{cols: cols},
		deadLetter:     &deadLetterRepository{cols: cols},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Webhook() interfaces.WebhookRepository {
	return f.webhook
}

func (f *Firestore) Workspace() interfaces.WorkspaceRepository {
	return f.workspace
}

func (f *Firestore) EmojiPreference() interfaces.EmojiPreferenceRepository {
	return f.emoji
}

func (f *Firestore) User() interfaces.UserRepository {
	return f.user
}

func (f *Firestore) ProcessedEvent() interfaces.ProcessedEventRepository {
	return f.processedEvent
}

func (f *Firestore) Task() interfaces.TaskRepository {
	return f.task
}

func (f *Firestore) DeadLetter() interfaces.DeadLetterRepository {
	return f.deadLetter
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

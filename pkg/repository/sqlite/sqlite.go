package sqlite

import (
	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	_ "modernc.org/sqlite"
)

// ErrNotFound and ErrAlreadyExists are the shared repository sentinels
var (
	ErrNotFound      = interfaces.ErrNotFound
	ErrAlreadyExists = interfaces.ErrAlreadyExists
)

// SQLite is a single-file Repository backend for local runs and tests.
// Use ":memory:" for a throwaway database.
type SQLite struct {
	db             *sqlx.DB
	webhook        *webhookRepository
	workspace      *workspaceRepository
	emoji          *emojiPreferenceRepository
	user           *userRepository
	processedEvent *processedEventRepository
	task           *taskRepository
	deadLetter     *deadLetterRepository
}

var _ interfaces.Repository = &SQLite{}

// New opens (or creates) the database at dbPath, enables WAL mode and applies
// pending migrations.
func New(dbPath string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite db", goerr.V("path", dbPath))
	}

	// SQLite serializes writers anyway, and an in-memory database only exists
	// on the connection that created it.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to enable WAL mode")
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to set busy timeout")
	}

	s := &SQLite{
		db:             db,
		webhook:        &webhookRepository{db: db},
		workspace:      &workspaceRepository{db: db},
		emoji:          &emojiPreferenceRepository{db: db},
		user:           &userRepository{db: db},
		processedEvent: &processedEventRepository{db: db},
		task:           &taskRepository{db: db},
		deadLetter:     &deadLetterRepository{db: db},
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// SchemaVersion returns the highest applied migration
func (s *SQLite) SchemaVersion() (int, error) {
	var version int
	if err := s.db.Get(&version, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, goerr.Wrap(err, "failed to read schema version")
	}
	return version, nil
}

func (s *SQLite) migrate() error {
	current := 0

	var tableCount int
	err := s.db.Get(&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return goerr.Wrap(err, "failed to check schema_version table")
	}

	if tableCount > 0 {
		if current, err = s.SchemaVersion(); err != nil {
			return err
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return goerr.Wrap(err, "failed to apply migration", goerr.V("version", m.version))
		}
	}

	return nil
}

func (s *SQLite) Webhook() interfaces.WebhookRepository {
	return s.webhook
}

func (s *SQLite) Workspace() interfaces.WorkspaceRepository {
	return s.workspace
}

func (s *SQLite) EmojiPreference() interfaces.EmojiPreferenceRepository {
	return s.emoji
}

func (s *SQLite) User() interfaces.UserRepository {
	return s.user
}

func (s *SQLite) ProcessedEvent() interfaces.ProcessedEventRepository {
	return s.processedEvent
}

func (s *SQLite) Task() interfaces.TaskRepository {
	return s.task
}

func (s *SQLite) DeadLetter() interfaces.DeadLetterRepository {
	return s.deadLetter
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

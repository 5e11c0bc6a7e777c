package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	"github.com/secmon-lab/reactask/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// AppConfig represents the application configuration file
type AppConfig struct {
	Emoji            EmojiConfig      `toml:"emoji"`
	Importance       ImportanceConfig `toml:"importance"`
	DeadlineTimezone string           `toml:"deadline_timezone"`
}

// EmojiConfig holds the default emoji names used when a user has no preference
type EmojiConfig struct {
	Today    string `toml:"today"`
	Tomorrow string `toml:"tomorrow"`
	Later    string `toml:"later"`
}

// ImportanceConfig overrides the initial importance seeds. Unset values keep the defaults.
type ImportanceConfig struct {
	Today    *int `toml:"today"`
	Tomorrow *int `toml:"tomorrow"`
	LaterMin *int `toml:"later_min"`
	LaterMax *int `toml:"later_max"`
}

// EmojiDefaults returns the built-in defaults overridden by configured names
func (a *AppConfig) EmojiDefaults() model.EmojiPreference {
	return model.EmojiPreference{
		TodayEmoji:    a.Emoji.Today,
		TomorrowEmoji: a.Emoji.Tomorrow,
		LaterEmoji:    a.Emoji.Later,
	}.WithDefaults(model.DefaultEmojiPreference())
}

// Seeds returns the built-in seeds overridden by configured values
func (a *AppConfig) Seeds() usecase.ImportanceSeeds {
	seeds := usecase.DefaultImportanceSeeds()
	if a.Importance.Today != nil {
		seeds.Today = *a.Importance.Today
	}
	if a.Importance.Tomorrow != nil {
		seeds.Tomorrow = *a.Importance.Tomorrow
	}
	if a.Importance.LaterMin != nil {
		seeds.LaterMin = *a.Importance.LaterMin
	}
	if a.Importance.LaterMax != nil {
		seeds.LaterMax = *a.Importance.LaterMax
	}
	return seeds
}

// Location returns the deadline timezone, UTC when unset
func (a *AppConfig) Location() (*time.Location, error) {
	if a.DeadlineTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(a.DeadlineTimezone)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidTimezone, err.Error(), goerr.V("timezone", a.DeadlineTimezone))
	}
	return loc, nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	pref := a.EmojiDefaults()
	seen := make(map[string]string)
	for slot, name := range map[string]string{
		"today":    pref.TodayEmoji,
		"tomorrow": pref.TomorrowEmoji,
		"later":    pref.LaterEmoji,
	} {
		if other, ok := seen[name]; ok {
			return goerr.Wrap(ErrInvalidEmoji, "same emoji configured for two urgencies",
				goerr.V("emoji", name), goerr.V("slot", slot), goerr.V("other_slot", other))
		}
		seen[name] = slot
	}

	seeds := a.Seeds()
	for name, v := range map[string]int{
		"today":     seeds.Today,
		"tomorrow":  seeds.Tomorrow,
		"later_min": seeds.LaterMin,
		"later_max": seeds.LaterMax,
	} {
		if v < 0 || v > 100 {
			return goerr.Wrap(ErrInvalidSeedRange, "importance seed must be between 0 and 100",
				goerr.V(FieldKey, name), goerr.V("value", v))
		}
	}
	if seeds.LaterMin > seeds.LaterMax {
		return goerr.Wrap(ErrInvalidSeedRange, "later_min must not exceed later_max",
			goerr.V("later_min", seeds.LaterMin), goerr.V("later_max", seeds.LaterMax))
	}

	if _, err := a.Location(); err != nil {
		return err
	}
	return nil
}

// UseCaseOptions converts the configuration to use case options
func (a *AppConfig) UseCaseOptions() ([]usecase.Option, error) {
	loc, err := a.Location()
	if err != nil {
		return nil, err
	}
	return []usecase.Option{
		usecase.WithEmojiDefaults(a.EmojiDefaults()),
		usecase.WithImportanceSeeds(a.Seeds()),
		usecase.WithDeadlineLocation(loc),
	}, nil
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, err.Error(), goerr.V(ConfigPathKey, path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// App holds the --config flag
type App struct {
	path string
}

func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Application config file (TOML)",
			Sources:     cli.EnvVars("REACTASK_CONFIG"),
			Destination: &x.path,
		},
	}
}

func (x App) LogValue() slog.Value {
	return slog.GroupValue(slog.String("path", x.path))
}

// Configure loads the config file. Without --config the built-in defaults apply.
func (x *App) Configure() (*AppConfig, error) {
	if x.path == "" {
		return &AppConfig{}, nil
	}
	return LoadAppConfiguration(x.path)
}

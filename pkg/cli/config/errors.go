package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound    = goerr.New("configuration file not found")
	ErrInvalidConfig     = goerr.New("invalid configuration")
	ErrInvalidTimezone   = goerr.New("invalid deadline timezone")
	ErrInvalidSeedRange  = goerr.New("invalid importance seed range")
	ErrInvalidEmoji      = goerr.New("invalid emoji configuration")
	ErrDuplicateID       = goerr.New("duplicate id")
	ErrMissingField      = goerr.New("required field is missing")
	ErrUnknownReference  = goerr.New("reference to unknown record")
	ErrUnsupportedOption = goerr.New("unsupported option")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	RecordKindKey = "kind"
	RecordIDKey   = "id"
	FieldKey      = "field"
)

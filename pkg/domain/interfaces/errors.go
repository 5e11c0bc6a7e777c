package interfaces

import "errors"

// Sentinel errors shared by every repository backend
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

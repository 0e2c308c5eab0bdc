package eval

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrDuplicateID marks a file whose id was already taken by an earlier file.
	ErrDuplicateID = errors.New("duplicate eval id")
	// ErrInvalidDefinition marks a file that parsed but failed validation.
	ErrInvalidDefinition = errors.New("invalid eval definition")
	// ErrNotFound indicates no loadable eval has the requested id.
	ErrNotFound = errors.New("eval not found")
	// ErrFileTooLarge marks a file over the configured size limit.
	ErrFileTooLarge = errors.New("eval file too large")
)

// FileError is a failure confined to one eval file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the error as {path, message}.
func (e *FileError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	}{Path: e.Path, Message: msg})
}

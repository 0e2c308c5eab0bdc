package mcp

import (
	"errors"
	"fmt"

	"github.com/assaylabs/assay/internal/domain/eval"
	"github.com/assaylabs/assay/internal/domain/project"
	"github.com/assaylabs/assay/internal/repository"
	"github.com/assaylabs/assay/internal/schema"
)

// Error codes returned to clients.
const (
	CodePathInvalid     = "PATH_INVALID"
	CodeAlreadyExists   = "ALREADY_EXISTS"
	CodeNotFound        = "NOT_FOUND"
	CodeCorrupt         = "CORRUPT"
	CodeVersionMismatch = "VERSION_MISMATCH"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeLocked          = "LOCKED"
	CodeNeedsRecovery   = "NEEDS_RECOVERY"
	CodeMethodNotFound  = "METHOD_NOT_FOUND"
	CodeInvalidParams   = "INVALID_PARAMS"
)

// APIError represents an error response with a stable code.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// VersionDetails accompanies VERSION_MISMATCH.
type VersionDetails struct {
	Found     int `json:"found"`
	Supported int `json:"supported"`
}

// MapError maps domain errors to API error codes. Errors it does not
// recognise map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	msg := err.Error()
	switch {
	case errors.Is(err, project.ErrVersionMismatch):
		out := &APIError{Code: CodeVersionMismatch, Message: msg, RecoveryHint: "Upgrade assay to open this project"}
		var vm *schema.VersionMismatchError
		if errors.As(err, &vm) {
			out.Details = VersionDetails{Found: vm.Found, Supported: vm.Supported}
		}
		return out
	case errors.Is(err, project.ErrAlreadyExists):
		return &APIError{Code: CodeAlreadyExists, Message: msg, RecoveryHint: "Use open_project instead"}
	case errors.Is(err, project.ErrCorrupt):
		return &APIError{Code: CodeCorrupt, Message: msg, RecoveryHint: "Restore .assay/assay.db from a backup"}
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: CodeNotFound, Message: msg, RecoveryHint: "Check the path or call create_project"}
	case errors.Is(err, eval.ErrNotFound):
		return &APIError{Code: CodeNotFound, Message: msg, RecoveryHint: "Call list_evals for available ids"}
	case errors.Is(err, project.ErrPathInvalid):
		return &APIError{Code: CodePathInvalid, Message: msg, RecoveryHint: "Pass an existing, accessible directory"}
	case errors.Is(err, project.ErrInvalidInput):
		return &APIError{Code: CodeInvalidInput, Message: msg}
	case errors.Is(err, project.ErrNeedsRecovery):
		return &APIError{Code: CodeNeedsRecovery, Message: msg, RecoveryHint: "Open the project with write access to roll back the interrupted write"}
	case errors.Is(err, repository.ErrLocked):
		return &APIError{Code: CodeLocked, Message: msg, RecoveryHint: "Retry once the other writer finishes"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

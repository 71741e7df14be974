package domain

import "errors"

var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthenticated    = errors.New("caller identity missing or incomplete")
	ErrMissingTenant      = errors.New("client id missing from caller identity")
	ErrClientMismatch     = errors.New("record belongs to a different client")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("state transition not permitted")
	ErrInvalidAction      = errors.New("action must be approved or rejected")
	ErrVersionConflict    = errors.New("record was modified by a concurrent writer")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrClientInactive     = errors.New("client is inactive")
	ErrUserInactive       = errors.New("user is inactive")
	ErrUnknownVariant     = errors.New("unknown form variant")
	ErrDuplicateRecord    = errors.New("record already exists for this client and unique id")
	ErrMissingUniqueID    = errors.New("uniqueId is required")
	ErrInvalidPayload     = errors.New("payload is not a JSON object")
	ErrDuplicateUsername  = errors.New("username already exists for this client")

	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
)

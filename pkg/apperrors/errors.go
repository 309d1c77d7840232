package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// Connector error taxonomy. Wrap with fmt.Errorf("...: %w", Err...) and
	// test with errors.Is.
	ErrUnsupportedDialect   = errors.New("unsupported database dialect")
	ErrConnection           = errors.New("database connection failed")
	ErrExtractionQuery      = errors.New("schema extraction query failed")
	ErrCredentialValidation = errors.New("knowledge API credential validation failed")
	ErrHTTPRequest          = errors.New("knowledge API request failed")
	ErrDocumentCreation     = errors.New("failed to create document")
)

package tools

import (
	"encoding/json"
	"errors"
	"regexp"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/apperrors"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/knowledge"
)

// ErrorResponse represents a structured error in tool results.
// Errors are returned as tool results rather than protocol errors so the
// calling agent sees the details.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
//
// Example:
//
//	if host == "" {
//	    return NewErrorResult("invalid_parameters", "parameter 'host' cannot be empty"), nil
//	}
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// Error codes returned by the database_to_knowledge tool.
const (
	CodeInvalidParameters    = "invalid_parameters"
	CodeUnsupportedDialect   = "unsupported_dialect"
	CodeConnectionFailed     = "connection_failed"
	CodeExtractionFailed     = "extraction_failed"
	CodeCredentialValidation = "credential_validation_failed"
	CodeDocumentCreation     = "document_creation_failed"
	CodeKnowledgeAPIError    = "knowledge_api_error"
	CodeSyncFailed           = "sync_failed"
)

// ErrorCode maps a pipeline error to its tool error code. Order matters:
// a document-creation failure is checked before the generic HTTP class.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnsupportedDialect):
		return CodeUnsupportedDialect
	case errors.Is(err, apperrors.ErrConnection):
		return CodeConnectionFailed
	case errors.Is(err, apperrors.ErrExtractionQuery):
		return CodeExtractionFailed
	case errors.Is(err, apperrors.ErrCredentialValidation):
		return CodeCredentialValidation
	case errors.Is(err, apperrors.ErrDocumentCreation):
		return CodeDocumentCreation
	case errors.Is(err, apperrors.ErrHTTPRequest):
		return CodeKnowledgeAPIError
	default:
		return CodeSyncFailed
	}
}

// NewPipelineErrorResult converts a pipeline error into an error result.
// Driver and HTTP specifics, when present, are attached as details.
func NewPipelineErrorResult(err error) *mcp.CallToolResult {
	details := map[string]any{}
	if state := SQLState(err); state != "" {
		details["sqlstate"] = state
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		details["mysql_error"] = myErr.Number
	}
	if status := knowledge.StatusCode(err); status != 0 {
		details["http_status"] = status
	}

	if len(details) == 0 {
		return NewErrorResult(ErrorCode(err), err.Error())
	}
	return NewErrorResultWithDetails(ErrorCode(err), err.Error(), details)
}

// sqlStateRegex matches PostgreSQL SQLSTATE codes in error messages like "(SQLSTATE 42601)"
var sqlStateRegex = regexp.MustCompile(`\(SQLSTATE ([0-9A-Z]{5})\)`)

// SQLState returns the PostgreSQL SQLSTATE carried by err, or "".
func SQLState(err error) string {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	// Wrapped errors that were flattened to text keep the suffix.
	if matches := sqlStateRegex.FindStringSubmatch(err.Error()); len(matches) >= 2 {
		return matches[1]
	}

	return ""
}

package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/apperrors"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/knowledge"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/logging"
)

// getTextContent extracts the text string from the first text content item
func getTextContent(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	jsonBytes, _ := json.Marshal(result.Content[0])
	var textContent struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	_ = json.Unmarshal(jsonBytes, &textContent)
	return textContent.Text
}

func decodeErrorResponse(t *testing.T, result *mcp.CallToolResult) ErrorResponse {
	t.Helper()
	require.NotNil(t, result)
	require.True(t, result.IsError)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(getTextContent(result)), &resp))
	return resp
}

func TestNewErrorResult(t *testing.T) {
	resp := decodeErrorResponse(t, NewErrorResult("test_error", "this is a test error"))

	assert.True(t, resp.Error)
	assert.Equal(t, "test_error", resp.Code)
	assert.Equal(t, "this is a test error", resp.Message)
	assert.Nil(t, resp.Details)
}

func TestNewErrorResultWithDetails(t *testing.T) {
	resp := decodeErrorResponse(t, NewErrorResultWithDetails("validation_error", "bad", map[string]any{"count": 2}))

	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), details["count"])
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unsupported", fmt.Errorf("%w: \"sqlite\"", apperrors.ErrUnsupportedDialect), CodeUnsupportedDialect},
		{"connection", fmt.Errorf("%w: mysql://db:3306/shop", apperrors.ErrConnection), CodeConnectionFailed},
		{"extraction", fmt.Errorf("%w: list tables", apperrors.ErrExtractionQuery), CodeExtractionFailed},
		{"credentials", fmt.Errorf("%w: no data", apperrors.ErrCredentialValidation), CodeCredentialValidation},
		{"document", fmt.Errorf("write schema of shop: %w", apperrors.ErrDocumentCreation), CodeDocumentCreation},
		{"http", &knowledge.HTTPError{Method: "POST", StatusCode: 500}, CodeKnowledgeAPIError},
		{"other", errors.New("boom"), CodeSyncFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestNewPipelineErrorResult_Details(t *testing.T) {
	t.Run("postgres sqlstate", func(t *testing.T) {
		err := fmt.Errorf("%w: list tables: %w", apperrors.ErrExtractionQuery, &pgconn.PgError{Code: "42501", Message: "permission denied"})
		resp := decodeErrorResponse(t, NewPipelineErrorResult(err))
		assert.Equal(t, CodeExtractionFailed, resp.Code)
		assert.Equal(t, map[string]any{"sqlstate": "42501"}, resp.Details)
	})

	t.Run("mysql error number", func(t *testing.T) {
		err := fmt.Errorf("%w: columns: %w", apperrors.ErrExtractionQuery, &mysqldriver.MySQLError{Number: 1142, Message: "SELECT command denied"})
		resp := decodeErrorResponse(t, NewPipelineErrorResult(err))
		assert.Equal(t, map[string]any{"mysql_error": float64(1142)}, resp.Details)
	})

	t.Run("sanitized connection failure", func(t *testing.T) {
		cause := &mysqldriver.MySQLError{Number: 1045, Message: "Access denied; password=hunter2"}
		err := fmt.Errorf("%w: mysql://db:3306/shop: %w", apperrors.ErrConnection, logging.WrapSanitized(cause))
		resp := decodeErrorResponse(t, NewPipelineErrorResult(err))
		assert.Equal(t, CodeConnectionFailed, resp.Code)
		assert.Equal(t, map[string]any{"mysql_error": float64(1045)}, resp.Details)
		assert.NotContains(t, resp.Message, "hunter2")
	})

	t.Run("http status", func(t *testing.T) {
		err := fmt.Errorf("create dataset: %w", &knowledge.HTTPError{Method: "POST", URL: "http://kb/datasets", StatusCode: 403})
		resp := decodeErrorResponse(t, NewPipelineErrorResult(err))
		assert.Equal(t, CodeKnowledgeAPIError, resp.Code)
		assert.Equal(t, map[string]any{"http_status": float64(403)}, resp.Details)
		assert.Contains(t, resp.Message, "HTTP 403")
	})

	t.Run("no details", func(t *testing.T) {
		resp := decodeErrorResponse(t, NewPipelineErrorResult(errors.New("boom")))
		assert.Equal(t, CodeSyncFailed, resp.Code)
		assert.Nil(t, resp.Details)
	})
}

func TestSQLState(t *testing.T) {
	assert.Equal(t, "", SQLState(nil))
	assert.Equal(t, "42P01", SQLState(&pgconn.PgError{Code: "42P01"}))
	assert.Equal(t, "42501", SQLState(errors.New(`ERROR: permission denied for table orders (SQLSTATE 42501)`)))
	assert.Equal(t, "", SQLState(errors.New("connection refused")))
}

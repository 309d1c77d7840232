package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/knowledge"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/services"
)

// DatabaseToKnowledgeToolName is the registered tool name.
const DatabaseToKnowledgeToolName = "database_to_knowledge"

// DatabaseToKnowledgeRunner runs one extraction and sync.
type DatabaseToKnowledgeRunner interface {
	DatabaseToKnowledge(ctx context.Context, req services.Request) (string, error)
}

var _ DatabaseToKnowledgeRunner = (*services.DatabaseToKnowledgeService)(nil)

// supportedDBTypes lists the db_type values accepted by the tool.
var supportedDBTypes = []string{
	datasource.DialectMySQL,
	datasource.DialectOracle,
	datasource.DialectMSSQL,
	"sqlserver",
	datasource.DialectPostgreSQL,
	datasource.DialectDoris,
}

// RegisterDatabaseToKnowledgeTool adds the database_to_knowledge tool. The tool
// returns the dataset id as text.
func RegisterDatabaseToKnowledgeTool(s *server.MCPServer, runner DatabaseToKnowledgeRunner, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named(DatabaseToKnowledgeToolName)

	tool := mcp.NewTool(
		DatabaseToKnowledgeToolName,
		mcp.WithDescription("Extracts table and column metadata from a database and writes one knowledge document per table into a dataset. Returns the dataset id."),
		mcp.WithString(
			"db_type",
			mcp.Required(),
			mcp.Enum(supportedDBTypes...),
			mcp.Description("Database engine"),
		),
		mcp.WithString(
			"host",
			mcp.Required(),
			mcp.Description("Database host"),
		),
		mcp.WithNumber(
			"port",
			mcp.Description("Optional - Database port. Defaults to the engine's standard port"),
		),
		mcp.WithString(
			"username",
			mcp.Description("Database user"),
		),
		mcp.WithString(
			"password",
			mcp.Description("Database password"),
		),
		mcp.WithString(
			"database",
			mcp.Required(),
			mcp.Description("Database name (service name for Oracle)"),
		),
		mcp.WithString(
			"schema",
			mcp.Description("Optional - Schema to read (PostgreSQL search_path, SQL Server schema, Oracle owner)"),
		),
		mcp.WithString(
			"table_names",
			mcp.Description("Optional - Comma-separated table names. Empty means all tables"),
		),
		mcp.WithString(
			"embedding_model",
			mcp.Required(),
			mcp.Description("Embedding model name"),
		),
		mcp.WithString(
			"embedding_provider",
			mcp.Required(),
			mcp.Description("Embedding model provider"),
		),
		mcp.WithString(
			"rerank_model",
			mcp.Required(),
			mcp.Description("Rerank model name"),
		),
		mcp.WithString(
			"rerank_provider",
			mcp.Required(),
			mcp.Description("Rerank model provider"),
		),
		mcp.WithString(
			"dataset_id",
			mcp.Description("Optional - Existing dataset id. A new dataset is created when empty or unknown"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		request, errResult := parseDatabaseToKnowledgeRequest(req)
		if errResult != nil {
			return errResult, nil
		}

		datasetID, err := runner.DatabaseToKnowledge(ctx, request)
		if err != nil {
			logger.Warn("Database to knowledge failed",
				zap.String("target", request.Source.String()),
				zap.Error(err))
			return NewPipelineErrorResult(err), nil
		}

		return mcp.NewToolResultText(datasetID), nil
	})
}

// parseDatabaseToKnowledgeRequest reads tool arguments. A non-nil result
// reports invalid parameters.
func parseDatabaseToKnowledgeRequest(req mcp.CallToolRequest) (services.Request, *mcp.CallToolResult) {
	required := map[string]string{}
	for _, name := range []string{"db_type", "host", "database", "embedding_model", "embedding_provider", "rerank_model", "rerank_provider"} {
		value, err := req.RequireString(name)
		if err != nil {
			return services.Request{}, NewErrorResult(CodeInvalidParameters, err.Error())
		}
		value = trimString(value)
		if value == "" {
			return services.Request{}, NewErrorResult(CodeInvalidParameters, fmt.Sprintf("parameter '%s' cannot be empty", name))
		}
		required[name] = value
	}

	port := req.GetInt("port", 0)
	if port < 0 || port > 65535 {
		return services.Request{}, NewErrorResult(CodeInvalidParameters, fmt.Sprintf("parameter 'port' out of range: %d", port))
	}

	return services.Request{
		Source: datasource.ConnectionSpec{
			Dialect:  required["db_type"],
			Host:     required["host"],
			Port:     port,
			Username: trimString(req.GetString("username", "")),
			Password: req.GetString("password", ""),
			Database: required["database"],
			Schema:   trimString(req.GetString("schema", "")),
		},
		TableNames: req.GetString("table_names", ""),
		DatasetID:  trimString(req.GetString("dataset_id", "")),
		EmbeddingModel: knowledge.ModelRef{
			Model:    required["embedding_model"],
			Provider: required["embedding_provider"],
		},
		RerankModel: knowledge.ModelRef{
			Model:    required["rerank_model"],
			Provider: required["rerank_provider"],
		},
	}, nil
}

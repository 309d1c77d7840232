package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/knowledge"
)

// Request carries the parameters of one database-to-knowledge run.
type Request struct {
	Source         datasource.ConnectionSpec
	TableNames     string
	DatasetID      string
	EmbeddingModel knowledge.ModelRef
	RerankModel    knowledge.ModelRef
}

// Validate checks the parameters that every dialect needs.
func (r Request) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Source.Dialect) == "" {
		errs = append(errs, errors.New("db_type is required"))
	}
	if strings.TrimSpace(r.Source.Host) == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if strings.TrimSpace(r.Source.Database) == "" {
		errs = append(errs, errors.New("database is required"))
	}
	if r.EmbeddingModel.Model == "" || r.EmbeddingModel.Provider == "" {
		errs = append(errs, errors.New("embedding model and provider are required"))
	}
	if r.RerankModel.Model == "" || r.RerankModel.Provider == "" {
		errs = append(errs, errors.New("rerank model and provider are required"))
	}
	return errors.Join(errs...)
}

// ConnectionBuilder matches datasource.BuildConnection.
type ConnectionBuilder func(spec datasource.ConnectionSpec, logger *zap.Logger) (datasource.Connection, error)

// KnowledgeAPIFactory creates a knowledge client bound to the request's models.
type KnowledgeAPIFactory func(embedding, rerank knowledge.ModelRef) KnowledgeAPI

// DatabaseToKnowledgeService runs the whole pipeline: connect, extract, close
// and sync.
type DatabaseToKnowledgeService struct {
	connect ConnectionBuilder
	newAPI  KnowledgeAPIFactory
	logger  *zap.Logger
}

// NewDatabaseToKnowledgeService wires the service to the registered dialects
// and a knowledge.Client at baseURL.
func NewDatabaseToKnowledgeService(baseURL, apiKey string, logger *zap.Logger, opts ...knowledge.Option) *DatabaseToKnowledgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	newAPI := func(embedding, rerank knowledge.ModelRef) KnowledgeAPI {
		clientOpts := append([]knowledge.Option{
			knowledge.WithEmbeddingModel(embedding),
			knowledge.WithRerankModel(rerank),
		}, opts...)
		return knowledge.NewClient(baseURL, apiKey, logger, clientOpts...)
	}
	return newDatabaseToKnowledgeService(datasource.BuildConnection, newAPI, logger)
}

func newDatabaseToKnowledgeService(connect ConnectionBuilder, newAPI KnowledgeAPIFactory, logger *zap.Logger) *DatabaseToKnowledgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatabaseToKnowledgeService{
		connect: connect,
		newAPI:  newAPI,
		logger:  logger.Named("database-to-knowledge"),
	}
}

// Extract connects to the source, reads the filtered schema and closes the
// connection before returning.
func (s *DatabaseToKnowledgeService) Extract(ctx context.Context, spec datasource.ConnectionSpec, tableNames string) (*datasource.SchemaMap, error) {
	conn, err := s.connect(spec, s.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Warn("Failed to close source connection",
				zap.String("target", conn.Spec().String()),
				zap.Error(err))
		}
	}()

	if err := conn.Open(ctx); err != nil {
		return nil, err
	}

	return datasource.NewExtractor(conn, s.logger).GetAllTablesSchema(ctx, tableNames)
}

// DatabaseToKnowledge extracts the source schema and syncs it, returning the
// dataset id.
func (s *DatabaseToKnowledgeService) DatabaseToKnowledge(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("invalid request: %w", err)
	}

	schema, err := s.Extract(ctx, req.Source, req.TableNames)
	if err != nil {
		return "", err
	}

	syncer := NewSchemaSyncService(s.newAPI(req.EmbeddingModel, req.RerankModel), s.logger)
	return syncer.WriteDatabaseSchema(ctx, schema, req.Source.Database, req.DatasetID)
}

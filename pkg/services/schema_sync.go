package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/apperrors"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/knowledge"
)

// KnowledgeAPI is the part of the knowledge client the sync depends on.
type KnowledgeAPI interface {
	CreateDataset(ctx context.Context, name string) (string, error)
	GetDatasetDetail(ctx context.Context, datasetID string) (*knowledge.Dataset, error)
	ListDocuments(ctx context.Context, datasetID, keyword string, page, limit int) (*knowledge.DocumentList, error)
	DeleteDocument(ctx context.Context, datasetID, documentID string) error
	CreateDocumentFromText(ctx context.Context, datasetID, name, text string) (*knowledge.Document, error)
}

var _ KnowledgeAPI = (*knowledge.Client)(nil)

// SchemaSyncService publishes extracted schemas as knowledge documents.
type SchemaSyncService interface {
	// WriteDatabaseSchema upserts one document per table into the dataset
	// identified by existingDatasetID, creating a dataset named after
	// databaseName when the id is empty or unusable. Returns the dataset id
	// that received the documents.
	WriteDatabaseSchema(ctx context.Context, schema *datasource.SchemaMap, databaseName, existingDatasetID string) (string, error)
}

// DatasetProbe is the outcome of checking a caller-supplied dataset id.
type DatasetProbe int

const (
	DatasetFound DatasetProbe = iota
	DatasetNotFound
	DatasetProbeFailed
)

func (p DatasetProbe) String() string {
	switch p {
	case DatasetFound:
		return "found"
	case DatasetNotFound:
		return "not_found"
	case DatasetProbeFailed:
		return "probe_failed"
	default:
		return fmt.Sprintf("DatasetProbe(%d)", int(p))
	}
}

type schemaSyncService struct {
	api      KnowledgeAPI
	logger   *zap.Logger
	newRunID func() uuid.UUID
}

// NewSchemaSyncService creates a sync service over api.
func NewSchemaSyncService(api KnowledgeAPI, logger *zap.Logger) SchemaSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &schemaSyncService{
		api:      api,
		logger:   logger.Named("schema-sync"),
		newRunID: uuid.New,
	}
}

var _ SchemaSyncService = (*schemaSyncService)(nil)

func (s *schemaSyncService) WriteDatabaseSchema(ctx context.Context, schema *datasource.SchemaMap, databaseName, existingDatasetID string) (string, error) {
	logger := s.logger.With(
		zap.String("run_id", s.newRunID().String()),
		zap.String("database", databaseName))

	datasetID, err := s.write(ctx, logger, schema, databaseName, existingDatasetID)
	if err != nil {
		logger.Error("Metadata sync to knowledge failed", zap.Error(err))
		return "", fmt.Errorf("write schema of %s: %w", databaseName, err)
	}
	return datasetID, nil
}

func (s *schemaSyncService) write(ctx context.Context, logger *zap.Logger, schema *datasource.SchemaMap, databaseName, existingDatasetID string) (string, error) {
	datasetID, err := s.resolveDataset(ctx, logger, databaseName, existingDatasetID)
	if err != nil {
		return "", err
	}
	logger = logger.With(zap.String("dataset_id", datasetID))

	if schema == nil {
		schema = datasource.NewSchemaMap()
	}

	for _, table := range schema.Tables() {
		name := DocumentName(table)

		if deleted, err := s.removeExisting(ctx, datasetID, name); err != nil {
			logger.Warn("Failed to check or delete existing document",
				zap.String("document", name),
				zap.Int("deleted", deleted),
				zap.Error(err))
		} else if deleted > 0 {
			logger.Debug("Replaced existing document",
				zap.String("document", name),
				zap.Int("deleted", deleted))
		}

		doc, err := s.api.CreateDocumentFromText(ctx, datasetID, name, DocumentText(table))
		if err != nil {
			return "", fmt.Errorf("create document %q: %w", name, err)
		}
		if doc == nil {
			return "", fmt.Errorf("%w: %q", apperrors.ErrDocumentCreation, name)
		}
	}

	logger.Info("Synced schema to knowledge", zap.Int("tables", schema.Len()))
	return datasetID, nil
}

// resolveDataset returns existingDatasetID when it can be read, otherwise a
// freshly created dataset. Probe errors are logged, never returned.
func (s *schemaSyncService) resolveDataset(ctx context.Context, logger *zap.Logger, databaseName, existingDatasetID string) (string, error) {
	if existingDatasetID != "" {
		probe, err := s.probeDataset(ctx, existingDatasetID)
		if probe == DatasetFound {
			return existingDatasetID, nil
		}
		logger.Warn("Dataset is not usable, creating a new one",
			zap.String("dataset_id", existingDatasetID),
			zap.Stringer("probe", probe),
			zap.Error(err))
	}

	datasetID, err := s.api.CreateDataset(ctx, databaseName)
	if err != nil {
		return "", fmt.Errorf("create dataset: %w", err)
	}
	return datasetID, nil
}

func (s *schemaSyncService) probeDataset(ctx context.Context, datasetID string) (DatasetProbe, error) {
	_, err := s.api.GetDatasetDetail(ctx, datasetID)
	switch {
	case err == nil:
		return DatasetFound, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return DatasetNotFound, err
	default:
		return DatasetProbeFailed, err
	}
}

// removeExisting deletes every document in the first result page of a
// keyword search whose name equals name exactly. Individual delete failures
// do not stop the remaining deletes; they are joined into the returned error.
func (s *schemaSyncService) removeExisting(ctx context.Context, datasetID, name string) (int, error) {
	list, err := s.api.ListDocuments(ctx, datasetID, name, knowledge.DefaultPage, knowledge.DefaultLimit)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	if list == nil {
		return 0, nil
	}

	var (
		deleted int
		errs    []error
	)
	for _, doc := range list.Data {
		if doc.Name != name {
			continue
		}
		if err := s.api.DeleteDocument(ctx, datasetID, doc.ID.String()); err != nil {
			errs = append(errs, fmt.Errorf("delete document %s: %w", doc.ID, err))
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}

// Package knowledge provides a client for a Dify-compatible knowledge-base API.
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/apperrors"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/logging"
)

// DefaultTimeout is the maximum time to wait for a knowledge API response.
const DefaultTimeout = 30 * time.Second

// Default paging for ListDocuments.
const (
	DefaultPage  = 1
	DefaultLimit = 100
)

// Client provides access to the knowledge API. Requests are not retried.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger

	embeddingModel ModelRef
	rerankModel    ModelRef
	now            func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default 30s-timeout HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithEmbeddingModel sets the embedding model used for new documents.
func WithEmbeddingModel(m ModelRef) Option {
	return func(c *Client) {
		c.embeddingModel = m
	}
}

// WithRerankModel sets the rerank model used in the document retrieval settings.
func WithRerankModel(m ModelRef) Option {
	return func(c *Client) {
		c.rerankModel = m
	}
}

// WithClock overrides the time source used to suffix dataset names.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a knowledge API client. baseURL is the API root, e.g.
// "https://dify.example.com/v1".
func NewClient(baseURL, apiKey string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger.Named("knowledge"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateAPIKey lists one dataset and reports whether the response carries
// a data field.
func (c *Client) ValidateAPIKey(ctx context.Context) (bool, error) {
	query := url.Values{}
	query.Set("page", "1")
	query.Set("limit", "1")

	var response struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, query, nil, &response, "datasets"); err != nil {
		return false, err
	}

	return len(response.Data) > 0 && string(response.Data) != "null", nil
}

// CreateDataset creates a dataset named "{name}-{unix seconds}" and returns its id.
func (c *Client) CreateDataset(ctx context.Context, name string) (string, error) {
	body := createDatasetRequest{
		Name:              fmt.Sprintf("%s-%d", name, c.now().Unix()),
		Description:       "Metadata of " + name,
		IndexingTechnique: "high_quality",
		Permission:        "all_team_members",
		Provider:          "vendor",
	}

	var dataset Dataset
	if err := c.do(ctx, http.MethodPost, nil, body, &dataset, "datasets"); err != nil {
		return "", err
	}
	if dataset.ID == "" {
		return "", fmt.Errorf("%w: create dataset %q: response has no id", apperrors.ErrHTTPRequest, body.Name)
	}

	c.logger.Info("Created dataset",
		zap.String("dataset_id", dataset.ID.String()),
		zap.String("name", body.Name))

	return dataset.ID.String(), nil
}

// GetDatasetDetail fetches a dataset. A missing dataset yields an error that
// matches apperrors.ErrNotFound.
func (c *Client) GetDatasetDetail(ctx context.Context, datasetID string) (*Dataset, error) {
	var dataset Dataset
	if err := c.do(ctx, http.MethodGet, nil, nil, &dataset, "datasets", datasetID); err != nil {
		return nil, err
	}
	return &dataset, nil
}

// ListDocuments returns one page of the dataset's documents. keyword filters on
// document name and is omitted when empty. page and limit default to 1 and 100.
func (c *Client) ListDocuments(ctx context.Context, datasetID, keyword string, page, limit int) (*DocumentList, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	if keyword != "" {
		query.Set("keyword", keyword)
	}

	var list DocumentList
	if err := c.do(ctx, http.MethodGet, query, nil, &list, "datasets", datasetID, "documents"); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteDocument removes a document from a dataset.
func (c *Client) DeleteDocument(ctx context.Context, datasetID, documentID string) error {
	return c.do(ctx, http.MethodDelete, nil, nil, nil, "datasets", datasetID, "documents", documentID)
}

// CreateDocumentFromText creates a document from plain text using the
// hierarchical table process rule. It returns nil, nil when the response has
// no document.
func (c *Client) CreateDocumentFromText(ctx context.Context, datasetID, name, text string) (*Document, error) {
	body := createDocumentRequest{
		Name:              name,
		Text:              text,
		DocMetadata:       []any{},
		IndexingTechnique: "high_quality",
		DocForm:           "hierarchical_model",
		DocLanguage:       "Chinese",
		ProcessRule:       tableProcessRule(),
		RetrievalModel: retrievalModel{
			SearchMethod:    "semantic_search",
			RerankingEnable: true,
			RerankingModel: rerankingModel{
				Name:     c.rerankModel.Model,
				Provider: c.rerankModel.Provider,
			},
			TopK:                  10,
			ScoreThresholdEnabled: false,
		},
		EmbeddingModel:         c.embeddingModel.Model,
		EmbeddingModelProvider: c.embeddingModel.Provider,
	}

	var response struct {
		Document *Document `json:"document"`
		Batch    string    `json:"batch"`
	}
	if err := c.do(ctx, http.MethodPost, nil, body, &response, "datasets", datasetID, "document", "create-by-text"); err != nil {
		return nil, err
	}

	if response.Document != nil {
		c.logger.Debug("Created document",
			zap.String("dataset_id", datasetID),
			zap.String("document_id", response.Document.ID.String()),
			zap.String("name", name),
			zap.String("batch", response.Batch))
	}

	return response.Document, nil
}

// do sends one request. body is JSON-encoded when non-nil; out is decoded from
// the response when non-nil and the body is not empty.
func (c *Client) do(ctx context.Context, method string, query url.Values, body, out any, pathSegments ...string) error {
	endpoint, err := buildURL(c.baseURL, query, pathSegments...)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrHTTPRequest, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", apperrors.ErrHTTPRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Calling knowledge API",
		zap.String("method", method),
		zap.String("url", endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", apperrors.ErrHTTPRequest, method, endpoint, logging.WrapSanitized(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", apperrors.ErrHTTPRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Knowledge API returned error",
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.TruncateString(string(respBody), maxErrorBody)))
		return newHTTPError(method, endpoint, resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: failed to parse response from %s: %w", apperrors.ErrHTTPRequest, endpoint, err)
	}
	return nil
}

// buildURL parses the base and joins path segments onto it.
func buildURL(baseURL string, query url.Values, pathSegments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	segments := append([]string{u.Path}, pathSegments...)
	u.Path = path.Join(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}

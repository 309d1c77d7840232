package knowledge

import "github.com/ekaya-inc/dbschema-knowledge/pkg/jsonutil"

// ModelRef selects a model hosted by the knowledge service.
type ModelRef struct {
	Model    string `json:"model" yaml:"model"`
	Provider string `json:"provider" yaml:"provider"`
}

// IsZero reports whether neither field is set.
func (m ModelRef) IsZero() bool {
	return m.Model == "" && m.Provider == ""
}

// Dataset is the subset of a knowledge dataset the connector reads.
type Dataset struct {
	ID                jsonutil.FlexibleString `json:"id"`
	Name              string                  `json:"name"`
	Description       string                  `json:"description"`
	Permission        string                  `json:"permission"`
	IndexingTechnique string                  `json:"indexing_technique"`
}

// Document is the subset of a knowledge document the connector reads.
type Document struct {
	ID             jsonutil.FlexibleString `json:"id"`
	Name           string                  `json:"name"`
	IndexingStatus string                  `json:"indexing_status"`
}

// DocumentList is one page of GET /datasets/{id}/documents.
type DocumentList struct {
	Data    []Document `json:"data"`
	HasMore bool       `json:"has_more"`
	Total   int        `json:"total"`
	Page    int        `json:"page"`
	Limit   int        `json:"limit"`
}

type createDatasetRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	IndexingTechnique string `json:"indexing_technique"`
	Permission        string `json:"permission"`
	Provider          string `json:"provider"`
}

type preProcessingRule struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

type segmentation struct {
	Separator string `json:"separator"`
	MaxTokens int    `json:"max_tokens"`
}

type processRules struct {
	PreProcessingRules   []preProcessingRule `json:"pre_processing_rules"`
	Segmentation         segmentation        `json:"segmentation"`
	ParentMode           string              `json:"parent_mode"`
	SubchunkSegmentation segmentation        `json:"subchunk_segmentation"`
}

type processRule struct {
	Mode  string       `json:"mode"`
	Rules processRules `json:"rules"`
}

type rerankingModel struct {
	Name     string `json:"reranking_model_name"`
	Provider string `json:"reranking_provider_name"`
}

type retrievalModel struct {
	SearchMethod          string         `json:"search_method"`
	RerankingEnable       bool           `json:"reranking_enable"`
	RerankingModel        rerankingModel `json:"reranking_model"`
	TopK                  int            `json:"top_k"`
	ScoreThresholdEnabled bool           `json:"score_threshold_enabled"`
}

type createDocumentRequest struct {
	Name                   string         `json:"name"`
	Text                   string         `json:"text"`
	DocMetadata            []any          `json:"doc_metadata"`
	IndexingTechnique      string         `json:"indexing_technique"`
	DocForm                string         `json:"doc_form"`
	DocLanguage            string         `json:"doc_language"`
	ProcessRule            processRule    `json:"process_rule"`
	RetrievalModel         retrievalModel `json:"retrieval_model"`
	EmbeddingModel         string         `json:"embedding_model"`
	EmbeddingModelProvider string         `json:"embedding_model_provider"`
}

// tableProcessRule splits a table document into one parent chunk per
// paragraph and one child chunk per column line.
func tableProcessRule() processRule {
	return processRule{
		Mode: "hierarchical",
		Rules: processRules{
			PreProcessingRules: []preProcessingRule{
				{ID: "remove_extra_spaces", Enabled: true},
				{ID: "remove_urls_emails", Enabled: false},
			},
			Segmentation:         segmentation{Separator: "\n\n", MaxTokens: 4000},
			ParentMode:           "paragraph",
			SubchunkSegmentation: segmentation{Separator: "\n", MaxTokens: 4000},
		},
	}
}

package domain

import "time"

// KnowledgeSourceType identifies where a passage came from.
type KnowledgeSourceType string

const (
	KnowledgeSourceFAQ     KnowledgeSourceType = "FAQ"
	KnowledgeSourceArticle KnowledgeSourceType = "ARTICLE"
	KnowledgeSourceFile    KnowledgeSourceType = "FILE"
)

// KnowledgePassage is one embedded chunk of knowledge-base content.
type KnowledgePassage struct {
	ID             string
	OrganizationID string
	SourceType     KnowledgeSourceType
	SourceID       string
	Content        string
	Metadata       map[string]any
	Embedding      []float32
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PassageMatch is a similarity-search hit. Similarity is cosine, in [0,1],
// already ranked descending by the index.
type PassageMatch struct {
	SourceType KnowledgeSourceType
	SourceID   string
	Content    string
	Metadata   map[string]any
	Similarity float64
}

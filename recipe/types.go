package recipe

// Ingredient is a single recipe ingredient with a numeric quantity and a
// free-text unit (グラム, 個, 本, カップ, 大さじ, 小さじ, ...).
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Entity is the structured recipe extracted from a document.
type Entity struct {
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
}

// ValidationResult is the recipe-or-not classification of a PDF.
type ValidationResult struct {
	IsRecipe bool   `json:"is_recipe"`
	Reason   string `json:"reason"`
}

// PdfContent holds the downloaded document and its extracted plain text.
type PdfContent struct {
	RawBytes      []byte
	ExtractedText string
}

// DocumentChunks is the ordered segmentation of a document's text.
type DocumentChunks struct {
	OriginalText string
	Segments     []string
}

// ChunkEmbedding pairs a segment's text with its vector representation.
type ChunkEmbedding struct {
	ChunkText string
	Vector    []float32
}

// EmbeddedChunks carries the segments alongside their embeddings. The
// embedding list may be shorter than the segment list when individual
// embedding calls failed.
type EmbeddedChunks struct {
	Segments   []string
	Embeddings []ChunkEmbedding
}

// ExtractionResult is the terminal output of a run. Both fields are nil
// when the document was rejected or extraction produced nothing.
type ExtractionResult struct {
	Recipe              *Entity  `json:"recipe"`
	TotalCookingMinutes *float64 `json:"total_cooking_minutes"`
}

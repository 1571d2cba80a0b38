package workflow

import (
	"github.com/SaiNageswarS/recipe-flow/recipe"
)

// State is the snapshot threaded through the graph. Nodes receive it by value
// and return a new snapshot with their deltas applied; nothing is mutated
// across node boundaries. PdfURL is set once before the run.
type State struct {
	PdfURL string

	ValidationResult       *recipe.ValidationResult
	PdfContent             *recipe.PdfContent
	DocumentChunks         *recipe.DocumentChunks
	EmbeddedChunks         *recipe.EmbeddedChunks
	RecipeRelevantSegments []string
	ExtractedRecipe        *recipe.Entity
	TotalCookingMinutes    *float64
	FinalResult            *recipe.ExtractionResult

	// Err is advisory. Nodes record failures here but the graph never
	// branches on it; downstream nodes detect absent fields instead.
	Err string
}

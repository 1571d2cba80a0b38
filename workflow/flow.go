package workflow

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/recipe-flow/llm"
	"github.com/SaiNageswarS/recipe-flow/prompts"
	"github.com/SaiNageswarS/recipe-flow/recipe"
	"github.com/SaiNageswarS/recipe-flow/tools"
	"github.com/SaiNageswarS/recipe-flow/vectorstore"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// Retrieval queries, kept verbatim from the extraction pipeline's tuning.
const (
	entityQuery = "レシピ名 材料 分量"
	timeQuery   = "時間 分 調理時間 作業時間 合計"
)

// PdfService is the document collaborator the flow depends on.
type PdfService interface {
	Download(ctx context.Context, url string) ([]byte, error)
	ExtractText(raw []byte) (string, error)
	Split(text string) []string
}

// Flow wires the recipe extraction nodes to their collaborators and owns the
// graph topology.
type Flow struct {
	chat       llm.LLMClient
	embedder   llm.Embedder
	pdfs       PdfService
	entityTopK int
	timeTopK   int
}

func New(chat llm.LLMClient, embedder llm.Embedder, pdfs PdfService, entityTopK, timeTopK int) *Flow {
	return &Flow{
		chat:       chat,
		embedder:   embedder,
		pdfs:       pdfs,
		entityTopK: entityTopK,
		timeTopK:   timeTopK,
	}
}

// Compile builds the workflow graph:
//
//	validate ─(recipe)→ download → split → embed → retrieve_for_entity
//	    │                          → extract_entity → extract_time → finalize
//	    └─(not a recipe)→ not_recipe_finish
//
// Every node continues with its best-effort state on failure; absence of a
// field downstream signals the failure, not an aborted run.
func (f *Flow) Compile() (*Runner[State], error) {
	return NewGraph[State]().
		AddNode("validate", f.validate, ContinueWithDefault).
		AddNode("download", f.download, ContinueWithDefault).
		AddNode("split", f.split, ContinueWithDefault).
		AddNode("embed", f.embed, ContinueWithDefault).
		AddNode("retrieve_for_entity", f.retrieveForEntity, ContinueWithDefault).
		AddNode("extract_entity", f.extractEntity, ContinueWithDefault).
		AddNode("extract_time", f.extractTime, ContinueWithDefault).
		AddNode("finalize", f.finalize, ContinueWithDefault).
		AddNode("not_recipe_finish", f.notRecipeFinish, ContinueWithDefault).
		SetEntryPoint("validate").
		AddConditionalEdges("validate", shouldContinue, map[Decision]string{
			Continue: "download",
			Stop:     "not_recipe_finish",
		}).
		AddEdge("download", "split").
		AddEdge("split", "embed").
		AddEdge("embed", "retrieve_for_entity").
		AddEdge("retrieve_for_entity", "extract_entity").
		AddEdge("extract_entity", "extract_time").
		AddEdge("extract_time", "finalize").
		AddEdge("finalize", End).
		AddEdge("not_recipe_finish", End).
		OnNodeError(recordNodeError).
		Compile()
}

// shouldContinue routes on the validation verdict. An absent verdict means
// the validation node itself failed; the branch stays open rather than
// discarding a possibly valid document.
func shouldContinue(s State) Decision {
	if s.ValidationResult != nil && !s.ValidationResult.IsRecipe {
		return Stop
	}
	return Continue
}

func recordNodeError(s State, nodeName string, err error) State {
	s.Err = fmt.Sprintf("%s: %v", nodeName, err)
	return s
}

// validate classifies the document from its raw bytes so layout cues reach
// the model. Any failure synthesizes a permissive verdict.
func (f *Flow) validate(ctx context.Context, state State) (State, error) {
	result, err := f.classifyPdf(ctx, state.PdfURL)
	if err != nil {
		logger.Error("Validation failed, treating document as recipe", zap.Error(err))
		state.ValidationResult = &recipe.ValidationResult{
			IsRecipe: true,
			Reason:   fmt.Sprintf("検証に失敗したため処理を続行します: %v", err),
		}
		return state, err
	}

	state.ValidationResult = result
	return state, nil
}

func (f *Flow) classifyPdf(ctx context.Context, url string) (*recipe.ValidationResult, error) {
	raw, err := f.pdfs.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	return async.Await(prompts.ValidateRecipePdf(ctx, f.chat, path.Base(url), raw))
}

func (f *Flow) download(ctx context.Context, state State) (State, error) {
	raw, err := f.pdfs.Download(ctx, state.PdfURL)
	if err != nil {
		return state, err
	}

	text, err := f.pdfs.ExtractText(raw)
	if err != nil {
		return state, err
	}

	logger.Info("Downloaded PDF", zap.String("url", state.PdfURL),
		zap.Int("bytes", len(raw)), zap.Int("textLength", len(text)))

	state.PdfContent = &recipe.PdfContent{RawBytes: raw, ExtractedText: text}
	return state, nil
}

func (f *Flow) split(ctx context.Context, state State) (State, error) {
	if state.PdfContent == nil {
		return state, fmt.Errorf("no pdf content to split")
	}

	segments := f.pdfs.Split(state.PdfContent.ExtractedText)
	logger.Info("Split document", zap.Int("segments", len(segments)))

	state.DocumentChunks = &recipe.DocumentChunks{
		OriginalText: state.PdfContent.ExtractedText,
		Segments:     segments,
	}
	return state, nil
}

// embed requests one vector per segment. A single failed segment is dropped,
// not fatal.
func (f *Flow) embed(ctx context.Context, state State) (State, error) {
	if state.DocumentChunks == nil {
		return state, fmt.Errorf("no document chunks to embed")
	}

	segments := state.DocumentChunks.Segments
	embeddings := make([]recipe.ChunkEmbedding, 0, len(segments))
	for i, seg := range segments {
		vector, err := f.embedder.Embed(ctx, seg)
		if err != nil {
			logger.Error("Skipping segment that failed to embed",
				zap.Int("segment", i), zap.Error(err))
			continue
		}
		embeddings = append(embeddings, recipe.ChunkEmbedding{ChunkText: seg, Vector: vector})
	}

	logger.Info("Embedded segments",
		zap.Int("total", len(segments)), zap.Int("embedded", len(embeddings)))

	state.EmbeddedChunks = &recipe.EmbeddedChunks{Segments: segments, Embeddings: embeddings}
	return state, nil
}

func (f *Flow) retrieveForEntity(ctx context.Context, state State) (State, error) {
	if state.EmbeddedChunks == nil || len(state.EmbeddedChunks.Embeddings) == 0 {
		logger.Info("No embedded chunks, skipping entity retrieval")
		state.RecipeRelevantSegments = []string{}
		return state, nil
	}

	segments, err := f.search(ctx, state.EmbeddedChunks, entityQuery, f.entityTopK)
	if err != nil {
		return state, err
	}

	state.RecipeRelevantSegments = segments
	return state, nil
}

func (f *Flow) extractEntity(ctx context.Context, state State) (State, error) {
	if len(state.RecipeRelevantSegments) == 0 {
		logger.Info("No relevant segments, skipping entity extraction")
		return state, nil
	}

	entity, err := async.Await(prompts.ExtractRecipeEntity(
		ctx, f.chat, strings.Join(state.RecipeRelevantSegments, "\n\n")))
	if err != nil {
		return state, err
	}

	state.ExtractedRecipe = entity
	return state, nil
}

// extractTime retrieves time-related segments and runs the tool-calling turn.
// The total is recomputed from the intercepted sum_minutes arguments; the
// model's prose is never trusted for the number.
func (f *Flow) extractTime(ctx context.Context, state State) (State, error) {
	if state.EmbeddedChunks == nil || len(state.EmbeddedChunks.Embeddings) == 0 {
		logger.Info("No embedded chunks, skipping cooking time analysis")
		return state, nil
	}

	segments, err := f.search(ctx, state.EmbeddedChunks, timeQuery, f.timeTopK)
	if err != nil {
		return state, err
	}
	if len(segments) == 0 {
		logger.Info("No time-related segments found")
		return state, nil
	}

	systemPrompt, userPrompt, err := prompts.RenderCookingTimePrompt(strings.Join(segments, "\n\n"))
	if err != nil {
		return state, err
	}

	available := []tools.MCPTool{tools.NewSumMinutesTool()}
	var captured []api.ToolCall
	err = f.chat.GenerateInferenceWithTools(ctx,
		[]llm.Message{{Role: "user", Content: userPrompt}},
		func(chunk string) error { return nil },
		func(toolCalls []api.ToolCall) error {
			captured = append(captured, toolCalls...)
			return nil
		},
		llm.WithSystemPrompt(systemPrompt),
		llm.WithTemperature(0.0),
		llm.WithTools(tools.ToAPITools(available)),
	)
	if err != nil {
		return state, err
	}

	total := tools.InterceptSumMinutes(ctx, available, captured)
	if total == nil {
		logger.Info("Model did not call sum_minutes, leaving cooking time unset")
		return state, nil
	}

	logger.Info("Computed total cooking time", zap.Float64("minutes", *total))
	state.TotalCookingMinutes = total
	return state, nil
}

func (f *Flow) finalize(ctx context.Context, state State) (State, error) {
	state.FinalResult = &recipe.ExtractionResult{
		Recipe:              state.ExtractedRecipe,
		TotalCookingMinutes: state.TotalCookingMinutes,
	}
	return state, nil
}

// notRecipeFinish produces the empty result for rejected documents, no
// matter what upstream fields hold.
func (f *Flow) notRecipeFinish(ctx context.Context, state State) (State, error) {
	reason := ""
	if state.ValidationResult != nil {
		reason = state.ValidationResult.Reason
	}
	logger.Info("Document is not a recipe", zap.String("reason", reason))

	state.FinalResult = &recipe.ExtractionResult{}
	return state, nil
}

// search builds an ephemeral index over the embedded chunks and returns the
// top-k segments for the query.
func (f *Flow) search(ctx context.Context, chunks *recipe.EmbeddedChunks, query string, k int) ([]string, error) {
	store := vectorstore.New(f.embedder)
	defer store.Release()

	for _, e := range chunks.Embeddings {
		store.Add(e.ChunkText, e.Vector)
	}

	return store.Search(ctx, query, k)
}

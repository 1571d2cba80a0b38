package prompts

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/recipe-flow/llm"
	"github.com/SaiNageswarS/recipe-flow/recipe"
	"go.uber.org/zap"
)

// ValidateRecipePdf asks the model whether the attached PDF is a cooking
// recipe. The raw document is sent as a file attachment so the model judges
// the original layout, not a lossy text extraction.
func ValidateRecipePdf(ctx context.Context, client llm.LLMClient, filename string, pdfBytes []byte) <-chan async.Result[*recipe.ValidationResult] {
	return async.Go(func() (*recipe.ValidationResult, error) {
		systemPrompt, err := loadPrompt("templates/validate_recipe_system.md", map[string]string{})
		if err != nil {
			logger.Error("Failed to load system prompt", zap.Error(err))
			return nil, err
		}

		userPrompt, err := loadPrompt("templates/validate_recipe_user.md", map[string]string{
			"FormatInstructions": ValidationResultSchema,
		})
		if err != nil {
			return nil, err
		}

		var sb strings.Builder
		err = client.GenerateInference(ctx,
			[]llm.Message{{Role: "user", Content: userPrompt}},
			func(chunk string) error {
				sb.WriteString(chunk)
				return nil
			},
			llm.WithSystemPrompt(systemPrompt),
			llm.WithTemperature(0.0),
			llm.WithFileAttachment(filename, pdfBytes),
		)
		if err != nil {
			logger.Error("Failed to generate inference", zap.Error(err))
			return nil, err
		}

		jsonStr, err := extractJSON(sb.String())
		if err != nil {
			logger.Error("Validation response is not JSON", zap.String("response", truncate(sb.String(), 200)))
			return nil, err
		}

		out := &recipe.ValidationResult{}
		if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
			return nil, err
		}

		logger.Info("Validated recipe PDF", zap.Bool("isRecipe", out.IsRecipe), zap.String("reason", out.Reason))
		return out, nil
	})
}

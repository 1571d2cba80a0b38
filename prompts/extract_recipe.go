package prompts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/recipe-flow/llm"
	"github.com/SaiNageswarS/recipe-flow/recipe"
	"go.uber.org/zap"
)

const maxExtractAttempts = 2

// retryBackoffBase scales the inter-attempt delay. Tests shrink it.
var retryBackoffBase = time.Second

// ExtractRecipeEntity pulls the recipe name and ingredient list out of the
// retrieved context. Output that fails schema validation gets one fixing pass
// per attempt and at most one fresh attempt after a backoff; transport errors
// are returned immediately. The result is never a partially valid entity.
func ExtractRecipeEntity(ctx context.Context, client llm.LLMClient, contextBlock string) <-chan async.Result[*recipe.Entity] {
	return async.Go(func() (*recipe.Entity, error) {
		userPrompt, err := loadPrompt("templates/extract_recipe_user.md", map[string]string{
			"FormatInstructions": RecipeEntitySchema,
			"Context":            contextBlock,
		})
		if err != nil {
			logger.Error("Failed to load extraction prompt", zap.Error(err))
			return nil, err
		}

		var lastErr error
		for attempt := 0; attempt < maxExtractAttempts; attempt++ {
			if attempt > 0 {
				if err := sleepWithJitter(ctx, attempt); err != nil {
					return nil, err
				}
				logger.Info("Retrying recipe extraction", zap.Int("attempt", attempt+1))
			}

			raw, err := generate(ctx, client, userPrompt)
			if err != nil {
				return nil, err
			}

			entity, parseErr := parseEntity(raw)
			if parseErr == nil {
				return entity, nil
			}
			lastErr = parseErr

			var schemaErr *SchemaValidationError
			if !errors.As(parseErr, &schemaErr) {
				return nil, parseErr
			}

			logger.Info("Extraction output failed validation, running fixing pass",
				zap.String("detail", schemaErr.Detail))

			entity, fixErr := fixEntityJSON(ctx, client, schemaErr)
			if fixErr == nil {
				return entity, nil
			}
			lastErr = fixErr
		}

		return nil, fmt.Errorf("recipe extraction failed after %d attempts: %w", maxExtractAttempts, lastErr)
	})
}

// fixEntityJSON sends the invalid output back to the model with the schema and
// the validation error, asking for a corrected object.
func fixEntityJSON(ctx context.Context, client llm.LLMClient, schemaErr *SchemaValidationError) (*recipe.Entity, error) {
	fixPrompt, err := loadPrompt("templates/fix_recipe_json_user.md", map[string]string{
		"Schema":    RecipeEntitySchema,
		"Error":     schemaErr.Detail,
		"RawOutput": schemaErr.RawOutput,
	})
	if err != nil {
		return nil, err
	}

	raw, err := generate(ctx, client, fixPrompt)
	if err != nil {
		return nil, err
	}

	return parseEntity(raw)
}

func generate(ctx context.Context, client llm.LLMClient, userPrompt string) (string, error) {
	var sb strings.Builder
	err := client.GenerateInference(ctx,
		[]llm.Message{{Role: "user", Content: userPrompt}},
		func(chunk string) error {
			sb.WriteString(chunk)
			return nil
		},
		llm.WithTemperature(0.0),
	)
	if err != nil {
		logger.Error("Failed to generate inference", zap.Error(err))
		return "", err
	}
	return sb.String(), nil
}

func parseEntity(response string) (*recipe.Entity, error) {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return nil, &SchemaValidationError{Detail: err.Error(), RawOutput: response}
	}

	if err := validateEntityJSON([]byte(jsonStr)); err != nil {
		return nil, err
	}

	out := &recipe.Entity{}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return nil, &SchemaValidationError{Detail: err.Error(), RawOutput: jsonStr}
	}
	return out, nil
}

func sleepWithJitter(ctx context.Context, attempt int) error {
	backoff := time.Duration(1<<attempt) * retryBackoffBase
	backoff += time.Duration(rand.Int64N(int64(retryBackoffBase) / 2))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}

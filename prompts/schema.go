package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RecipeEntitySchema is the JSON schema the extraction model must follow. It
// doubles as the format instructions embedded in the prompt and as the
// validation contract for the model's output.
const RecipeEntitySchema = `{
  "type": "object",
  "properties": {
    "name": {
      "type": "string",
      "description": "レシピ名（料理の名前）"
    },
    "ingredients": {
      "type": "array",
      "description": "材料リスト",
      "items": {
        "type": "object",
        "properties": {
          "name": {
            "type": "string",
            "description": "材料名"
          },
          "quantity": {
            "type": "number",
            "description": "数量"
          },
          "unit": {
            "type": "string",
            "description": "単位（グラム、個、本など）"
          }
        },
        "required": ["name", "quantity", "unit"]
      }
    }
  },
  "required": ["name", "ingredients"]
}`

// ValidationResultSchema is the format contract for the recipe-or-not check.
const ValidationResultSchema = `{
  "type": "object",
  "properties": {
    "is_recipe": {
      "type": "boolean",
      "description": "料理のレシピに関する内容かどうか"
    },
    "reason": {
      "type": "string",
      "description": "判断の理由（日本語）"
    }
  },
  "required": ["is_recipe", "reason"]
}`

// SchemaValidationError reports that well-formed JSON did not satisfy the
// recipe entity schema. Retryable with a fixing pass, unlike transport errors.
type SchemaValidationError struct {
	Detail    string
	RawOutput string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema validation failed: %s", e.Detail)
}

var (
	entitySchemaOnce sync.Once
	entitySchema     *jsonschema.Schema
	entitySchemaErr  error
)

func compiledEntitySchema() (*jsonschema.Schema, error) {
	entitySchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("recipe_entity.json", strings.NewReader(RecipeEntitySchema)); err != nil {
			entitySchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		entitySchema, entitySchemaErr = compiler.Compile("recipe_entity.json")
	})
	return entitySchema, entitySchemaErr
}

// validateEntityJSON checks raw JSON against the recipe entity schema.
// Malformed JSON and schema violations both come back as *SchemaValidationError.
func validateEntityJSON(data []byte) error {
	schema, err := compiledEntitySchema()
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &SchemaValidationError{Detail: err.Error(), RawOutput: string(data)}
	}
	if err := schema.Validate(v); err != nil {
		return &SchemaValidationError{Detail: err.Error(), RawOutput: string(data)}
	}
	return nil
}

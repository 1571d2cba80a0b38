package display

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/SaiNageswarS/recipe-flow/recipe"
)

// Displayer prints the extraction outcome as a human-readable report followed
// by the machine-readable JSON object.
type Displayer struct {
	out io.Writer
}

func New() *Displayer {
	return &Displayer{out: os.Stdout}
}

func NewWithWriter(out io.Writer) *Displayer {
	return &Displayer{out: out}
}

func (d *Displayer) Show(result *recipe.ExtractionResult) error {
	if result == nil {
		result = &recipe.ExtractionResult{}
	}

	d.printReport(result)
	return d.printJSON(result)
}

func (d *Displayer) printReport(result *recipe.ExtractionResult) {
	fmt.Fprintln(d.out, "=== 抽出結果 ===")

	if result.Recipe == nil {
		fmt.Fprintln(d.out, "レシピ: なし")
	} else {
		fmt.Fprintf(d.out, "レシピ名: %s\n", result.Recipe.Name)
		fmt.Fprintln(d.out, "材料:")
		for _, ing := range result.Recipe.Ingredients {
			fmt.Fprintf(d.out, "  - %s: %g %s\n", ing.Name, ing.Quantity, ing.Unit)
		}
	}

	if result.TotalCookingMinutes == nil {
		fmt.Fprintln(d.out, "合計調理時間: 不明")
	} else {
		fmt.Fprintf(d.out, "合計調理時間: %g分\n", *result.TotalCookingMinutes)
	}

	fmt.Fprintln(d.out)
}

func (d *Displayer) printJSON(result *recipe.ExtractionResult) error {
	enc := json.NewEncoder(d.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(toOutputShape(result))
}

// The recipe key is always an object: a run without an extracted entity
// reports a null name and an empty ingredient list, never "recipe": null.
type recipeOutput struct {
	Name        *string             `json:"name"`
	Ingredients []recipe.Ingredient `json:"ingredients"`
}

type resultOutput struct {
	Recipe              recipeOutput `json:"recipe"`
	TotalCookingMinutes *float64     `json:"total_cooking_minutes"`
}

func toOutputShape(result *recipe.ExtractionResult) resultOutput {
	out := resultOutput{
		Recipe:              recipeOutput{Ingredients: []recipe.Ingredient{}},
		TotalCookingMinutes: result.TotalCookingMinutes,
	}

	if result.Recipe != nil {
		name := result.Recipe.Name
		out.Recipe.Name = &name
		if len(result.Recipe.Ingredients) > 0 {
			out.Recipe.Ingredients = result.Recipe.Ingredients
		}
	}

	return out
}

package prompts

// RenderCookingTimePrompt builds the system and user prompts for the cooking
// time analysis turn. The model is instructed to report durations only through
// the sum_minutes tool.
func RenderCookingTimePrompt(contextBlock string) (systemPrompt, userPrompt string, err error) {
	systemPrompt, err = loadPrompt("templates/cooking_time_system.md", map[string]string{})
	if err != nil {
		return "", "", err
	}

	userPrompt, err = loadPrompt("templates/cooking_time_user.md", map[string]string{
		"Context": contextBlock,
	})
	if err != nil {
		return "", "", err
	}

	return systemPrompt, userPrompt, nil
}

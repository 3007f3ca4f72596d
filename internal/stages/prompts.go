package stages

import "fmt"

const feedbackTemplate = "Your previous output was invalid.\nError: %s\n\n" +
	"Please output ONLY valid JSON that matches the required schema.\n" +
	"Do not include markdown fences or any extra text."

const stage3FeedbackTemplate = "Your previous output failed to parse/validate/execute.\nError: %s\n\n" +
	"Please output ONLY valid JSON that matches the required schema.\n" +
	"Do not include markdown fences or any extra text."

func feedbackPrompt(err error) string {
	return fmt.Sprintf(feedbackTemplate, err)
}

func stage3FeedbackPrompt(err error) string {
	return fmt.Sprintf(stage3FeedbackTemplate, err)
}

func objectiveIdentificationPrompt(frameCount int, variant string) string {
	return fmt.Sprintf(
		"Examine the %d attached frames. Describe each frame in detail, "+
			"identify any spatial or logical relations between frames, and infer "+
			"the overall solving objective.\n\n"+
			"Respond with JSON: {\"descriptions\": [string, ...], "+
			"\"relations\": [{\"from\": int, \"to\": int|null, \"relationship\": string}, ...], "+
			"\"objective\": string}.%s",
		frameCount, variantHint(variant),
	)
}

func structureAbstractionPrompt(descriptions, relations []string, objective, variant string) string {
	return fmt.Sprintf(
		"Frame descriptions:\n%s\n\nFrame relations:\n%s\n\nObjective: %s\n\n"+
			"Annotate which frames or elements are interactable by emitting a sequence "+
			"of actions (set_frame, split_frame, grid_frame, get_element), each tagged "+
			"with the interactable type it produces. Respond with JSON: "+
			"{\"actions\": [{\"type\": string, \"frame\": int, ...}, ...]}.%s",
		joinOrNone(descriptions), joinOrNone(relations), objective, variantHint(variant),
	)
}

func solutionCompositionPrompt(descriptions, relations []string, objective string, actionTools, visionTools []string, variant string) string {
	return fmt.Sprintf(
		"Frame descriptions:\n%s\n\nFrame relations:\n%s\n\nObjective: %s\n\n"+
			"Available action tools:\n%s\n\nAvailable vision tools:\n%s\n\n"+
			"Compose a restricted JSON program of steps (call, call_method, assign, "+
			"foreach, if, break) using only the tools and methods named above. "+
			"Respond with JSON: {\"steps\": [...]}.%s",
		joinOrNone(descriptions), joinOrNone(relations), objective,
		joinOrNone(actionTools), joinOrNone(visionTools), variantHint(variant),
	)
}

// variantHint renders the prompt-template variant internal/routing's
// SessionRouter selected for this benchmark kind/attempt as a trailing
// instruction line, or "" when no variant applies.
func variantHint(variant string) string {
	if variant == "" {
		return ""
	}
	return "\n\nPrompt variant: " + variant
}

func joinOrNone(lines []string) string {
	if len(lines) == 0 {
		return "(none)"
	}
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

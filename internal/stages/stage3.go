package stages

import (
	"context"
	"fmt"

	halAgent "github.com/halligan-ai/halligan/internal/agent"
	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/haligerr"
	"github.com/halligan-ai/halligan/internal/interp"
	"github.com/halligan-ai/halligan/internal/jsonx"
	"github.com/halligan-ai/halligan/internal/stage3"
	"github.com/halligan-ai/halligan/internal/telemetry"
)

// actionToolDescriptions and visionToolDescriptions document the fixed
// action/vision tool surface offered to the model; they mirror the names
// registered into the ExecutionContext's Registry by internal/tools.
var actionToolDescriptions = []string{
	"click(target)", "get_all_choices(prev_arrow, next_arrow, observe)", "drag(start, end)",
	"slide_x(handle, direction, observe_frame)", "slide_y(handle, direction, observe_frame)",
	"explore(grid)", "select(choice)", "point(to)", "enter(field, text)", "draw(path)",
}

var visionToolDescriptions = []string{
	"mark(images, object)", "focus(image, description)", "ask(images, question, answer_type)",
	"compare(images, task_objective, reference)", "rank(images, task_objective)", "match(e1, e2)",
}

// SolutionComposition drives the agent through Stage 3: compose and execute
// a restricted JSON program using the tools and methods in ec.Registry. Up
// to 4 attempts, re-prompting with feedback. The agent's history is reset
// both before issuing the next prompt and before executing the returned
// program, keeping the vision tools' own agent calls (driven through
// ec.Agent) isolated from the stage's own prompt/response history.
func SolutionComposition(ctx context.Context, ec ExecutionContext, frames []frame.Frame, objective string) error {
	return telemetry.TraceSection(ctx, "Solution Composition", func(ctx context.Context) error {
		images := make([]halAgent.Image, len(frames))
		descriptions := make([]string, len(frames))
		for i, f := range frames {
			images[i] = halAgent.Image{Caption: fmt.Sprintf("Frame %d", i), Data: f.Image()}
			descriptions[i] = f.Description()
		}

		prompt := solutionCompositionPrompt(descriptions, relationLines(frames), objective, actionToolDescriptions, visionToolDescriptions, ec.PromptVariant)
		budget := newRetryBudget(4)
		var lastErr error

		for budget.Remaining() > 0 {
			ec.Agent.Reset()

			response, _, err := ec.Agent.Call(ctx, prompt, images)
			if err != nil {
				return err
			}

			program, err := parseAndValidateStage3(response)
			if err == nil {
				ec.Agent.Reset()
				if err := interp.Execute(ctx, frames, program, ec.Registry); err != nil {
					if !haligerr.IsRetryable(err) {
						ec.Agent.Reset()
						return err
					}
					lastErr = err
					prompt = stage3FeedbackPrompt(err)
					budget.UseRetry()
					continue
				}
				ec.Agent.Reset()
				return nil
			}

			if !haligerr.IsRetryable(err) {
				ec.Agent.Reset()
				return err
			}
			lastErr = err
			prompt = stage3FeedbackPrompt(err)
			budget.UseRetry()
		}

		ec.Agent.Reset()
		if lastErr == nil {
			lastErr = fmt.Errorf("stage 3 failed without a captured error")
		}
		return lastErr
	})
}

func parseAndValidateStage3(response string) (*stage3.Program, error) {
	data, err := jsonx.ParseObject(response)
	if err != nil {
		return nil, err
	}
	return stage3.Validate(data)
}

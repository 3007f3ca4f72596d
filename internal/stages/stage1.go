package stages

import (
	"context"
	"fmt"

	halAgent "github.com/halligan-ai/halligan/internal/agent"
	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/haligerr"
	"github.com/halligan-ai/halligan/internal/jsonx"
	"github.com/halligan-ai/halligan/internal/stage1"
	"github.com/halligan-ai/halligan/internal/telemetry"
)

// ObjectiveIdentification drives the agent through Stage 1: describe every
// frame, relate them to each other, and infer the solving objective. On
// success it writes descriptions and relations onto the frames in place and
// returns the inferred objective. Up to 3 attempts, re-prompting with the
// previous error as feedback on each retry.
func ObjectiveIdentification(ctx context.Context, a halAgent.Agent, frames []frame.Frame, variant string) (string, error) {
	var objective string
	err := telemetry.TraceSection(ctx, "Objective Identification", func(ctx context.Context) error {
		images := make([]halAgent.Image, len(frames))
		for i, f := range frames {
			images[i] = halAgent.Image{Caption: fmt.Sprintf("Frame %d", i), Data: f.Image()}
		}

		prompt := objectiveIdentificationPrompt(len(frames), variant)
		budget := newRetryBudget(3)
		var lastErr error

		for budget.Remaining() > 0 {
			response, _, err := a.Call(ctx, prompt, images)
			if err != nil {
				return err
			}

			result, err := parseAndValidateStage1(response, len(frames))
			if err == nil {
				for i, desc := range result.Descriptions {
					frames[i].SetDescription(desc)
				}
				for _, rel := range result.Relations {
					frames[rel.Src].SetRelation(rel.Dst, rel.HasDst, rel.Relationship)
				}
				a.Reset()
				objective = result.Objective
				return nil
			}

			if !haligerr.IsRetryable(err) {
				a.Reset()
				return err
			}
			a.Reset()
			lastErr = err
			prompt = feedbackPrompt(err)
			budget.UseRetry()
		}

		a.Reset()
		if lastErr == nil {
			lastErr = fmt.Errorf("stage 1 failed without a captured error")
		}
		return lastErr
	})
	return objective, err
}

func parseAndValidateStage1(response string, frameCount int) (*stage1.Result, error) {
	data, err := jsonx.ParseObject(response)
	if err != nil {
		return nil, err
	}
	return stage1.Validate(data, frameCount)
}

package stages

import (
	"context"
	"fmt"

	halAgent "github.com/halligan-ai/halligan/internal/agent"
	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/haligerr"
	"github.com/halligan-ai/halligan/internal/jsonx"
	"github.com/halligan-ai/halligan/internal/stage2"
	"github.com/halligan-ai/halligan/internal/stage2apply"
	"github.com/halligan-ai/halligan/internal/telemetry"
)

// StructureAbstraction drives the agent through Stage 2: annotate which
// frames/elements are interactable. On success every annotation is applied
// directly to frames. Up to 3 attempts, re-prompting with feedback.
func StructureAbstraction(ctx context.Context, a halAgent.Agent, frames []frame.Frame, objective, variant string) error {
	return telemetry.TraceSection(ctx, "Structure Abstraction", func(ctx context.Context) error {
		images := make([]halAgent.Image, len(frames))
		descriptions := make([]string, len(frames))
		for i, f := range frames {
			images[i] = halAgent.Image{Caption: fmt.Sprintf("Frame %d", i), Data: f.Image()}
			descriptions[i] = f.Description()
		}

		prompt := structureAbstractionPrompt(descriptions, relationLines(frames), objective, variant)
		budget := newRetryBudget(3)
		var lastErr error

		for budget.Remaining() > 0 {
			response, _, err := a.Call(ctx, prompt, images)
			if err != nil {
				return err
			}

			plan, err := parseAndValidateStage2(response, len(frames))
			if err == nil {
				if err := stage2apply.Apply(frames, plan); err != nil {
					if !haligerr.IsRetryable(err) {
						a.Reset()
						return err
					}
					a.Reset()
					lastErr = err
					prompt = feedbackPrompt(err)
					budget.UseRetry()
					continue
				}
				a.Reset()
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
			lastErr = fmt.Errorf("stage 2 failed without a captured error")
		}
		return lastErr
	})
}

func parseAndValidateStage2(response string, frameCount int) (*stage2.Plan, error) {
	data, err := jsonx.ParseObject(response)
	if err != nil {
		return nil, err
	}
	return stage2.Validate(data, frameCount)
}

func relationLines(frames []frame.Frame) []string {
	var out []string
	for _, f := range frames {
		for dstID := range frames {
			if rel, ok := f.Relation(dstID); ok {
				out = append(out, fmt.Sprintf("frame %d %s frame %d", f.ID(), rel, dstID))
			}
		}
	}
	return out
}

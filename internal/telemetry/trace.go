// Package telemetry wraps stage and agent calls with structured, timed
// logging. Go has no decorator syntax, so the original Python implementation's
// @Trace.section(...)/@Trace.agent() annotations become higher-order
// functions that wrap a unit of work.
package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TraceSection runs fn, logging its duration and outcome under name. Stage
// orchestrators wrap their whole build->call->parse->validate->apply retry
// loop, all attempts included, in one of these.
func TraceSection(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	evt := log.Info()
	if err != nil {
		evt = log.Warn().Err(err)
	}
	evt.Str("section", name).Dur("elapsed", time.Since(start)).Msg("section complete")
	return err
}

// TraceAgentCall runs fn, logging prompt size and response metadata. name
// identifies the calling stage for log correlation.
func TraceAgentCall(ctx context.Context, name string, promptLen int, fn func(context.Context) (string, map[string]any, error)) (string, map[string]any, error) {
	start := time.Now()
	resp, meta, err := fn(ctx)

	evt := log.Info()
	if err != nil {
		evt = log.Error().Err(err)
	}
	evt = evt.Str("agent_call", name).Int("prompt_len", promptLen).Dur("elapsed", time.Since(start))
	if meta != nil {
		evt = withMetadataFields(evt, meta)
	}
	evt.Msg("agent call complete")

	return resp, meta, err
}

func withMetadataFields(evt *zerolog.Event, meta map[string]any) *zerolog.Event {
	for k, v := range meta {
		evt = evt.Interface(k, v)
	}
	return evt
}

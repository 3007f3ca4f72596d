// Package benchmarksolver implements the benchmarkapi.Solver interface,
// fetching a named CAPTCHA challenge's images from the configured benchmark
// endpoint and driving them through the three-stage core, broadcasting
// StageEvents over a wsstream.Hub as it goes — the Go analogue of the
// original implementation's benchmark/apis Flask routes, which fetch a
// challenge, hand it to the solving agent, and record the outcome.
package benchmarksolver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/halligan-ai/halligan/internal/agent"
	"github.com/halligan-ai/halligan/internal/benchmarkapi"
	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/routing"
	"github.com/halligan-ai/halligan/internal/runtimeconfig"
	"github.com/halligan-ai/halligan/internal/sessionstore"
	"github.com/halligan-ai/halligan/internal/stages"
	"github.com/halligan-ai/halligan/internal/toolregistry"
	"github.com/halligan-ai/halligan/internal/wsstream"
)

// defaultRouter selects the prompt-template variant Stage 1-3 prompts get
// appended with, keyed on the benchmark kind/attempt being solved. Rules are
// tried in order: the kaleidoscope kind gets its own variant on the first
// attempt and kaleidoscope_retry afterwards, any other kind gets "retry" on
// later attempts, and only another kind's first attempt uses the default
// template unmodified.
func defaultRouter() *routing.SessionRouter {
	return routing.NewSessionRouter([]routing.Rule{
		{Condition: `kind == "kaleidoscope" && attempt > 0`, Variant: "kaleidoscope_retry"},
		{Condition: `kind == "kaleidoscope"`, Variant: "kaleidoscope"},
		{Condition: `attempt > 0`, Variant: "retry"},
	}, "default")
}

var _ benchmarkapi.Solver = (*Solver)(nil)

// challengeResponse is the benchmark endpoint's wire shape: a named
// challenge kind resolves to a set of base64-encoded frame images. The
// original Flask routes for this endpoint were not present in the
// retrieved source (see DESIGN.md), so this shape is a reasonable
// reconstruction rather than a direct port.
type challengeResponse struct {
	Images []string `json:"images"`
}

// Solver fetches challenge images by kind and drives them through
// ObjectiveIdentification -> StructureAbstraction -> SolutionComposition,
// publishing StageEvents for a connected dashboard to observe.
type Solver struct {
	Config   *runtimeconfig.Config
	Agent    agent.Agent
	Registry *toolregistry.Registry
	Hub      *wsstream.Hub
	HTTP     *http.Client

	// Router selects the stage prompt-template variant for a given kind and
	// attempt number. Defaults to defaultRouter() in NewSolver.
	Router *routing.SessionRouter

	mu       sync.Mutex
	attempts map[string]int
}

// NewSolver constructs a Solver whose HTTP field is a 30s-timeout client.
func NewSolver(cfg *runtimeconfig.Config, a agent.Agent, registry *toolregistry.Registry, hub *wsstream.Hub) *Solver {
	return &Solver{
		Config:   cfg,
		Agent:    a,
		Registry: registry,
		Hub:      hub,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
		Router:   defaultRouter(),
		attempts: make(map[string]int),
	}
}

// nextAttempt returns this kind's 0-indexed attempt number and records that
// one more solve of it has started, so repeated benchmark runs of the same
// kind route to a different prompt variant (e.g. after a prior failure).
func (s *Solver) nextAttempt(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt := s.attempts[kind]
	s.attempts[kind] = attempt + 1
	return attempt
}

// promptVariant asks Router which prompt-template variant this kind/attempt
// pair should use, falling back to no variant if routing itself fails (a
// malformed rule should degrade the prompt, not the solve).
func (s *Solver) promptVariant(kind string, attempt int) string {
	if s.Router == nil {
		return ""
	}
	variant, err := s.Router.Route(map[string]any{"kind": kind, "attempt": attempt})
	if err != nil {
		return ""
	}
	if variant == "default" {
		return ""
	}
	return variant
}

// Solve fetches the named challenge kind, drives it through all three
// stages, and returns the completed SessionRecord. A stage failure is
// reported as a failed record rather than propagated, so the caller (the
// benchmarkapi REST handler) always has a record to persist.
func (s *Solver) Solve(ctx context.Context, kind string) (*sessionstore.SessionRecord, error) {
	record := &sessionstore.SessionRecord{
		ID:        uuid.New(),
		Kind:      kind,
		Status:    sessionstore.StatusRunning,
		StartedAt: time.Now(),
	}
	sessionID := record.ID.String()

	images, err := s.fetchChallenge(ctx, kind)
	if err != nil {
		return s.fail(record, err), nil
	}

	frames := frame.NewArena(images).Frames()
	attempt := s.nextAttempt(kind)
	variant := s.promptVariant(kind, attempt)

	err = s.runStage(ctx, sessionID, "objective_identification", func() error {
		objective, err := stages.ObjectiveIdentification(ctx, s.Agent, frames, variant)
		if err == nil {
			record.Objective = objective
		}
		return err
	})
	if err != nil {
		return s.fail(record, err), nil
	}

	err = s.runStage(ctx, sessionID, "structure_abstraction", func() error {
		return stages.StructureAbstraction(ctx, s.Agent, frames, record.Objective, variant)
	})
	if err != nil {
		return s.fail(record, err), nil
	}

	execCtx := stages.ExecutionContext{Agent: s.Agent, Config: s.Config, Registry: s.Registry, PromptVariant: variant}
	err = s.runStage(ctx, sessionID, "solution_composition", func() error {
		return stages.SolutionComposition(ctx, execCtx, frames, record.Objective)
	})
	if err != nil {
		return s.fail(record, err), nil
	}

	finished := time.Now()
	record.Status = sessionstore.StatusSolved
	record.FinishedAt = &finished
	s.publish(sessionID, wsstream.EventSessionSolved, "", 0)
	return record, nil
}

// runStage broadcasts a stage-started event, runs fn, and broadcasts
// stage-finished (or the error, via fail's caller) before returning.
func (s *Solver) runStage(ctx context.Context, sessionID, stage string, fn func() error) error {
	start := time.Now()
	s.publishStage(sessionID, wsstream.EventStageStarted, stage, "")
	err := fn()
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		s.publishStageWithDuration(sessionID, wsstream.EventStageFinished, stage, err.Error(), elapsed)
		return err
	}
	s.publishStageWithDuration(sessionID, wsstream.EventStageFinished, stage, "", elapsed)
	return nil
}

func (s *Solver) fail(record *sessionstore.SessionRecord, err error) *sessionstore.SessionRecord {
	finished := time.Now()
	record.Status = sessionstore.StatusFailed
	record.ErrorMsg = err.Error()
	record.FinishedAt = &finished
	s.publish(record.ID.String(), wsstream.EventSessionFailed, err.Error(), 0)
	return record
}

func (s *Solver) publish(sessionID, eventType, errMsg string, durationMs int64) {
	if s.Hub == nil {
		return
	}
	ev := wsstream.NewStageEvent(eventType, sessionID)
	ev.Error = errMsg
	ev.DurationMs = durationMs
	s.Hub.Broadcast(sessionID, ev)
}

func (s *Solver) publishStage(sessionID, eventType, stage, errMsg string) {
	s.publishStageWithDuration(sessionID, eventType, stage, errMsg, 0)
}

func (s *Solver) publishStageWithDuration(sessionID, eventType, stage, errMsg string, durationMs int64) {
	if s.Hub == nil {
		return
	}
	ev := wsstream.NewStageEvent(eventType, sessionID)
	ev.Stage = stage
	ev.Error = errMsg
	ev.DurationMs = durationMs
	s.Hub.Broadcast(sessionID, ev)
}

// fetchChallenge retrieves and decodes the named kind's frame images from
// the configured benchmark HTTP endpoint.
func (s *Solver) fetchChallenge(ctx context.Context, kind string) ([]image.Image, error) {
	url := fmt.Sprintf("%s/%s", s.Config.BenchmarkHTTPURL, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build challenge request: %w", err)
	}

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch challenge %q: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch challenge %q: unexpected status %d", kind, resp.StatusCode)
	}

	var decoded challengeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode challenge %q response: %w", kind, err)
	}
	if len(decoded.Images) == 0 {
		return nil, fmt.Errorf("challenge %q returned no images", kind)
	}

	images := make([]image.Image, 0, len(decoded.Images))
	for i, encoded := range decoded.Images {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode challenge %q image %d: %w", kind, i, err)
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decode challenge %q image %d: %w", kind, i, err)
		}
		images = append(images, img)
	}
	return images, nil
}

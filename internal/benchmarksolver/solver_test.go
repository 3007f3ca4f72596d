package benchmarksolver

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	halAgent "github.com/halligan-ai/halligan/internal/agent"
	"github.com/halligan-ai/halligan/internal/runtimeconfig"
	"github.com/halligan-ai/halligan/internal/sessionstore"
	"github.com/halligan-ai/halligan/internal/toolregistry"
)

// scriptedAgent returns one canned response per call and repeats the last
// entry once exhausted (internal/tools/tools_test.go's stubAgent has the
// same shape but does not repeat).
type scriptedAgent struct {
	responses []string
	calls     int
	prompts   []string
}

func (a *scriptedAgent) Call(ctx context.Context, prompt string, images []halAgent.Image) (string, halAgent.Metadata, error) {
	a.prompts = append(a.prompts, prompt)
	i := a.calls
	if i >= len(a.responses) {
		i = len(a.responses) - 1
	}
	a.calls++
	return a.responses[i], halAgent.Metadata{}, nil
}

func (a *scriptedAgent) Reset() {}

func pngDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestSolveDrivesAllThreeStagesToCompletion(t *testing.T) {
	encoded := pngDataURI(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/yandex/rotate", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"images":["` + encoded + `"]}`))
	}))
	defer ts.Close()

	cfg := &runtimeconfig.Config{BenchmarkHTTPURL: ts.URL}
	agent := &scriptedAgent{responses: []string{
		`{"descriptions":["a rotated gear"],"relations":[],"objective":"rotate the gear upright"}`,
		`{"actions":[{"type":"set_frame","frame":0,"interactable":"CLICKABLE"}]}`,
		`{"steps":[]}`,
	}}
	registry := toolregistry.New()

	solver := NewSolver(cfg, agent, registry, nil)
	record, err := solver.Solve(context.Background(), "yandex/rotate")
	require.NoError(t, err)
	assert.Equal(t, sessionstore.StatusSolved, record.Status)
	assert.Equal(t, "rotate the gear upright", record.Objective)
	assert.NotNil(t, record.FinishedAt)
}

func TestSolveRoutesKaleidoscopeKindToVariantPrompt(t *testing.T) {
	encoded := pngDataURI(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"images":["` + encoded + `"]}`))
	}))
	defer ts.Close()

	cfg := &runtimeconfig.Config{BenchmarkHTTPURL: ts.URL}
	agent := &scriptedAgent{responses: []string{
		`{"descriptions":["a tile"],"relations":[],"objective":"complete the pattern"}`,
		`{"actions":[{"type":"set_frame","frame":0,"interactable":"CLICKABLE"}]}`,
		`{"steps":[]}`,
	}}
	registry := toolregistry.New()

	solver := NewSolver(cfg, agent, registry, nil)
	record, err := solver.Solve(context.Background(), "kaleidoscope")
	require.NoError(t, err)
	assert.Equal(t, sessionstore.StatusSolved, record.Status)
	require.NotEmpty(t, agent.prompts)
	assert.Contains(t, agent.prompts[0], "Prompt variant: kaleidoscope")
}

func TestSolveRoutesRetryAttemptToRetryVariant(t *testing.T) {
	encoded := pngDataURI(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"images":["` + encoded + `"]}`))
	}))
	defer ts.Close()

	cfg := &runtimeconfig.Config{BenchmarkHTTPURL: ts.URL}
	registry := toolregistry.New()
	solver := NewSolver(cfg, &scriptedAgent{responses: []string{
		`{"descriptions":["a"],"relations":[],"objective":"x"}`,
		`{"actions":[{"type":"set_frame","frame":0,"interactable":"CLICKABLE"}]}`,
		`{"steps":[]}`,
	}}, registry, nil)

	_, err := solver.Solve(context.Background(), "yandex/text")
	require.NoError(t, err)

	agent := &scriptedAgent{responses: []string{
		`{"descriptions":["a"],"relations":[],"objective":"x"}`,
		`{"actions":[{"type":"set_frame","frame":0,"interactable":"CLICKABLE"}]}`,
		`{"steps":[]}`,
	}}
	solver.Agent = agent
	record, err := solver.Solve(context.Background(), "yandex/text")
	require.NoError(t, err)
	assert.Equal(t, sessionstore.StatusSolved, record.Status)
	require.NotEmpty(t, agent.prompts)
	assert.Contains(t, agent.prompts[0], "Prompt variant: retry")
}

func TestSolveFailsWhenChallengeFetchErrors(t *testing.T) {
	cfg := &runtimeconfig.Config{BenchmarkHTTPURL: "http://127.0.0.1:1"}
	agent := &scriptedAgent{responses: []string{""}}
	registry := toolregistry.New()

	solver := NewSolver(cfg, agent, registry, nil)
	record, err := solver.Solve(context.Background(), "yandex/rotate")
	require.NoError(t, err)
	assert.Equal(t, sessionstore.StatusFailed, record.Status)
	assert.NotEmpty(t, record.ErrorMsg)
}

func TestSolveFailsWhenChallengeHasNoImages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"images":[]}`))
	}))
	defer ts.Close()

	cfg := &runtimeconfig.Config{BenchmarkHTTPURL: ts.URL}
	agent := &scriptedAgent{responses: []string{""}}
	registry := toolregistry.New()

	solver := NewSolver(cfg, agent, registry, nil)
	record, err := solver.Solve(context.Background(), "yandex/text")
	require.NoError(t, err)
	assert.Equal(t, sessionstore.StatusFailed, record.Status)
	assert.True(t, strings.Contains(record.ErrorMsg, "no images"))
}

// Package tools provides the default action and vision tools registered
// into a toolregistry.Registry: action tools drive a browser session over
// HTTP (mirroring the teacher's plain net/http client idiom), vision tools
// drive the solving Agent for sub-queries the core itself never answers
// (recognition, ranking, comparison) per spec.md's "vision tools are agent
// calls, not core logic" design.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/haligerr"
)

const defaultBrowserTimeout = 15 * time.Second

// BrowserClient implements frame.Driver and the ten action tools by issuing
// JSON HTTP requests against a browser automation endpoint. No original
// action_tools.py source was retrieved for this pack (only vision_tools.py
// was kept in original_source/), so request shapes are designed fresh
// against the fixed action-tool signature list recovered from stage3.py and
// the teacher's http.NewRequestWithContext + json.Marshal/Unmarshal idiom.
type BrowserClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewBrowserClient constructs a BrowserClient pointed at baseURL (typically
// runtimeconfig.Config.BrowserURL).
func NewBrowserClient(baseURL string) *BrowserClient {
	return &BrowserClient{BaseURL: baseURL, HTTP: &http.Client{Timeout: defaultBrowserTimeout}}
}

func (b *BrowserClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return haligerr.NewToolError("encode request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return haligerr.NewToolError("build browser request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.HTTP.Do(req)
	if err != nil {
		return haligerr.NewToolError(fmt.Sprintf("browser request to %s failed", path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return haligerr.NewToolError(fmt.Sprintf("browser request to %s returned status %d", path, resp.StatusCode), nil)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return haligerr.NewToolError(fmt.Sprintf("decode response from %s", path), err)
	}
	return nil
}

// Click satisfies frame.Driver by POSTing a click at the named target.
func (b *BrowserClient) Click(ctx context.Context, target string) error {
	return b.post(ctx, "/actions/click", map[string]any{"target": target}, nil)
}

// Drag satisfies frame.Driver by POSTing a drag from start to end.
func (b *BrowserClient) Drag(ctx context.Context, start, end string) error {
	return b.post(ctx, "/actions/drag", map[string]any{"start": start, "end": end}, nil)
}

// SlideTo satisfies frame.Driver by POSTing a slider move or release.
func (b *BrowserClient) SlideTo(ctx context.Context, handle, direction string) error {
	return b.post(ctx, "/actions/slide", map[string]any{"handle": handle, "direction": direction}, nil)
}

// Swap satisfies frame.Driver by POSTing a swap of two elements.
func (b *BrowserClient) Swap(ctx context.Context, a, bTarget string) error {
	return b.post(ctx, "/actions/swap", map[string]any{"a": a, "b": bTarget}, nil)
}

// click(target) brings up a clickable element by its position string.
func (b *BrowserClient) click(ctx context.Context, args map[string]any) (any, error) {
	target, err := stringArg(args, "target")
	if err != nil {
		return nil, err
	}
	return nil, b.Click(ctx, target)
}

type choiceDTO struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	A     string `json:"a"`
	B     string `json:"b"`
	Label string `json:"label"`
}

// getAllChoices(prev_arrow, next_arrow, observe) enumerates the currently
// selectable/swappable/draggable elements, returning one *frame.Choice
// value per element, tagged by kind.
func (b *BrowserClient) getAllChoices(ctx context.Context, args map[string]any) (any, error) {
	prevArrow, _ := args["prev_arrow"].(string)
	nextArrow, _ := args["next_arrow"].(string)
	observe, _ := args["observe"].(string)

	var resp struct {
		Choices []choiceDTO `json:"choices"`
	}
	err := b.post(ctx, "/actions/choices", map[string]any{
		"prev_arrow": prevArrow, "next_arrow": nextArrow, "observe": observe,
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		switch c.Kind {
		case "select":
			out = append(out, frame.NewSelectChoice(c.ID, c.Label, b))
		case "swap":
			out = append(out, frame.NewSwapChoice(c.A, c.B, b))
		case "slide":
			out = append(out, frame.NewSlideChoice(c.ID, b))
		case "drag":
			out = append(out, frame.NewDragChoice(c.A, c.B, b))
		default:
			out = append(out, frame.NewChoice(c.ID, b))
		}
	}
	return out, nil
}

// drag(start, end) performs an immediate drag-and-drop.
func (b *BrowserClient) drag(ctx context.Context, args map[string]any) (any, error) {
	start, err := stringArg(args, "start")
	if err != nil {
		return nil, err
	}
	end, err := stringArg(args, "end")
	if err != nil {
		return nil, err
	}
	return nil, b.Drag(ctx, start, end)
}

// draw(path) draws a freehand stroke through a sequence of keypoint
// coordinates, used by trace/connect-the-dots puzzles.
func (b *BrowserClient) draw(ctx context.Context, args map[string]any) (any, error) {
	rawPath, ok := args["path"].([]any)
	if !ok {
		return nil, haligerr.NewToolError("draw: missing path argument", nil)
	}
	return nil, b.post(ctx, "/actions/draw", map[string]any{"path": rawPath}, nil)
}

// enter(field, text) types text into a named input field.
func (b *BrowserClient) enter(ctx context.Context, args map[string]any) (any, error) {
	field, err := stringArg(args, "field")
	if err != nil {
		return nil, err
	}
	text, err := stringArg(args, "text")
	if err != nil {
		return nil, err
	}
	return nil, b.post(ctx, "/actions/enter", map[string]any{"field": field, "text": text}, nil)
}

// point(to) picks up a pointable target, returning a held *frame.Choice
// that must later be released.
func (b *BrowserClient) point(ctx context.Context, args map[string]any) (any, error) {
	to, err := stringArg(args, "to")
	if err != nil {
		return nil, err
	}
	return frame.NewChoice(to, b), b.post(ctx, "/actions/point", map[string]any{"to": to}, nil)
}

// select(choice) confirms the final answer for a single-choice puzzle.
func (b *BrowserClient) selectFinal(ctx context.Context, args map[string]any) (any, error) {
	choice, err := stringArg(args, "choice")
	if err != nil {
		return nil, err
	}
	return nil, b.Click(ctx, choice)
}

// slideX(handle, direction, observe_frame) / slideY mirror Refine but are
// issued directly as tools rather than through a held SlideChoice, for
// programs that never call get_all_choices first.
func (b *BrowserClient) slideX(ctx context.Context, args map[string]any) (any, error) {
	return b.slide(ctx, args, "x")
}

func (b *BrowserClient) slideY(ctx context.Context, args map[string]any) (any, error) {
	return b.slide(ctx, args, "y")
}

func (b *BrowserClient) slide(ctx context.Context, args map[string]any, axis string) (any, error) {
	handle, err := stringArg(args, "handle")
	if err != nil {
		return nil, err
	}
	direction, err := stringArg(args, "direction")
	if err != nil {
		return nil, err
	}
	observeFrame, _ := args["observe_frame"].(bool)
	return nil, b.post(ctx, "/actions/slide_axis", map[string]any{
		"handle": handle, "direction": direction, "axis": axis, "observe_frame": observeFrame,
	}, nil)
}

// explore(grid) requests a fresh screenshot/observation of a grid frame
// without performing any action, used when a program needs to re-observe
// state mid-solve.
func (b *BrowserClient) explore(ctx context.Context, args map[string]any) (any, error) {
	grid, _ := args["grid"].(string)
	return nil, b.post(ctx, "/actions/explore", map[string]any{"grid": grid}, nil)
}

// Command halligan solves a single CAPTCHA challenge: given one or more
// screenshot images and a running browser-automation endpoint, it drives
// the three-stage core (Objective Identification -> Structure Abstraction
// -> Solution Composition) end to end and reports the outcome.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/halligan-ai/halligan/internal/agent"
	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/runtimeconfig"
	"github.com/halligan-ai/halligan/internal/stages"
	"github.com/halligan-ai/halligan/internal/tools"
	"github.com/halligan-ai/halligan/internal/toolregistry"
)

func main() {
	var (
		model    = flag.String("model", "", "OpenAI model override (defaults to the agent package's built-in default)")
		logLevel = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	setupLogging(*logLevel)

	images, err := loadImages(flag.Args())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load input images")
	}
	if len(images) == 0 {
		fmt.Fprintln(os.Stderr, "usage: halligan [-model=...] [-log-level=...] <image-path> [image-path ...]")
		os.Exit(2)
	}

	cfg := runtimeconfig.Load()
	if err := cfg.Require(runtimeconfig.RequireOpts{Browser: true, OpenAI: true}); err != nil {
		log.Fatal().Err(err).Msg("missing configuration")
	}

	gptAgent, err := agent.NewGPTAgent(cfg.OpenAIAPIKey, *model)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct agent")
	}

	browser := tools.NewBrowserClient(cfg.BrowserURL)
	registry := toolregistry.New()
	tools.BuildDefault(registry, browser, gptAgent, cfg.CompatOverrides)

	arena := frame.NewArena(images)
	frames := arena.Frames()

	ctx := context.Background()

	objective, err := stages.ObjectiveIdentification(ctx, gptAgent, frames, "")
	if err != nil {
		log.Fatal().Err(err).Msg("objective identification failed")
	}
	log.Info().Str("objective", objective).Msg("objective identified")

	if err := stages.StructureAbstraction(ctx, gptAgent, frames, objective, ""); err != nil {
		log.Fatal().Err(err).Msg("structure abstraction failed")
	}
	log.Info().Msg("structure abstraction complete")

	execCtx := stages.ExecutionContext{Agent: gptAgent, Config: cfg, Registry: registry}
	if err := stages.SolutionComposition(ctx, execCtx, frames, objective); err != nil {
		log.Fatal().Err(err).Msg("solution composition failed")
	}

	log.Info().Msg("solved")
}

func setupLogging(level string) {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func loadImages(paths []string) ([]image.Image, error) {
	images := make([]image.Image, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		img, _, err := image.Decode(f)
		closeErr := f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("close %s: %w", path, closeErr)
		}
		images = append(images, img)
	}
	return images, nil
}

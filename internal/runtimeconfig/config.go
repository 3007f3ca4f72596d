// Package runtimeconfig centralizes environment-sourced configuration and
// the safety gate restricting benchmark targets to local hosts by default.
package runtimeconfig

import (
	"net/url"
	"os"
	"strings"

	"github.com/halligan-ai/halligan/internal/haligerr"
)

var allowedBenchmarkHosts = map[string]struct{}{
	"localhost":           {},
	"127.0.0.1":           {},
	"0.0.0.0":             {},
	"host.docker.internal": {},
}

var allowedSchemes = map[string]struct{}{
	"http":  {},
	"https": {},
}

// Config is the runtime's centralized configuration. Network access is not
// restricted by anything outside this type, so Validate enforces a
// conservative default: only local benchmark endpoints are allowed unless
// explicitly overridden.
type Config struct {
	OpenAIAPIKey         string
	BrowserURL           string
	BenchmarkURL         string
	BenchmarkHTTPURL     string
	AllowNonlocalBenchmark bool

	// CompatOverrides gates the two fixed question/answer literal overrides
	// ask() special-cases to work around unreliable model phrasing (see
	// internal/tools/vision.go). Defaults to on, matching the original
	// implementation's unconditional behavior; set
	// HALLIGAN_DISABLE_COMPAT_OVERRIDES=1 to trust the model unconditionally
	// instead.
	CompatOverrides bool
}

// Load reads a Config from the environment, applying the same fallback and
// boolean-parsing rules as getEnv("KEY", fallback) throughout this package.
func Load() *Config {
	allowNonlocal := getEnv("HALLIGAN_ALLOW_NONLOCAL_BENCHMARK", "")
	if allowNonlocal == "" {
		allowNonlocal = getEnv("ALLOW_NONLOCAL_BENCHMARK", "")
	}

	benchmarkURL := getEnv("BENCHMARK_URL", "")
	benchmarkHTTPURL := getEnv("BENCHMARK_HTTP_URL", benchmarkURL)

	return &Config{
		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", ""),
		BrowserURL:             getEnv("BROWSER_URL", ""),
		BenchmarkURL:           benchmarkURL,
		BenchmarkHTTPURL:       benchmarkHTTPURL,
		AllowNonlocalBenchmark: isTruthy(allowNonlocal),
		CompatOverrides:        !isTruthy(getEnv("HALLIGAN_DISABLE_COMPAT_OVERRIDES", "")),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func isTruthy(v string) bool {
	switch strings.TrimSpace(v) {
	case "1", "true", "True", "yes", "YES":
		return true
	default:
		return false
	}
}

// Validate checks that any configured benchmark URL is local, unless
// AllowNonlocalBenchmark is set. Missing keys are not validated here — call
// sites validate their own needs via Require.
func (c *Config) Validate() error {
	if c.BenchmarkURL != "" && !c.AllowNonlocalBenchmark && !isLocalHTTPURL(c.BenchmarkURL) {
		return haligerr.NewUnsafeTargetError(
			"non-local BENCHMARK_URL; set HALLIGAN_ALLOW_NONLOCAL_BENCHMARK=1 to override intentionally",
			c.BenchmarkURL,
		)
	}
	if c.BenchmarkHTTPURL != "" && !c.AllowNonlocalBenchmark && !isLocalHTTPURL(c.BenchmarkHTTPURL) {
		return haligerr.NewUnsafeTargetError(
			"non-local BENCHMARK_HTTP_URL; set HALLIGAN_ALLOW_NONLOCAL_BENCHMARK=1 to override intentionally",
			c.BenchmarkHTTPURL,
		)
	}
	return nil
}

// RequireOpts selects which settings a command needs present.
type RequireOpts struct {
	Browser   bool
	Benchmark bool
	OpenAI    bool
}

// Require returns a ConfigError naming every missing setting the opts ask
// for, or nil if all are present.
func (c *Config) Require(opts RequireOpts) error {
	var missing []string
	if opts.Browser && c.BrowserURL == "" {
		missing = append(missing, "BROWSER_URL")
	}
	if opts.Benchmark && c.BenchmarkURL == "" {
		missing = append(missing, "BENCHMARK_URL")
	}
	if opts.OpenAI && c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return haligerr.NewConfigError("missing required environment variables: " + strings.Join(missing, ", "))
	}
	return nil
}

func isLocalHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if _, ok := allowedSchemes[parsed.Scheme]; !ok {
		return false
	}
	host := strings.ToLower(strings.TrimSpace(parsed.Hostname()))
	_, ok := allowedBenchmarkHosts[host]
	return ok
}

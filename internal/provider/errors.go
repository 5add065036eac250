package provider

import "fmt"

// UnknownProviderError means an asset names a provider key that was never
// registered. Configuration error, surfaced on the first resolve attempt.
type UnknownProviderError struct {
	Key string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown market provider: %s", e.Key)
}

// UpstreamError is a failed upstream REST call. Recoverable: the orchestrator
// moves on to the fallback chain.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error %d: %s", e.Provider, e.Status, e.Body)
}

// FixtureError is a failed read or parse of an explicitly configured fixture
// file. The built-in default path never produces this; it falls back to the
// baked-in dataset instead.
type FixtureError struct {
	Path string
	Err  error
}

func (e *FixtureError) Error() string {
	return fmt.Sprintf("fixture %s: %v", e.Path, e.Err)
}

func (e *FixtureError) Unwrap() error {
	return e.Err
}

package providers

import "fmt"

// ConfigError means a fetcher is not usable until the operator supplies
// configuration, typically an API key.
type ConfigError struct {
	Provider string
	Message  string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// UpstreamError carries a non-ok status reported by an upstream API.
type UpstreamError struct {
	Provider string
	Code     string
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

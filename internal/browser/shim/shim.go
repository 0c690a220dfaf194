// internal/browser/shim/shim.go
package shim

import (
	_ "embed"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
)

const (
	// ConfigPlaceholder is replaced in the capture template with the JSON configuration.
	ConfigPlaceholder = "/*{{SCRIBE_CAPTURE_CONFIG}}*/"

	// DefaultBinding is the name of the page binding that receives events.
	DefaultBinding = "__scribeRecord"

	defaultMaxTextLength = 500
)

//go:embed capture.js
var captureTemplate string

// Config is serialized into the capture script.
type Config struct {
	Binding       string `json:"binding"`
	MaxTextLength int    `json:"maxTextLength"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{Binding: DefaultBinding, MaxTextLength: defaultMaxTextLength}
}

// CaptureTemplate returns the embedded capture script template.
func CaptureTemplate() (string, error) {
	if strings.TrimSpace(captureTemplate) == "" {
		return "", fmt.Errorf("embedded capture.js template is empty")
	}
	return captureTemplate, nil
}

// BuildCaptureShim injects cfg into template.
func BuildCaptureShim(template string, cfg Config) (string, error) {
	if template == "" {
		return "", fmt.Errorf("template is empty")
	}
	if !strings.Contains(template, ConfigPlaceholder) {
		return "", fmt.Errorf("template does not contain the required placeholder: %s", ConfigPlaceholder)
	}

	if cfg.Binding == "" {
		cfg.Binding = DefaultBinding
	}
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = defaultMaxTextLength
	}
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode shim config: %w", err)
	}

	return strings.Replace(template, ConfigPlaceholder, string(configJSON), 1), nil
}

// Build renders the embedded capture script with cfg.
func Build(cfg Config) (string, error) {
	template, err := CaptureTemplate()
	if err != nil {
		return "", err
	}
	return BuildCaptureShim(template, cfg)
}

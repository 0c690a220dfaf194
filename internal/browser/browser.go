// internal/browser/browser.go
package browser

import (
	"errors"
	"net/url"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/scribe/internal/config"
)

var (
	// ErrNavigation wraps any failure or timeout of the initial navigation.
	ErrNavigation = errors.New("navigation failed")
	// ErrNotStarted is returned when the browser is used before Start.
	ErrNotStarted = errors.New("browser not started")
)

// LaunchOptions are the per-run additions to the configured browser flags.
type LaunchOptions struct {
	// ProxyServer routes all browser traffic through the given proxy URL.
	ProxyServer string
}

// allocatorFlags computes the Chrome command line switches for cfg.
func allocatorFlags(cfg config.BrowserConfig, launch LaunchOptions) map[string]interface{} {
	flags := map[string]interface{}{
		"headless":              cfg.Headless,
		"disable-dev-shm-usage": true,
		"no-first-run":          true,
		"disable-sync":          true,
	}
	if !cfg.Headless {
		// Keep the default-on hide-scrollbars/mute-audio switches for headless only.
		flags["hide-scrollbars"] = false
		flags["mute-audio"] = false
	}
	if cfg.DisableWebSecurity {
		flags["disable-web-security"] = true
	}
	if cfg.IgnoreTLSErrors || launch.ProxyServer != "" {
		flags["ignore-certificate-errors"] = true
		flags["allow-insecure-localhost"] = true
	}
	if launch.ProxyServer != "" {
		flags["proxy-server"] = launch.ProxyServer
		// Chrome bypasses proxies for loopback unless told otherwise.
		flags["proxy-bypass-list"] = "<-loopback>"
	}
	for _, arg := range cfg.Args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			flags[name] = value
		} else {
			flags[name] = true
		}
	}
	return flags
}

// DefaultAllocatorOptions builds the chromedp allocator options for cfg.
func DefaultAllocatorOptions(cfg config.BrowserConfig, launch LaunchOptions) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range allocatorFlags(cfg, launch) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if w, h := cfg.Viewport["width"], cfg.Viewport["height"]; w > 0 && h > 0 {
		opts = append(opts, chromedp.WindowSize(w, h))
	}
	return opts
}

// NormalizeURL prefixes https:// when target has no scheme.
func NormalizeURL(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", errors.New("target URL is empty")
	}
	if !strings.Contains(target, "://") && !strings.HasPrefix(target, "about:") && !strings.HasPrefix(target, "data:") {
		target = "https://" + target
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if u.Scheme != "about" && u.Scheme != "data" && u.Host == "" {
		return "", errors.New("target URL has no host: " + target)
	}
	return u.String(), nil
}

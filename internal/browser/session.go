// Package browser manages the Chrome session that loads generated test pages.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/validation"
)

// Config configures the Chrome launch.
type Config struct {
	Headless bool
	// Timeout bounds each navigation and evaluation.
	Timeout time.Duration
	// Bin is the Chrome binary. Empty lets the launcher find or fetch one.
	Bin string
}

// DefaultConfig returns a headless config with a 30 second timeout.
func DefaultConfig() Config {
	return Config{
		Headless: true,
		Timeout:  30 * time.Second,
	}
}

// Session is a Chrome instance with a single page.
type Session struct {
	config   Config
	logger   logging.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// NewSession creates a session. Nothing is launched until Setup.
func NewSession(config Config, logger logging.Logger) *Session {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Session{config: config, logger: logger.WithComponent("browser")}
}

// Setup launches Chrome, connects to it and opens a blank page.
func (s *Session) Setup(ctx context.Context) error {
	if s.browser != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidState, "browser session already set up")
	}

	l := launcher.New().
		Context(ctx).
		Headless(s.config.Headless).
		Set("no-sandbox").
		Set("disable-gpu")
	if s.config.Bin != "" {
		l = l.Bin(s.config.Bin)
	}

	url, err := l.Launch()
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeInternalError, "failed to launch Chrome", err)
	}
	s.launcher = l

	browser := rod.New().ControlURL(url).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		s.launcher = nil
		return errors.NewInternalError(errors.ErrCodeInternalError, "failed to connect to Chrome", err)
	}
	s.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = s.Teardown(ctx)
		return errors.NewInternalError(errors.ErrCodeInternalError, "failed to open page", err)
	}
	s.page = page

	s.logger.Debug(ctx, "Browser started", "headless", s.config.Headless)
	return nil
}

// Page returns the session page, or nil before Setup.
func (s *Session) Page() *rod.Page {
	return s.page
}

// Open navigates the page to url and waits for it to load.
func (s *Session) Open(ctx context.Context, url string) error {
	if s.page == nil {
		return errors.NewValidationError(errors.ErrCodeInvalidState, "browser session is not set up")
	}
	if err := validation.ValidateURL(url); err != nil {
		return err
	}

	page := s.page.Context(ctx).Timeout(s.config.Timeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	return nil
}

// Title returns the title of the current document.
func (s *Session) Title(ctx context.Context) (string, error) {
	if s.page == nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidState, "browser session is not set up")
	}
	info, err := s.page.Context(ctx).Timeout(s.config.Timeout).Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.Title, nil
}

// Eval runs a JavaScript function expression on the page, for example
// "() => document.title", and returns its JSON-encoded result.
func (s *Session) Eval(ctx context.Context, js string) (string, error) {
	if s.page == nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidState, "browser session is not set up")
	}
	result, err := s.page.Context(ctx).Timeout(s.config.Timeout).Eval(js)
	if err != nil {
		return "", fmt.Errorf("eval failed: %w", err)
	}
	return result.Value.JSON("", ""), nil
}

// Teardown closes the browser. It is safe to call more than once.
func (s *Session) Teardown(ctx context.Context) error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
		s.page = nil
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}
	if err != nil {
		s.logger.Warn(ctx, err, "Failed to close browser")
	}
	return err
}

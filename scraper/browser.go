package scraper

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/oab/config"
	"github.com/use-agent/oab/models"
)

// RodDriver launches a fresh Chromium process for every session.
// Nothing is shared between sessions, so it is safe for concurrent use.
type RodDriver struct {
	cfg config.BrowserConfig
}

// NewRodDriver creates a driver for the given browser configuration.
func NewRodDriver(cfg config.BrowserConfig) *RodDriver {
	return &RodDriver{cfg: cfg}
}

// NewSession launches Chromium, connects to it and opens one page.
// On any failure everything started so far is torn down.
func (d *RodDriver) NewSession(ctx context.Context) (Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(d.cfg.Headless).
		NoSandbox(d.cfg.NoSandbox)

	if d.cfg.BrowserBin != "" {
		l = l.Bin(d.cfg.BrowserBin)
	}
	if d.cfg.Proxy != "" {
		l = l.Proxy(d.cfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("lang"), "pt-BR")

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		l.Cleanup()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	s := &rodSession{launcher: l, browser: browser}

	var page *rod.Page
	if d.cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		_ = s.Close()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}
	s.page = page

	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
		}),
	}.Call(page)

	s.router = setupHijack(page, d.cfg.BlockedResourceTypes)
	return s, nil
}

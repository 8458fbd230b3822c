package app

import (
	"context"
	"fmt"
	"os"
	"time"

	tlcfg "tradelog/internal/config"
	"tradelog/internal/gateway/notifier"
	"tradelog/internal/gateway/sheets"
	"tradelog/internal/journal"
	"tradelog/internal/ledger"
	"tradelog/internal/logger"
	"tradelog/internal/store/auditlog"
	ingesthttp "tradelog/internal/transport/http/ingest"
)

// AppBuilder assembles the dependency graph. The constructor funcs are
// swappable so tests can inject fakes without a live spreadsheet.
type AppBuilder struct {
	cfg *tlcfg.Config

	gatewayFn func(tlcfg.SheetsConfig) (journal.Gateway, error)
	auditFn   func(tlcfg.JournalConfig) (*auditlog.Store, error)
	serverFn  func(tlcfg.AppConfig, *journal.Service) (*ingesthttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *tlcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:       cfg,
		gatewayFn: buildSheetsGateway,
		auditFn:   buildAuditStore,
		serverFn:  buildIngestServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithGateway replaces the spreadsheet gateway, for tests.
func WithGateway(gw journal.Gateway) AppBuilderOption {
	return func(b *AppBuilder) {
		b.gatewayFn = func(tlcfg.SheetsConfig) (journal.Gateway, error) { return gw, nil }
	}
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	layoutPath := cfg.Sheets.LayoutPath
	if _, statErr := os.Stat(layoutPath); statErr != nil {
		logger.Warnf("layout file %s not found, using built-in column layout", layoutPath)
		layoutPath = ""
	}
	layout, err := ledger.LoadLayout(layoutPath)
	if err != nil {
		return nil, fmt.Errorf("loading column layout failed: %w", err)
	}

	gw, err := b.gatewayFn(cfg.Sheets)
	if err != nil {
		return nil, err
	}

	cache := ledger.NewSnapshotCache(ledger.CacheConfig{
		MaxAge:             cfg.Cache.MaxAge(),
		MinRefreshInterval: cfg.Cache.MinRefreshInterval(),
		RefreshWait:        cfg.Cache.RefreshWait(),
	})

	audit, err := b.auditFn(cfg.Journal)
	if err != nil {
		return nil, err
	}

	var telegram *notifier.Telegram
	if cfg.Notify.Telegram.Enabled {
		telegram = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
		logger.Infof("telegram notifications enabled chat=%s", cfg.Notify.Telegram.ChatID)
	}

	svc := journal.NewService(gw, cache, layout, journal.Options{
		Audit:    audit,
		Telegram: telegram,
		Now:      time.Now,
	})

	server, err := b.serverFn(cfg.App, svc)
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg, server: server}, nil
}

func buildSheetsGateway(cfg tlcfg.SheetsConfig) (journal.Gateway, error) {
	client, err := sheets.NewClient(sheets.Config{
		APIURL:         cfg.APIURL,
		SpreadsheetID:  cfg.SpreadsheetID,
		APIToken:       cfg.APIToken,
		TimeoutSeconds: cfg.TimeoutSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("building sheets client failed: %w", err)
	}
	if cfg.SpreadsheetID == "" || cfg.APIToken == "" {
		logger.Warnf("sheets credentials missing, store operations will fail until configured")
	}
	return client, nil
}

func buildAuditStore(cfg tlcfg.JournalConfig) (*auditlog.Store, error) {
	if !cfg.AuditEnabled {
		return nil, nil
	}
	store, err := auditlog.NewStore(cfg.AuditDBPath)
	if err != nil {
		return nil, fmt.Errorf("opening audit store failed: %w", err)
	}
	logger.Infof("audit log enabled path=%s", cfg.AuditDBPath)
	return store, nil
}

func buildIngestServer(cfg tlcfg.AppConfig, svc *journal.Service) (*ingesthttp.Server, error) {
	return ingesthttp.NewServer(ingesthttp.ServerConfig{Addr: cfg.HTTPAddr, Service: svc})
}

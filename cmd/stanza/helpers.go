package main

import (
	"fmt"
	"log/slog"
	"strings"

	"stanza/internal/acquisition"
	"stanza/internal/config"
	"stanza/internal/log"
	"stanza/internal/service"
	"stanza/internal/store"
	"stanza/internal/transport"
)

// commandContext lazily bootstraps the shared service stack so that cheap
// commands (version, help) never touch the filesystem.
type commandContext struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.BoltStore
	fetcher  *transport.Fetcher
	catalog  *service.CatalogService
	resolver *acquisition.Resolver
}

func (c *commandContext) ensure() error {
	if c.catalog != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg

	logger, err := log.Setup(&cfg.Logging)
	if err != nil {
		logger = log.Null()
	}
	slog.SetDefault(logger)
	c.logger = logger

	st, err := store.OpenBolt(config.DataDir())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	c.store = st

	c.fetcher = transport.New(transport.Options{
		Credentials:     st,
		ETags:           st,
		RelayEndpoint:   cfg.Transport.RelayEndpoint,
		ForceV1Suffixes: cfg.Transport.ForceV1Suffixes,
		Logger:          logger,
	})
	c.catalog = service.New(c.fetcher, logger)
	c.resolver = acquisition.New(c.fetcher, logger)
	return nil
}

func (c *commandContext) close() {
	if c.store != nil {
		c.store.Close()
	}
}

// resolveCatalog maps a command argument to a catalog: a configured name
// first, otherwise a literal URL.
func (c *commandContext) resolveCatalog(arg string) (config.CatalogConfig, error) {
	if cat, ok := c.cfg.Catalog(arg); ok {
		return cat, nil
	}
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return config.CatalogConfig{Name: arg, URL: arg}, nil
	}
	return config.CatalogConfig{}, fmt.Errorf("no catalog named %q (and not a URL)", arg)
}

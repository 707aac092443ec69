package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"

	"scavengarr/api"
	"scavengarr/config"
	"scavengarr/handlers"
	"scavengarr/internal/cache"
	"scavengarr/internal/linkstore"
	"scavengarr/services/indexer"
	"scavengarr/services/metadata"
	"scavengarr/services/resolver"
	"scavengarr/services/scrape"
	"scavengarr/services/stream"
)

const version = "1.0.0"

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	devMode := flag.Bool("dev", false, "surface upstream errors on the indexer endpoint")
	flag.Parse()

	fmt.Printf("Scavengarr %s starting...\n", version)

	configPath := os.Getenv("SCAVENGARR_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}
	if *devMode {
		settings.DevMode = true
	}

	setupLogging(settings.Log)

	backend := buildCache(settings)
	links := linkstore.New(backend, time.Duration(settings.Streaming.LinkTTLSeconds)*time.Second)

	siteClient := scrape.NewSiteClient(time.Duration(settings.Scrape.PluginTimeoutSeconds)*time.Second, 4)
	browsers := scrape.NewBrowserPool(nil) // headless browser wiring is deployment-specific
	registry := scrape.NewRegistry(buildPlugins(settings, siteClient, browsers)...)

	governor := scrape.NewGovernor(settings.Scrape.CheapSlots, settings.Scrape.ExpensiveSlots)
	breakers := scrape.NewBreakerRegistry(
		settings.Scrape.CircuitFailureThreshold,
		time.Duration(settings.Scrape.CircuitCooldownSeconds)*time.Second,
	)
	invoker := scrape.NewInvoker(
		breakers,
		time.Duration(settings.Scrape.PluginTimeoutSeconds)*time.Second,
		settings.Scrape.MaxResultsPerPlugin,
		scrape.NewSearchCache(backend, time.Duration(settings.Scrape.SearchTTLSeconds)*time.Second),
	)

	tmdb := metadata.NewTMDBClient(settings.Metadata.TMDBAPIKey, settings.Metadata.Language, nil)
	if !tmdb.IsConfigured() {
		log.Printf("[main] no TMDB api key configured, stream requests will return empty lists")
	}
	titles := metadata.NewService(tmdb, backend, time.Duration(settings.Metadata.TTLHours)*time.Hour)

	resolvers := resolver.NewRegistry()
	resolvers.Register("voe", resolver.NewVOEResolver(siteClient))
	resolvers.Register("streamtape", resolver.NewStreamtapeResolver(siteClient))

	var prober *stream.Prober
	if settings.Probe.ProbeAtStreamTime {
		prober = stream.NewProber(siteClient, settings.Probe)
	}

	orchestrator := stream.NewOrchestrator(
		registry,
		governor,
		invoker,
		titles,
		stream.NewTitleFilter(settings.TitleMatch),
		stream.NewScorer(settings.Scoring),
		prober,
		resolvers,
		links,
		settings,
	)
	indexerSvc := indexer.NewService(registry, governor, invoker, titles)

	r := mux.NewRouter()
	api.Register(
		r,
		handlers.NewStremioHandler(orchestrator, version),
		handlers.NewTorznabHandler(indexerSvc, settings.DevMode),
		handlers.NewPlayHandler(links, resolvers),
		handlers.NewHealthHandler(breakers, version),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("[main] shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	registry.Cleanup()
	if err := browsers.Close(); err != nil {
		log.Printf("[main] browser close: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] server shutdown: %v", err)
	}
	log.Println("[main] shutdown complete")
}

// setupLogging routes the standard logger to stdout plus a rotated file when
// one is configured.
func setupLogging(cfg config.LogSettings) {
	if cfg.File == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		log.Printf("[main] could not create log directory: %v", err)
		return
	}
	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("[main] logging to %s", cfg.File)
}

func buildCache(settings config.Settings) cache.Cache {
	ttl := time.Duration(settings.Scrape.SearchTTLSeconds) * time.Second
	if settings.Cache.Backend == "redis" {
		log.Printf("[main] using redis cache at %s", settings.Cache.RedisAddr)
		return cache.NewRedis(settings.Cache.RedisAddr, settings.Cache.RedisPassword, settings.Cache.RedisDB, ttl)
	}
	return cache.NewMemory(ttl)
}

// buildPlugins instantiates the site adapters enabled in config. Unknown
// names are skipped so stale config entries cannot prevent startup.
func buildPlugins(settings config.Settings, siteClient *scrape.SiteClient, browsers *scrape.BrowserPool) []scrape.Plugin {
	var plugins []scrape.Plugin
	for _, pc := range settings.Plugins {
		if !pc.Enabled {
			continue
		}
		ttl := time.Duration(pc.CacheTTLSeconds) * time.Second
		switch pc.Name {
		case "megakino":
			plugins = append(plugins, scrape.NewMegakinoPlugin(pc.BaseURL, siteClient, pc.DefaultLanguage, ttl))
		case "filmpalast":
			plugins = append(plugins, scrape.NewFilmpalastPlugin(pc.BaseURL, siteClient, pc.DefaultLanguage, ttl))
		case "streamkiste":
			plugins = append(plugins, scrape.NewStreamkistePlugin(pc.BaseURL, browsers, pc.DefaultLanguage, ttl))
		default:
			log.Printf("[main] unknown plugin %q in config, skipping", pc.Name)
		}
	}
	if len(plugins) == 0 {
		log.Printf("[main] no plugins enabled")
	}
	return plugins
}

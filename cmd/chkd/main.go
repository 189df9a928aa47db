package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chk.szuro.net/internal/api"
	"chk.szuro.net/internal/autochecks"
	"chk.szuro.net/internal/config"
	"chk.szuro.net/internal/input"
	"chk.szuro.net/internal/logger"
	"chk.szuro.net/internal/params"
	"chk.szuro.net/internal/plugin"
	"chk.szuro.net/internal/registry"
	"chk.szuro.net/internal/rules"
	"chk.szuro.net/pkg/check"
	"chk.szuro.net/plugins"
)

func printVersionInfo() {
	fmt.Printf("chkd %s\n", config.Version)
	fmt.Printf("Git commit: %s\n", config.Commit)
	fmt.Printf("Compilation time: %s\n", config.BuildDate)
}

func main() {
	chkPath := flag.String("c", "/etc/chkd.yaml", "Path of config file")
	version := flag.Bool("v", false, "Show version info")
	flag.Parse()

	if *version {
		printVersionInfo()
		os.Exit(0)
	}

	chkConfig, err := config.ParseChkConfig(*chkPath)
	if err != nil {
		logger.Error("Cannot load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger.SetLogLevel(chkConfig.GetLogLevel())

	providers := plugin.NewProviderRegistry()
	defer providers.CleanupAll()
	if chkConfig.ProvidersDir != "" {
		if err := providers.LoadProvidersFromDir(chkConfig.ProvidersDir, check.DefaultFunctions); err != nil {
			logger.Error("Failed to load function providers", slog.Any("error", err))
			// Continue execution - providers are optional
		}
	}

	reg := registry.New(check.DefaultFunctions)
	loader := plugin.NewLoader(reg, plugin.Options{
		Debug:      chkConfig.Debug,
		LocalDir:   chkConfig.LocalChecksDir,
		ShippedDir: chkConfig.ChecksDir,
	})
	snap, err := loader.Load(plugins.Builtins())
	if err != nil {
		logger.Error("Failed to load check plugins", slog.Any("error", err))
		providers.CleanupAll()
		os.Exit(1)
	}

	for name, value := range chkConfig.CheckVariables {
		if err := reg.SetCheckVariable(name, value); err != nil {
			logger.Warn("Ignoring check variable", slog.String("name", name), slog.Any("error", err))
		}
	}

	store, err := autochecks.Open(chkConfig.AutochecksDir())
	if err != nil {
		logger.Error("Cannot open autochecks", slog.Any("error", err))
		providers.CleanupAll()
		os.Exit(1)
	}
	defer store.Close()

	describer := params.NewDescriber(snap)
	resolver := params.NewResolver(snap, params.Config{
		Matcher:      rules.NewMatcher(chkConfig.HostTags()),
		Rulesets:     chkConfig.Rulesets(),
		UserDefaults: reg.CheckVariables(),
		Describer:    describer,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	api.NewHandler(snap, resolver, describer, store).Register(mux)

	feed := input.NewFeed(store, chkConfig.BufferSize)
	go feed.AcceptValues()

	inputs := []input.Inputer{
		input.NewFileInput(chkConfig.DiscoveryDir(), chkConfig.IndexDir(), feed),
		input.NewHTTPInput(mux, feed),
	}
	for _, inp := range inputs {
		if err := inp.Prepare(); err != nil {
			logger.Error("Failed to prepare discovery input", slog.Any("error", err))
			continue
		}
		inp.Start()
	}

	config.ChkInfo.Set(1)

	listen := fmt.Sprintf("%s:%d", chkConfig.Http.ListenAddress, chkConfig.Http.ListenPort)
	server := &http.Server{Addr: listen, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", slog.String("listen", listen), slog.Any("error", err))
		}
	}()
	logger.Info("chkd started", slog.String("listen", listen), slog.Int("checks", snap.Len()))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.Any("error", err))
	}
	cancel()

	for _, inp := range inputs {
		if err := inp.Stop(); err != nil {
			logger.Error("stopping failed", slog.Any("error", err))
		}
	}
	feed.Close()
	logger.Info("Exiting...")
}

package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"smugmirror/pkg/auth"
	"smugmirror/pkg/config"
	"smugmirror/pkg/logger"
	"smugmirror/pkg/mirror"
	"smugmirror/pkg/smugmug"
	"smugmirror/pkg/storage"
)

// app is everything a command needs to talk to the gallery
type app struct {
	cfg    *config.Config
	runID  string
	log    logger.Logger
	store  *storage.Manager
	mirror *mirror.Mirror
}

// loadConfig applies the global and mirror flags the user actually set
func loadConfig(cmd *cobra.Command, user string) (*config.Config, error) {
	flags := make(map[string]interface{})
	if user != "" {
		flags["user"] = user
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if logFile != "" {
		flags["log-file"] = logFile
	}

	changed := cmd.Flags().Changed
	if albums := selectedAlbums(); len(albums) > 0 {
		flags["albums"] = albums
	}
	if changed("output") {
		flags["output"] = mirrorOpts.output
	}
	if changed("session") {
		flags["session"] = mirrorOpts.session
	}
	if changed("endpoint") {
		flags["endpoint"] = mirrorOpts.endpoint
	}
	if changed("concurrency") {
		flags["concurrency"] = mirrorOpts.concurrency
	}
	if changed("pagination") {
		flags["pagination"] = mirrorOpts.pagination
	}
	if changed("dry-run") {
		flags["dry-run"] = mirrorOpts.dryRun
	}
	if changed("report") {
		flags["report"] = mirrorOpts.report
	}
	if changed("requests-per-minute") {
		flags["requests-per-minute"] = mirrorOpts.requestsPerMinute
	}
	if changed("max-attempts") {
		flags["max-attempts"] = mirrorOpts.maxAttempts
	}
	if changed("backoff") {
		flags["backoff"] = mirrorOpts.backoff
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// selectedAlbums merges repeated --album flags with the "$"-separated --albums list
func selectedAlbums() []string {
	var names []string
	for _, name := range mirrorOpts.album {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return append(names, mirror.ParseAlbumList(mirrorOpts.albumList)...)
}

// newApp wires config into the fetcher, storage and mirror
func newApp(cfg *config.Config) (*app, error) {
	runID := uuid.NewString()

	log, err := logger.New(cfg.LoggerConfig(runID, noColor))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetLogger(log)

	if cfg.SmugMug.Session == "" {
		if sessions, err := auth.NewManager(); err == nil {
			if token := sessions.Token(cfg.Mirror.User); token != "" {
				cfg.SmugMug.Session = token
				log.DebugWithFields("Using stored session", map[string]interface{}{
					"user":  cfg.Mirror.User,
					"token": auth.MaskToken(token),
				})
			}
		} else {
			log.WithError(err).Debug("Session store unavailable")
		}
	}

	policy, err := cfg.RetryPolicy(log)
	if err != nil {
		return nil, err
	}
	limiter, err := cfg.Limiter()
	if err != nil {
		return nil, err
	}
	storeOpts, err := cfg.StorageOptions()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewManager(storeOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	client := smugmug.NewClient(cfg.ClientConfig(), log)
	fetcher := smugmug.NewFetcher(client, policy, limiter, log)

	m, err := mirror.New(cfg.MirrorOptions(runID), fetcher, client, store, log)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		runID:  runID,
		log:    log,
		store:  store,
		mirror: m,
	}, nil
}

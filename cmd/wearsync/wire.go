package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/wearsync/internal/adapters/driven/backup"
	backupfile "github.com/custodia-labs/wearsync/internal/adapters/driven/backup/file"
	backups3 "github.com/custodia-labs/wearsync/internal/adapters/driven/backup/s3"
	"github.com/custodia-labs/wearsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/wearsync/internal/adapters/driven/sink/postgres"
	"github.com/custodia-labs/wearsync/internal/adapters/driven/sink/postgrest"
	"github.com/custodia-labs/wearsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/wearsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/wearsync/internal/connectors/garmin"
	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	"github.com/custodia-labs/wearsync/internal/core/services"
	"github.com/custodia-labs/wearsync/internal/logger"
	normalisers "github.com/custodia-labs/wearsync/internal/normalisers/garmin"
)

// lookupEnv is replaced in tests.
var lookupEnv file.LookupEnv = os.LookupEnv

// loadConfig opens the config file and resolves settings from it and the
// environment.
func loadConfig(path string) (driven.ConfigStore, domain.Settings, error) {
	store, err := file.NewConfigStore(path)
	if err != nil {
		return nil, domain.Settings{}, err
	}
	s, err := file.LoadSettings(store, lookupEnv)
	if err != nil {
		return nil, domain.Settings{}, err
	}
	return store, s, nil
}

// build wires the adapters for validated settings.
func build(ctx context.Context, s domain.Settings) (*cli.Services, error) {
	store, err := sqlite.NewStore(s.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening local database: %w", err)
	}

	sink, err := openSink(ctx, s, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	writer, err := backupWriter(s.Backup)
	if err != nil {
		sink.Close()
		store.Close()
		return nil, err
	}

	cfg := garmin.DefaultConfig()
	if s.Garmin.BaseURL != "" {
		cfg.BaseURL = s.Garmin.BaseURL
	}
	source := garmin.NewClient(cfg)
	runs := store.RunStore()
	orchestrator := services.NewSyncOrchestrator(
		source, sink, normalisers.NewRegistry(), writer, runs, s.Garmin.Credentials())

	logger.Debug("Wired %s sink, local database %s", s.Sink.Kind, store.Path())
	return &cli.Services{
		Sync:   orchestrator,
		Runs:   runs,
		Source: source,
		Close: func() error {
			return errors.Join(sink.Close(), store.Close())
		},
	}, nil
}

// openSink selects the destination store.
func openSink(ctx context.Context, s domain.Settings, store *sqlite.Store) (driven.Sink, error) {
	switch s.Sink.Kind {
	case domain.SinkPostgREST:
		sink, err := postgrest.New(postgrest.Config{URL: s.Sink.URL, Key: s.Sink.Key, Conflict: s.Sink.Conflict})
		if err != nil {
			return nil, err
		}
		return sink, nil
	case domain.SinkPostgres:
		sink, err := postgres.Open(ctx, postgres.Config{DSN: s.Sink.DSN, Schema: s.Sink.Schema, Conflict: s.Sink.Conflict})
		if err != nil {
			return nil, err
		}
		return sink, nil
	case domain.SinkSQLite:
		return store.Sink(s.Sink.Conflict), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrSinkUnsupported, s.Sink.Kind)
}

// backupWriter writes locally and mirrors to S3 when configured.
func backupWriter(b domain.BackupSettings) (driven.BackupWriter, error) {
	local := backupfile.NewWriter(b.Dir)
	if !b.S3.Enabled() {
		return local, nil
	}

	mirror, err := backups3.New(backups3.Config{
		Bucket:   b.S3.Bucket,
		Endpoint: b.S3.Endpoint,
		Region:   b.S3.Region,
		KeyID:    b.S3.KeyID,
		Secret:   b.S3.Secret,
		Prefix:   b.S3.Prefix,
	})
	if err != nil {
		return nil, err
	}
	return backup.NewChain(local, mirror), nil
}

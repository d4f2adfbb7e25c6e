// Package app wires the gateway together: config, transport, stores,
// session manager, handlers and the HTTP server.
package app

import (
	"context"
	"fmt"
	"log"

	"cvarchitect/internal/conversation"
	"cvarchitect/internal/gateway/config"
	"cvarchitect/internal/gateway/handler"
	"cvarchitect/internal/gateway/server"
	"cvarchitect/internal/repository/export"
	"cvarchitect/internal/repository/sessionstore"
	"cvarchitect/internal/transport"
)

// opener is the conversation transport plus the import extractor; both
// the Gemini adapter and the offline script satisfy it.
type opener interface {
	transport.Opener
	transport.DocumentExtractor
}

type App struct {
	server *server.Server
	saver  *sessionstore.Autosaver
	store  *sessionstore.Store
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	op, err := newOpener(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := sessionstore.NewFromEnv(cfg.Store.Path)
	store.EnsureLoaded()
	saver := sessionstore.NewAutosaver(store, sessionstore.DefaultDebounce)

	mgr := conversation.NewManager(op, func(s *conversation.Session) {
		snap := s.Snapshot()
		saver.Notify(sessionstore.Record{
			SessionID:      snap.SessionID,
			Document:       snap.Document,
			Transcript:     snap.Transcript,
			Phase:          string(snap.Phase),
			JobDescription: snap.JobDescription,
		})
	})

	exports, err := newExportStore(cfg)
	if err != nil {
		return nil, err
	}

	h := handler.New(mgr, store, exports, op)
	srv := server.New(cfg.Port, server.NewMux(h))

	return &App{server: srv, saver: saver, store: store}, nil
}

func newOpener(ctx context.Context, cfg *config.Config) (opener, error) {
	if cfg.Model.APIKey == "" {
		log.Printf("GEMINI_API_KEY not set, running with the offline scripted transport")
		return transport.NewScript(nil), nil
	}
	g, err := transport.NewGemini(ctx, cfg.Model.APIKey, cfg.Model.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to init model transport: %w", err)
	}
	log.Printf("model transport: gemini model=%s", cfg.Model.Name)
	return g, nil
}

func newExportStore(cfg *config.Config) (export.Store, error) {
	if !cfg.Export.Enabled {
		log.Printf("export store: in-memory (no object storage configured)")
		return export.NewMemoryStore(), nil
	}
	s3, err := export.NewS3Store(export.S3Config{
		Endpoint:  cfg.Export.Endpoint,
		Region:    cfg.Export.Region,
		AccessKey: cfg.Export.AccessKey,
		SecretKey: cfg.Export.SecretKey,
		Bucket:    cfg.Export.Bucket,
		UseSSL:    cfg.Export.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize export s3 store: %w", err)
	}
	log.Printf("export store: s3 bucket=%s endpoint=%s", cfg.Export.Bucket, cfg.Export.Endpoint)
	return s3, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.saver.Close()
	a.store.Close()
	return err
}

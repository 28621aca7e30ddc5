package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizsystem"

	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", os.Getenv("QUIZ_CONFIG"), "path to YAML config file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if err := run(*configPath, *verbose); err != nil {
		quizsystem.Logger.Fatal().Err(err).Msg("webserver stopped")
	}
}

func run(configPath string, verbose bool) error {
	cfg, err := quizsystem.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := quizsystem.InitLogger(cfg.Logging.Options()); err != nil {
		return err
	}
	defer quizsystem.CloseLogFile()
	if verbose {
		quizsystem.SetVerbose(true)
	}
	log := quizsystem.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := quizsystem.OpenDB(openCtx, cfg.DBDriver, cfg.DBDSN)
	if err == nil {
		err = db.CreateTables(openCtx)
	}
	cancel()
	if err != nil {
		return err
	}
	defer db.Close()

	var completer quizsystem.Completer
	if cfg.AI.Provider != quizsystem.ProviderMock {
		client, err := quizsystem.NewAIClient(cfg.AI)
		if err != nil {
			return err
		}
		completer = client
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	gen := quizsystem.NewGenerationService(cfg.Generation,
		quizsystem.WithTranscriptDir(cfg.Logging.TranscriptDir))
	defer gen.Cleanup()

	server := NewServer(db, store, gen, quizsystem.NewEvaluator(completer), cfg.AI)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("db", string(db.Driver())).
			Str("provider", string(cfg.AI.Provider)).
			Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		gen.Cleanup()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

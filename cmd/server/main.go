// Command server runs the voice chat HTTP API.
//
// @title       Voice Chat API
// @version     1.0
// @description Text and voice chat relay: completion, translation, history and session log.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-voice-chat/docs"
	"github.com/tbourn/go-voice-chat/internal/config"
	httpapi "github.com/tbourn/go-voice-chat/internal/http"
	"github.com/tbourn/go-voice-chat/internal/observability"
	"github.com/tbourn/go-voice-chat/internal/provider"
	"github.com/tbourn/go-voice-chat/internal/repo"
	"github.com/tbourn/go-voice-chat/internal/services"
	"github.com/tbourn/go-voice-chat/internal/sessionlog"
	"github.com/tbourn/go-voice-chat/internal/speech"
	"github.com/tbourn/go-voice-chat/internal/sysutil"
	"github.com/tbourn/go-voice-chat/internal/translate"
	"github.com/tbourn/go-voice-chat/internal/web"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

const (
	shutdownTimeout = 20 * time.Second
	purgeInterval   = time.Hour
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("could not load .env")
	}
	cfg := config.MustLoad()

	sysutil.SetupLogger(cfg.LogPretty)
	sysutil.SetLogLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ver := sysutil.FirstNonEmpty(version, "dev")
	log.Info().Str("version", ver).Str("port", cfg.Port).Msg("starting")

	if err := run(cfg, ver); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run(cfg config.Config, ver string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.Migrate(db); err != nil {
		return err
	}

	completer, err := provider.New(ctx, cfg.Completion)
	if err != nil {
		return err
	}
	if c, ok := completer.(io.Closer); ok {
		defer c.Close()
	}

	translator, err := translate.New(ctx, cfg.Translate)
	if err != nil {
		return err
	}

	recorder, err := speech.NewCommandRecorder(cfg.Speech.RecordCommand)
	if err != nil {
		return err
	}
	listener := speech.NewListener(recorder, &speech.WhisperTranscriber{
		Client:   provider.NewOpenAIClient(cfg.Completion.OpenAIAPIKey, cfg.Completion.OpenAIBaseURL),
		Model:    cfg.Speech.Model,
		Language: cfg.Speech.Language,
	}, cfg.Speech.MicWait)

	sessLog := sessionlog.New(cfg.SessionLogCapacity)

	page, err := web.Page()
	if err != nil {
		return err
	}

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.Version = ver
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Services{
		Chat: &services.ChatService{
			DB:                db,
			Log:               sessLog,
			Completer:         completer,
			Translator:        translator,
			CompletionTimeout: cfg.Completion.Timeout,
			TranslateTimeout:  cfg.Translate.Timeout,
			DefaultLanguage:   cfg.DefaultLanguage,
			MaxMessageRunes:   cfg.MaxMessageRunes,
			IdempotencyTTL:    cfg.IdempotencyTTL,
		},
		Voice: &services.VoiceService{
			Listener:          listener,
			Completer:         completer,
			Log:               sessLog,
			SpeechTimeout:     cfg.Speech.Timeout,
			CompletionTimeout: cfg.Completion.Timeout,
		},
		History: &services.HistoryService{DB: db, Log: sessLog},
		Page:    page,
	}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go purgeIdempotency(ctx, db, purgeInterval)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).
			Str("completion", cfg.Completion.Provider).
			Str("translate", translator.Name()).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// purgeIdempotency deletes expired idempotency records every interval until
// ctx is done.
func purgeIdempotency(ctx context.Context, db *gorm.DB, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now)
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("purged idempotency records")
			}
		}
	}
}

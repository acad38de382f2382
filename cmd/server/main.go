package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/askai-quiz-backend/internal/ai"
	"github.com/DoyleJ11/askai-quiz-backend/internal/ai/gemini"
	"github.com/DoyleJ11/askai-quiz-backend/internal/config"
	"github.com/DoyleJ11/askai-quiz-backend/internal/feed"
	"github.com/DoyleJ11/askai-quiz-backend/internal/httpapi"
	"github.com/DoyleJ11/askai-quiz-backend/internal/media"
	"github.com/DoyleJ11/askai-quiz-backend/internal/metrics"
	"github.com/DoyleJ11/askai-quiz-backend/internal/session"
	"github.com/DoyleJ11/askai-quiz-backend/internal/speech"
	"github.com/DoyleJ11/askai-quiz-backend/internal/store"
	"github.com/DoyleJ11/askai-quiz-backend/internal/syncclient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	kv, err := openStore(cfg)
	if err != nil {
		return err
	}
	log.Info("store ready", zap.String("driver", cfg.StoreDriver))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	caches := media.NewCaches(kv, log).WithMetrics(m)
	sessions := session.NewService(session.NewStore(kv, log), log,
		session.WithJudgePolicy(cfg.JudgePolicy),
		session.WithPurgers(caches),
		session.WithMetrics(m))

	classifier, err := ai.ParseClassifier(cfg.Classifier)
	if err != nil {
		return err
	}

	// Typed nils must not reach the interfaces below.
	var (
		gen         ai.Generator
		transcriber media.Transcriber
		synth       media.Synthesizer
	)
	model, err := gemini.New(ctx, gemini.Config{APIKey: cfg.ModelAPIKey(), Model: cfg.GeminiModel})
	if err != nil {
		return err
	}
	if model != nil {
		gen, transcriber = model, model
	} else {
		log.Warn("GEMINI_API_KEY not set; answers and transcription are unavailable")
	}
	if el := speech.NewElevenLabs(speech.Config{
		BaseURL:      cfg.ElevenLabsBaseURL,
		APIKey:       cfg.ElevenLabsAPIKey,
		VoiceID:      cfg.ElevenLabsVoiceID,
		ModelID:      cfg.ElevenLabsModelID,
		OutputFormat: cfg.ElevenLabsOutputFormat,
	}, &http.Client{Timeout: 30 * time.Second}); el != nil {
		synth = el
	} else {
		log.Warn("ElevenLabs not configured; speech synthesis is unavailable")
	}

	orch := ai.NewOrchestrator(sessions, gen, log,
		ai.WithClassifier(classifier),
		ai.WithSearchGrounding(cfg.SearchGrounding),
		ai.WithTimeout(cfg.AITimeout),
		ai.WithTranscripts(media.NewTranscripts(caches.Transcripts, transcriber, log)),
		ai.WithMetrics(m))

	f := feed.New(ctx, m)
	poller := syncclient.New(sessions, log,
		syncclient.WithInterval(cfg.PollInterval),
		syncclient.OnChange(f.PublishSession))

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Sessions: sessions,
			AI:       orch,
			Speech:   media.NewSpeech(caches.Speech, synth, log),
			Feed:     f,
			Poller:   poller,
			Gatherer: reg,
			Log:      log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return poller.Run(gctx) })
	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.String("classifier", classifier.Name()),
			zap.String("judge_policy", string(cfg.JudgePolicy)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		f.Send(feed.Shutdown{})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(cfg *config.Config) (store.KV, error) {
	if cfg.StoreDriver == store.DriverMemory {
		return store.NewMemory(), nil
	}
	return store.Open(cfg.StoreDriver, cfg.DatabaseURL)
}

// Command meeting-insight-service runs the live meeting insight pipeline:
// audio capture, transcription with tone scoring, sliding-window
// summarization, and objective evaluation, exposed over HTTP and websockets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"meeting-insight-service/internal/ai"
	aihttp "meeting-insight-service/internal/ai/httpapi"
	"meeting-insight-service/internal/ai/mock"
	"meeting-insight-service/internal/api/httpapi"
	"meeting-insight-service/internal/audio"
	"meeting-insight-service/internal/config"
	"meeting-insight-service/internal/events"
	"meeting-insight-service/internal/observability"
	"meeting-insight-service/internal/observability/logging"
	"meeting-insight-service/internal/pipeline"
	"meeting-insight-service/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		TimeFormat: time.RFC3339,
	})
	log.Info().Str("config", *configPath).Msg("Starting meeting-insight-service")

	workDir, err := storage.NewWorkDir(cfg.Storage.WorkDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare work dir")
	}

	store, err := storage.NewStore(cfg.Storage.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer store.Close()

	janitor := storage.NewJanitor(workDir,
		time.Duration(cfg.Storage.SweepMinutes)*time.Minute,
		time.Duration(cfg.Storage.MaxClipAgeHours)*time.Hour)
	janitor.Start()
	defer janitor.Stop()

	publisher := events.New(&events.Config{
		Brokers:         cfg.Kafka.Brokers,
		TopicTranscript: cfg.Kafka.TopicTranscript,
		TopicSummary:    cfg.Kafka.TopicSummary,
		Principal:       cfg.Kafka.Principal,
		Enabled:         cfg.Kafka.Enabled,
	})
	defer publisher.Close()

	sink := events.NewSink(pipeline.DefaultQueueCapacity, logging.WithComponent("sink"))

	transcriber, tone, summarizer, embedder := buildServices(cfg)

	ctrl := pipeline.NewController(
		pipeline.Config{
			SampleRate:      cfg.Audio.SampleRate,
			FrameSize:       cfg.Audio.FrameSize,
			ClipSeconds:     cfg.Audio.ClipSeconds,
			Language:        cfg.Services.Language,
			PartialInterval: cfg.Summarizer.PartialInterval,
			PartialWindow:   cfg.Summarizer.PartialWindow,
			StopTimeout:     time.Duration(cfg.Pipeline.StopTimeoutSeconds) * time.Second,
			Grace:           time.Duration(cfg.Pipeline.GraceMillis) * time.Millisecond,
		},
		pipeline.Deps{
			NewDevice: func() (audio.Device, error) {
				return audio.OpenFFmpegDevice(cfg.Audio.Format, cfg.Audio.Input, cfg.Audio.SampleRate)
			},
			Transcriber: transcriber,
			Tone:        tone,
			Summarizer:  summarizer,
			Embedder:    embedder,
			Sink:        sink,
			Publisher:   publisher,
			Store:       store,
			WorkDir:     workDir,
			Objectives:  cfg.Objectives,
		},
	)

	obsServer := observability.NewServer(cfg.Observability.Addr)
	obsServer.Start()

	hub := httpapi.NewHub(logging.WithComponent("hub"))
	go hub.Run(sink.Events())

	app := httpapi.NewServer(ctrl, store, hub).App()

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := ctrl.Stop(shutdownCtx); err != nil && !errors.Is(err, pipeline.ErrNotRunning) {
			log.Error().Err(err).Msg("Pipeline stop failed during shutdown")
		}
		obsServer.Shutdown(shutdownCtx)
		app.Shutdown()
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("HTTP server listening")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("HTTP server failed")
	}
}

// buildServices wires the configured AI provider. The mock provider runs the
// full pipeline without external services or credentials.
func buildServices(cfg *config.Config) (ai.Transcriber, ai.ToneScorer, ai.Summarizer, ai.Embedder) {
	if cfg.Services.Provider == "mock" {
		log.Warn().Msg("Using mock AI services")
		return &mock.Transcriber{}, &mock.ToneScorer{}, &mock.Summarizer{}, &mock.Embedder{}
	}

	client := aihttp.NewClient()
	return aihttp.NewTranscriber(client, cfg.Services.Transcriber.URL, cfg.Services.Transcriber.APIKey, cfg.Services.Transcriber.Model),
		aihttp.NewToneScorer(client, cfg.Services.Completion.URL, cfg.Services.Completion.APIKey, cfg.Services.Completion.Model),
		aihttp.NewSummarizer(client, cfg.Services.Completion.URL, cfg.Services.Completion.APIKey, cfg.Services.Completion.Model),
		aihttp.NewEmbedder(client, cfg.Services.Embedding.URL, cfg.Services.Embedding.APIKey, cfg.Services.Embedding.Model)
}

package cmd

import (
	"net/http"

	"autolrc/cache"
	"autolrc/config"
	"autolrc/core/align"
	"autolrc/core/audio"
	"autolrc/core/lyric"
	"autolrc/core/pipeline"
	"autolrc/core/run"
	"autolrc/core/separator"
	"autolrc/core/transcribe"
	"autolrc/db"
	"autolrc/logger"
	"autolrc/repository"
	"autolrc/storage"
)

// buildDriver wires the full pipeline from configuration. The returned
// cleanup releases optional collaborator connections.
func buildDriver(cfg *config.Config) (*pipeline.Driver, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	runner := run.ExecRunner{}

	processor := audio.NewFFmpegProcessor(cfg.FFmpegPath, runner)

	var sep audio.Separator
	if cfg.UseVocalIsolation {
		sep = separator.NewDemucsSeparator(cfg.DemucsPath, runner)
	}
	preprocessor := audio.NewPreprocessor(processor, sep, cfg.TempDir)

	client := transcribe.NewClient(
		transcribe.WithKey(cfg.GeminiAPIKey),
		transcribe.WithBaseURL(cfg.GeminiBaseURL),
		transcribe.WithModel(cfg.GeminiModel),
		transcribe.WithRetry(cfg.MaxRetries, cfg.RetryDelay),
		transcribe.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		transcribe.WithChunking(processor, cfg.MaxChunkSeconds, cfg.TempDir),
	)

	aligner := align.NewAligner(
		align.NewCommandModel(cfg.EmissionModelPath, runner),
		align.WithTimeout(cfg.AlignTimeout),
	)

	assembler := lyric.NewAssembler(lyric.DefaultAssemblerConfig())
	writer, err := lyric.NewWriter(cfg.OutputPath)
	if err != nil {
		return nil, nil, err
	}

	orchestrator := pipeline.NewOrchestrator(preprocessor, client, aligner, assembler, writer)

	// Optional collaborators degrade to disabled when unreachable.
	transcriptCache, err := cache.Connect(cfg)
	if err != nil {
		logger.Warn("transcript cache unavailable, continuing without it", logger.ErrorField(err))
	}
	orchestrator.WithCache(transcriptCache)

	publisher, err := storage.Connect(cfg)
	if err != nil {
		logger.Warn("artifact publisher unavailable, continuing without it", logger.ErrorField(err))
	}
	orchestrator.WithPublisher(publisher)

	gdb, err := db.Connect(cfg)
	if err != nil {
		logger.Warn("job-history database unavailable, continuing without it", logger.ErrorField(err))
	}
	history, err := repository.NewResultRepository(gdb)
	if err != nil {
		logger.Warn("job-history migration failed, continuing without it", logger.ErrorField(err))
		history = nil
	}
	orchestrator.WithHistory(history)

	cleanup := func() {
		if err := transcriptCache.Close(); err != nil {
			logger.Warn("closing transcript cache", logger.ErrorField(err))
		}
		if err := db.Close(gdb); err != nil {
			logger.Warn("closing job-history database", logger.ErrorField(err))
		}
	}

	return pipeline.NewDriver(orchestrator, cfg), cleanup, nil
}

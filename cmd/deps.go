package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai/gemini"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/secrets"
	"github.com/spigell/interview-coach/internal/setup"
)

// deps is what every command needs before it can run an interview.
type deps struct {
	config      *Config
	logger      *zap.Logger
	interviewer *gemini.Interviewer
	setup       *setup.Aggregator
}

// mustDeps builds the shared dependencies and exits on any startup failure.
func mustDeps(ctx context.Context, command string) *deps {
	log.SetFlags(0)

	// logs go to stderr (or log-file) so they do not interleave with the screens
	lg, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), viper.GetString("log-file"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		lg.Fatal("getting a config", zap.Error(err))
	}

	lg.Info("starting the interview-coach", zap.String("version", version), zap.String("command", command))

	// the api key is never part of the dump
	redacted := *config.Gemini
	redacted.APIKey = ""
	pretty, _ := json.MarshalIndent(struct {
		Gemini      GeminiConfig
		Server      *ServerConfig
		PresetsFile string
	}{redacted, config.Server, config.PresetsFile}, "", "  ")
	lg.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  config.Gemini.APIKeyFile,
		Value: config.Gemini.APIKey,
		Env:   []string{"GEMINI_API_KEY", "API_KEY"},
	})
	if err != nil {
		lg.Fatal(
			"loading gemini api key",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY, or gemini.api-key / gemini.api-key-file in the configuration file"),
		)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, gemini.Options{
		Model:        config.Gemini.Model,
		Timeout:      config.Gemini.RequestTimeout,
		MaxLogLength: config.Gemini.MaxLogLength,
	}, lg)
	if err != nil {
		lg.Fatal("creating gemini client", zap.Error(err))
	}

	presets, err := setup.LoadPresets(config.PresetsFile)
	if err != nil {
		lg.Fatal("loading job presets", zap.Error(err))
	}

	return &deps{
		config:      config,
		logger:      lg,
		interviewer: gemini.NewInterviewer(generator, lg),
		setup:       setup.NewAggregator(presets),
	}
}

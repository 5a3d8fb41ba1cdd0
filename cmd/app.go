package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-trainer/internal/ai"
	"github.com/spigell/interview-trainer/internal/ai/gemini"
	"github.com/spigell/interview-trainer/internal/catalog"
	"github.com/spigell/interview-trainer/internal/interview"
	"github.com/spigell/interview-trainer/internal/logger"
	"github.com/spigell/interview-trainer/internal/metrics"
	"github.com/spigell/interview-trainer/internal/questions"
	"github.com/spigell/interview-trainer/internal/secrets"
	"github.com/spigell/interview-trainer/internal/storage"
)

// application holds everything a command needs.
type application struct {
	config   *Config
	logger   *zap.Logger
	catalog  *catalog.Catalog
	filters  []questions.Filter
	store    storage.Store
	registry *prometheus.Registry
	service  *interview.Service
}

// newLogger builds the command logger. Interactive commands log to stderr so
// their own output on stdout stays readable.
func newLogger(interactive bool) *zap.Logger {
	opts := logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
	}
	if interactive {
		opts.OutputPaths = []string{"stderr"}
	}

	l, err := logger.New(opts)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// newApplication loads the config and wires the catalog, filters, store,
// optional reviewer and metrics into an interview service.
func newApplication(ctx context.Context, interactive bool) (*application, error) {
	l := newLogger(interactive)

	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	l.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	a := &application{config: config, logger: l}

	if a.catalog, err = loadCatalog(config.CatalogFile); err != nil {
		return nil, err
	}

	if a.filters, err = prepareFilters(config, l); err != nil {
		return nil, err
	}

	if a.store, err = storage.Open(ctx, config.Storage); err != nil {
		return nil, fmt.Errorf("opening %q storage: %w", config.Storage.Driver, err)
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []interview.Option{
		interview.WithStore(a.store),
		interview.WithLogger(l),
		interview.WithMetrics(metrics.New(a.registry)),
		interview.WithGeneratorOptions(questions.WithFilters(a.filters...)),
	}

	if config.AI != nil && config.AI.Enabled {
		reviewer, err := newAIReviewer(ctx, config.AI, l)
		if err != nil {
			// The heuristic evaluation works without a reviewer.
			l.Warn("skipping AI review", zap.Error(err))
		} else {
			opts = append(opts,
				interview.WithReviewer(reviewer),
				interview.WithMaxLogLength(config.AI.Gemini.MaxLogLength),
			)
		}
	}

	a.service = interview.NewService(a.catalog, opts...)

	l.Info("application ready",
		zap.String("version", version),
		zap.String("storage", orDefaultDriver(config.Storage.Driver)),
		zap.Int("majors", len(a.catalog.Majors())),
		zap.Any("filters", questions.Describe(a.filters)),
	)

	return a, nil
}

func (a *application) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing storage", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// count picks the flag value, then the configured default.
func (a *application) count(flag int) int {
	if flag > 0 {
		return flag
	}
	return a.config.DefaultCount
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return catalog.Default()
	}
	c, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	return c, nil
}

func prepareFilters(config *Config, l *zap.Logger) ([]questions.Filter, error) {
	var steps []questions.Filter

	if config.ExcludeFile != "" {
		f, err := questions.NewExcludeFile(config.ExcludeFile)
		if err != nil {
			return nil, fmt.Errorf("reading exclude file: %w", err)
		}
		steps = append(steps, f)
	}

	if config.MaxQuestionDuration > 0 {
		steps = append(steps, questions.NewMaxDuration(config.MaxQuestionDuration))
	}

	l.Debug("question filters prepared", zap.Int("count", len(steps)))
	return steps, nil
}

func newAIReviewer(ctx context.Context, cfg *AIConfig, l *zap.Logger) (ai.Reviewer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai review is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, l)
	if err != nil {
		return nil, err
	}

	return gemini.NewReviewer(generator, logger.WithAI(l, "gemini", generator.Model()), cfg.Gemini.MaxLogLength), nil
}

func orDefaultDriver(driver string) string {
	if driver == "" {
		return storage.DriverMemory
	}
	return driver
}

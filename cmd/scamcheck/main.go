package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/mikey/scam-sentinel/internal/adapters/mailbox"
	"github.com/mikey/scam-sentinel/internal/adapters/store"
	"github.com/mikey/scam-sentinel/internal/config"
	"github.com/mikey/scam-sentinel/internal/configstore"
	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/mikey/scam-sentinel/internal/factory"
	"github.com/mikey/scam-sentinel/internal/logging"
	"github.com/mikey/scam-sentinel/internal/metrics"
	"github.com/mikey/scam-sentinel/internal/notify"
	"github.com/mikey/scam-sentinel/internal/utils"
	"go.uber.org/zap"
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "openai", "LLM provider (openai, gemini, bedrock)")
	maxTokens   = flag.Int("max-tokens", 600, "Maximum tokens for LLM response")
	temperature = flag.Float64("temperature", 0.1, "Temperature for LLM generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for LLM generation")
	maxBodySize = flag.Int("max-body-size", 5000, "Maximum message body size to send to LLM")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4o-mini", "OpenAI model name")

	// URL reputation flags
	reputationAPIKey = flag.String("reputation-api-key", "", "API key for the URL reputation service")

	// Input flags
	checkText  = flag.String("text", "", "Check a text snippet for scam signals")
	checkURL   = flag.String("url", "", "Check a single URL against the reputation service")
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	userID     = flag.String("user", "cli", "User ID to record on the verdict")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	pipeline, err := buildPipeline(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build pipeline", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch {
	case *checkText != "":
		runCheckText(ctx, pipeline, logger)
	case *checkURL != "":
		runCheckURL(ctx, pipeline, logger)
	default:
		runCheckEmail(ctx, pipeline, logger)
	}
}

// buildPipeline assembles a one-shot pipeline: in-memory store, no
// notification channels. Verdicts go to stdout, not to a dispatcher.
func buildPipeline(cfg *config.Config, logger *zap.Logger) (*core.PipelineService, error) {
	textProcessor := utils.NewTextProcessor(logger)

	classifier, err := factory.NewClassifierFactory(cfg, logger, textProcessor).CreateClassifier()
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	reputation, err := factory.NewReputationFactory(cfg, logger).CreateReputationChecker()
	if err != nil {
		return nil, fmt.Errorf("failed to create reputation checker: %w", err)
	}

	configs, err := configstore.NewViperStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert configs: %w", err)
	}

	alerts, err := cfg.GetAlerts()
	if err != nil {
		return nil, fmt.Errorf("invalid alert configuration: %w", err)
	}

	notifier := notify.NewDispatcher(
		map[notify.ChannelKind]core.ChannelSender{},
		alerts.RateLimitWindow,
		alerts.DigestFlushAfter,
		clock.New(),
		logger,
		metrics.New(),
	)

	repCfg, err := cfg.GetReputation()
	if err != nil {
		return nil, fmt.Errorf("invalid reputation configuration: %w", err)
	}

	return core.NewPipelineService(
		classifier,
		reputation,
		store.NewMemoryStore(),
		configs,
		notifier,
		logger,
		repCfg.MaxURLs,
	), nil
}

func runCheckText(ctx context.Context, pipeline *core.PipelineService, logger *zap.Logger) {
	verdict, err := pipeline.CheckText(ctx, *userID, *checkText)
	if err != nil {
		logger.Fatal("Text check failed", zap.Error(err))
	}
	printVerdict(verdict)
}

func runCheckURL(ctx context.Context, pipeline *core.PipelineService, logger *zap.Logger) {
	report, err := pipeline.CheckURL(ctx, *checkURL)
	if err != nil {
		var rateErr *core.RateLimitError
		if errors.As(err, &rateErr) {
			fmt.Printf("Rate limited: try again in %d seconds\n", int(rateErr.RetryAfter.Seconds()))
			os.Exit(2)
		}
		logger.Fatal("URL check failed", zap.Error(err))
	}

	if report.Pending {
		fmt.Printf("URL submitted for analysis, no report yet: %s\n", report.URL)
		return
	}
	fmt.Printf("URL:        %s\n", report.URL)
	fmt.Printf("Malicious:  %d\n", report.Malicious)
	fmt.Printf("Suspicious: %d\n", report.Suspicious)
	fmt.Printf("Harmless:   %d\n", report.Harmless)
	fmt.Printf("Undetected: %d\n", report.Undetected)
}

func runCheckEmail(ctx context.Context, pipeline *core.PipelineService, logger *zap.Logger) {
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	msg, err := mailbox.ParseMessage(bufio.NewReader(emailReader), *userID)
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	verdict, err := pipeline.ProcessMessage(ctx, msg)
	if err != nil {
		logger.Fatal("Pipeline failed", zap.Error(err))
	}
	printVerdict(verdict)
}

func printVerdict(v *core.Verdict) {
	fmt.Printf("Label:  %s\n", v.Label)
	fmt.Printf("Score:  %d\n", v.Score)
	for _, reason := range v.Reasons {
		fmt.Printf("Reason: %s\n", reason)
	}
	fmt.Printf("Advice: %s\n", v.Advice)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	// Set LLM provider
	v.Set("llm.provider", *provider)

	// Set provider-specific configuration
	switch *provider {
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
		v.Set("openai.max_body_size", *maxBodySize)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
		v.Set("gemini.max_body_size", *maxBodySize)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
		v.Set("bedrock.max_body_size", *maxBodySize)
	}

	// Set reputation API key
	if *reputationAPIKey != "" {
		v.Set("reputation.api_key", *reputationAPIKey)
	}

	return config.NewFromViper(v)
}

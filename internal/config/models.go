package config

import "time"

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// MailboxConfig represents the configuration for the IMAP mailbox
type MailboxConfig struct {
	Host             string
	Port             int
	Username         string
	Password         string
	Folder           string
	PollInterval     time.Duration
	ReconnectBackoff time.Duration
}

// ReputationConfig represents the configuration for the URL reputation oracle
type ReputationConfig struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	MaxURLs       int
	QuotaRequests int
	QuotaWindow   time.Duration
	CacheType     string
	CacheTTL      time.Duration
	RedisAddr     string
}

// AlertsConfig represents the configuration for alert dispatching
type AlertsConfig struct {
	MinScore         int
	RateLimitWindow  time.Duration
	DigestFlushAfter time.Duration
}

// SMTPConfig represents the configuration for the outbound email channel
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetMailbox returns the mailbox configuration
func (c *Config) GetMailbox() (MailboxConfig, error) {
	pollInterval, err := c.GetDuration("mailbox.poll_interval")
	if err != nil {
		return MailboxConfig{}, err
	}
	backoff, err := c.GetDuration("mailbox.reconnect_backoff")
	if err != nil {
		return MailboxConfig{}, err
	}
	return MailboxConfig{
		Host:             c.GetString("mailbox.host"),
		Port:             c.GetInt("mailbox.port"),
		Username:         c.GetString("mailbox.username"),
		Password:         c.GetString("mailbox.password"),
		Folder:           c.GetString("mailbox.folder"),
		PollInterval:     pollInterval,
		ReconnectBackoff: backoff,
	}, nil
}

// GetReputation returns the URL reputation configuration
func (c *Config) GetReputation() (ReputationConfig, error) {
	timeout, err := c.GetDuration("reputation.timeout")
	if err != nil {
		return ReputationConfig{}, err
	}
	window, err := c.GetDuration("reputation.quota_window")
	if err != nil {
		return ReputationConfig{}, err
	}
	ttl, err := c.GetDuration("reputation.cache_ttl")
	if err != nil {
		return ReputationConfig{}, err
	}
	return ReputationConfig{
		APIKey:        c.GetString("reputation.api_key"),
		BaseURL:       c.GetString("reputation.base_url"),
		Timeout:       timeout,
		MaxURLs:       c.GetInt("reputation.max_urls"),
		QuotaRequests: c.GetInt("reputation.quota_requests"),
		QuotaWindow:   window,
		CacheType:     c.GetString("reputation.cache_type"),
		CacheTTL:      ttl,
		RedisAddr:     c.GetString("reputation.redis_addr"),
	}, nil
}

// GetAlerts returns the alert dispatching configuration
func (c *Config) GetAlerts() (AlertsConfig, error) {
	window, err := c.GetDuration("alerts.rate_limit_window")
	if err != nil {
		return AlertsConfig{}, err
	}
	flushAfter, err := c.GetDuration("alerts.digest_flush_after")
	if err != nil {
		return AlertsConfig{}, err
	}
	return AlertsConfig{
		MinScore:         c.GetInt("alerts.min_score"),
		RateLimitWindow:  window,
		DigestFlushAfter: flushAfter,
	}, nil
}

// GetSMTP returns the outbound SMTP configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Host:     c.GetString("channels.smtp.host"),
		Port:     c.GetInt("channels.smtp.port"),
		Username: c.GetString("channels.smtp.username"),
		Password: c.GetString("channels.smtp.password"),
		From:     c.GetString("channels.smtp.from"),
	}
}

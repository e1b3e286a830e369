package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Generation providers
const (
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
)

// Summarize retrieval modes
const (
	SummarizeSearch  = "search"
	SummarizeHistory = "history"
)

// Response types for messages sent back through a command's response_url
const (
	ResponseEphemeral = "ephemeral"
	ResponseInChannel = "in_channel"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	// AWS
	AWSRegion string

	// Slack
	SlackBotToken   string
	SlackUserToken  string
	SlackAppToken   string
	SlackSigningKey string
	WorkspaceURL    string
	PermalinkLookup bool
	ResponseType    string

	// Generation
	GenerationProvider string
	GeminiAPIKey       string
	GeminiModel        string
	BedrockModelID     string

	// Retrieval
	SummarizeMode string
	HistoryLimit  int
	SearchCount   int

	// DynamoDB
	InvocationsTable  string
	InvocationTTLDays int

	// Step Functions
	StepFunctionArn string

	// Environment
	Environment string
	LogLevel    string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		SlackBotToken:      getEnv("SLACK_BOT_TOKEN", ""),
		SlackUserToken:     getEnv("SLACK_USER_TOKEN", ""),
		SlackAppToken:      getEnv("SLACK_APP_TOKEN", ""),
		SlackSigningKey:    getEnv("SLACK_SIGNING_KEY", ""),
		WorkspaceURL:       strings.TrimRight(getEnv("SLACK_WORKSPACE_URL", ""), "/"),
		PermalinkLookup:    getEnvBool("PERMALINK_LOOKUP", false),
		ResponseType:       getEnv("RESPONSE_TYPE", ResponseEphemeral),
		GenerationProvider: getEnv("GENERATION_PROVIDER", ProviderGemini),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "models/gemini-flash-lite-latest"),
		BedrockModelID:     getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-5-sonnet-20241022-v2:0"),
		SummarizeMode:      getEnv("SUMMARIZE_MODE", SummarizeSearch),
		HistoryLimit:       getEnvInt("HISTORY_LIMIT", 100),
		SearchCount:        getEnvInt("SEARCH_COUNT", 50),
		InvocationsTable:   getEnv("INVOCATIONS_TABLE", "slackbrief-invocations"),
		InvocationTTLDays:  getEnvInt("INVOCATION_TTL_DAYS", 7),
		StepFunctionArn:    getEnv("STEP_FUNCTION_ARN", ""),
		Environment:        getEnv("ENVIRONMENT", "dev"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration every binary needs
func (c *Config) Validate() error {
	if c.SlackBotToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if c.SlackUserToken == "" {
		return fmt.Errorf("SLACK_USER_TOKEN is required")
	}
	switch c.GenerationProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	case ProviderBedrock:
		if c.BedrockModelID == "" {
			return fmt.Errorf("BEDROCK_MODEL_ID is required")
		}
	default:
		return fmt.Errorf("unknown GENERATION_PROVIDER %q", c.GenerationProvider)
	}
	switch c.ResponseType {
	case ResponseEphemeral, ResponseInChannel:
	default:
		return fmt.Errorf("RESPONSE_TYPE must be %s or %s", ResponseEphemeral, ResponseInChannel)
	}
	switch c.SummarizeMode {
	case SummarizeSearch, SummarizeHistory:
	default:
		return fmt.Errorf("SUMMARIZE_MODE must be %s or %s", SummarizeSearch, SummarizeHistory)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive")
	}
	if c.SearchCount <= 0 {
		return fmt.Errorf("SEARCH_COUNT must be positive")
	}
	return nil
}

// ValidateSocketMode checks configuration for the Socket Mode bot
func (c *Config) ValidateSocketMode() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.SlackAppToken == "" {
		return fmt.Errorf("SLACK_APP_TOKEN is required for Socket Mode")
	}
	if !strings.HasPrefix(c.SlackAppToken, "xapp-") {
		return fmt.Errorf("SLACK_APP_TOKEN must start with xapp-")
	}
	return nil
}

// ValidateLambda checks Lambda-specific configuration
func (c *Config) ValidateLambda() error {
	if c.SlackSigningKey == "" {
		return fmt.Errorf("SLACK_SIGNING_KEY is required for Lambda")
	}
	if c.InvocationsTable == "" {
		return fmt.Errorf("INVOCATIONS_TABLE is required for Lambda")
	}
	if c.StepFunctionArn == "" {
		return fmt.Errorf("STEP_FUNCTION_ARN is required for Lambda")
	}
	return nil
}

// ValidateAgent checks configuration for the invocation worker
func (c *Config) ValidateAgent() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.InvocationsTable == "" {
		return fmt.Errorf("INVOCATIONS_TABLE is required for the agent")
	}
	return nil
}

// GetInvocationTTL returns how long invocation records are retained
func (c *Config) GetInvocationTTL() time.Duration {
	return time.Duration(c.InvocationTTLDays*24) * time.Hour
}

// IsDevelopment reports whether the process runs in the dev environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "dev"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		switch value {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

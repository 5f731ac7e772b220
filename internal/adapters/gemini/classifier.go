package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/scam-sentinel/internal/adapters/llmjson"
	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/mikey/scam-sentinel/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const promptFormat = `You are a scam and phishing detection system. Analyze the following message and determine whether it is a scam attempt.
Respond with a JSON object containing:
- label: one of "SCAM", "SUSPICIOUS" or "SAFE"
- score: number between 0 and 100 (higher means more likely to be a scam)
- reasons: array of short strings explaining the assessment
- advice: one short sentence telling the recipient what to do

Message:
From: %s
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`

// Classifier is an implementation of the TextClassifier interface using Google Gemini
type Classifier struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifier creates a new Gemini classifier
func NewClassifier(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Classifier, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Classifier{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *Classifier) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Classify scores a message text for scam likelihood
func (c *Classifier) Classify(ctx context.Context, input core.ClassifierInput) (core.PartialScore, error) {
	body := c.textProcessor.ProcessText(input.Body, c.maxBodySize)
	prompt := fmt.Sprintf(promptFormat, input.Sender, input.Subject, body)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return core.PartialScore{}, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return core.PartialScore{}, fmt.Errorf("empty response from Gemini")
	}

	responseText := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText += string(text)
		}
	}

	score := llmjson.Decode(responseText)
	if score.Failed {
		c.logger.Warn("Gemini returned uninterpretable output, using fallback",
			zap.String("model", c.modelName))
	}
	return score, nil
}

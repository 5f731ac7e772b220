package openai

import (
	"context"
	"fmt"

	"github.com/mikey/scam-sentinel/internal/adapters/llmjson"
	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/mikey/scam-sentinel/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
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

// Classifier is an implementation of the TextClassifier interface using OpenAI
type Classifier struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifier creates a new OpenAI classifier
func NewClassifier(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Classifier {
	return &Classifier{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Classify scores a message text for scam likelihood. A transport failure is
// returned as an error; malformed model output is absorbed by the decode
// boundary and never propagates.
func (c *Classifier) Classify(ctx context.Context, input core.ClassifierInput) (core.PartialScore, error) {
	body := c.textProcessor.ProcessText(input.Body, c.maxBodySize)
	prompt := fmt.Sprintf(promptFormat, input.Sender, input.Subject, body)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a scam detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return core.PartialScore{}, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.PartialScore{}, fmt.Errorf("empty response from OpenAI")
	}

	score := llmjson.Decode(resp.Choices[0].Message.Content)
	if score.Failed {
		c.logger.Warn("OpenAI returned uninterpretable output, using fallback",
			zap.String("model", c.modelName))
	}
	return score, nil
}

// Package openai implements llm.Client against an OpenAI-compatible Chat
// Completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shadow7-backend/internal/llm"
)

const apiURL = "https://api.openai.com/v1/chat/completions"

// maxPromptChars caps the manuscript portion of the prompt to stay inside
// the provider's context window.
const maxPromptChars = 1_000_000

const purgePrompt = `أنت محلل نصوص عربية متخصص. مهمتك تحليل المخطوطة التالية وتحديد:
1. تكرارات (duplicates): عدد الجمل أو الفقرات المكررة أو شبه المكررة
2. شذوذ (outliers): عدد الفقرات أو الأقسام التي تخرج عن الموضوع الرئيسي
3. تحولات موضوعية (thematic_shifts): عدد النقاط التي يتحول فيها الخطاب بشكل مفاجئ أو غير متناسق

أرجع الإجابة بصيغة JSON فقط، بدون أي نص إضافي قبل أو بعد. الصيغة المطلوبة:
{
  "duplicates": <عدد صحيح>,
  "outliers": <عدد صحيح>,
  "thematic_shifts": <عدد صحيح>,
  "word_count_after": <عدد الكلمات بعد التنظيف المقترح>,
  "anomalies_fixed": <عدد الإصلاحات المقترحة>
}

المخطوطة:
`

// Client implements llm.Client using an OpenAI-compatible chat endpoint.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a new Client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, llm.ErrNotConfigured
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required")
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// AnalyzePurge sends the manuscript for semantic purge analysis.
func (c *Client) AnalyzePurge(ctx context.Context, text string) (llm.PurgeAnalysis, error) {
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	temp := float32(0.2)
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: purgePrompt + text},
		},
		Temperature:    &temp,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return llm.PurgeAnalysis{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return llm.PurgeAnalysis{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.PurgeAnalysis{}, fmt.Errorf("purge request timeout: %w", err)
		}
		return llm.PurgeAnalysis{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.PurgeAnalysis{}, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return llm.PurgeAnalysis{}, fmt.Errorf("purge response parse: %w", err)
	}
	if parsed.Error != nil {
		return llm.PurgeAnalysis{}, fmt.Errorf("provider error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return llm.PurgeAnalysis{}, fmt.Errorf("purge response missing choices")
	}

	content := extractJSON(parsed.Choices[0].Message.Content)
	var analysis llm.PurgeAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return llm.PurgeAnalysis{}, fmt.Errorf("purge analysis parse: %w", err)
	}
	return analysis, nil
}

// extractJSON strips markdown code fences some models wrap around JSON.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if !strings.Contains(content, "```") {
		return content
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

var _ llm.Client = (*Client)(nil)

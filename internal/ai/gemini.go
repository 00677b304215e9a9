package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Turn is one prior question/answer pair passed back to the model so answers
// can reference earlier parts of the conversation.
type Turn struct {
	Question string
	Answer   string
}

// Collaborator is the document-understanding dependency. Implementations may
// block for seconds; callers bound them with a context deadline.
type Collaborator interface {
	Summarize(ctx context.Context, documentURL string) (string, error)
	Answer(ctx context.Context, documentURL, question string, history []Turn) (string, error)
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type GeminiClient struct {
	cfg  GeminiConfig
	http *http.Client
}

func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	return &GeminiClient{
		cfg: cfg,
		// Per-request timeouts come from the caller's context.
		http: &http.Client{Timeout: 0},
	}, nil
}

const summarizePrompt = `Please analyze the document at the following URL and provide a brief summary of what it contains. Focus on the main topics, key information, and structure of the document.

Document URL: %s`

const answerPrompt = `Please analyze the document at the following URL and answer the question accurately and comprehensively. Provide a detailed answer based only on the information available in the document. If the answer cannot be found in the document, say so clearly.

Document URL: %s

Question: %s`

func (c *GeminiClient) Summarize(ctx context.Context, documentURL string) (string, error) {
	contents := []geminiContent{
		{Role: "user", Parts: []geminiPart{{Text: fmt.Sprintf(summarizePrompt, documentURL)}}},
	}
	return c.generate(ctx, contents)
}

func (c *GeminiClient) Answer(ctx context.Context, documentURL, question string, history []Turn) (string, error) {
	contents := make([]geminiContent, 0, 2*len(history)+1)
	for _, turn := range history {
		contents = append(contents,
			geminiContent{Role: "user", Parts: []geminiPart{{Text: turn.Question}}},
			geminiContent{Role: "model", Parts: []geminiPart{{Text: turn.Answer}}},
		)
	}
	contents = append(contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: fmt.Sprintf(answerPrompt, documentURL, question)}},
	})
	return c.generate(ctx, contents)
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *GeminiClient) generate(ctx context.Context, contents []geminiContent) (string, error) {
	payload, err := json.Marshal(generateRequest{Contents: contents})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed after %s: %w", time.Since(start).Round(time.Millisecond), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("gemini returned unparseable response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("gemini error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		return "", fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini returned no candidates")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

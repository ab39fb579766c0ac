package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// suggestionLimit bounds how many memory matches are put in the prompt.
const suggestionLimit = 3

// OllamaProvider translates via a local Ollama model.
type OllamaProvider struct {
	baseURL    string
	model      string
	confidence float64
	httpClient *http.Client
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		confidence: 0.9,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *OllamaProvider) Name() string { return "ollama" }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Translate asks the model for a translation of req.Text.
func (c *OllamaProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	body := generateRequest{
		Model:  c.model,
		System: systemPrompt(req),
		Prompt: userPrompt(req),
		Stream: false,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read generate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama generate: status %d: %s", resp.StatusCode, string(raw))
	}

	var result generateResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode generate response: %w", err)
	}

	text := strings.TrimSpace(result.Response)
	if text == "" {
		return nil, ErrNoTranslation
	}

	return &Result{Text: text, Confidence: c.confidence, Provider: c.Name()}, nil
}

// HealthCheck verifies Ollama is reachable.
func (c *OllamaProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("ollama health check: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check: status %d", resp.StatusCode)
	}
	return nil
}

func systemPrompt(req Request) string {
	var b strings.Builder
	source := req.SourceLang
	if source == "" {
		source = "the source language"
	}
	fmt.Fprintf(&b, "You are a professional literary translator. Translate the text from %s to %s. ", source, req.TargetLang)
	b.WriteString("Keep the original meaning, tone and formatting. Reply with the translation only.")
	if req.Style != "" {
		fmt.Fprintf(&b, "\nStyle: %s", req.Style)
	}

	if len(req.Characters) > 0 {
		b.WriteString("\nCharacter names (use these renderings):")
		for _, ch := range req.Characters {
			if ch.NameTranslated == "" {
				continue
			}
			fmt.Fprintf(&b, "\n- %s -> %s", ch.NameOriginal, ch.NameTranslated)
		}
	}

	if len(req.Glossary) > 0 {
		terms := make([]string, 0, len(req.Glossary))
		for k := range req.Glossary {
			terms = append(terms, k)
		}
		sort.Strings(terms)
		b.WriteString("\nGlossary:")
		for _, k := range terms {
			fmt.Fprintf(&b, "\n- %s -> %s", k, req.Glossary[k])
		}
	}

	if len(req.Suggestions) > 0 {
		b.WriteString("\nEarlier translations of similar passages:")
		for i, m := range req.Suggestions {
			if i == suggestionLimit {
				break
			}
			fmt.Fprintf(&b, "\n- %q -> %q", m.Entry.OriginalText, m.Entry.TranslatedText)
		}
	}
	return b.String()
}

func userPrompt(req Request) string {
	return req.Text
}

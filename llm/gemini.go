package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

// invalidKeyMarker — так Gemini описывает неверный ключ в тексте ошибки
const invalidKeyMarker = "API key not valid"

// GeminiClient — Client поверх Google Generative AI SDK
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiClient настраивает модель с системной инструкцией.
// Ключ проверяется сервисом только при первом запросе.
func NewGeminiClient(ctx context.Context, apiKey, modelName, systemInstruction string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	if systemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemInstruction)},
		}
	}

	return &GeminiClient{client: client, model: model}, nil
}

// GenerateText implements Client.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyError(err)
	}
	return responseText(resp), nil
}

// Close освобождает соединения SDK
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// responseText склеивает текстовые части первого кандидата
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

// classifyError сводит ошибку SDK к одному из классов из errors.go.
// Сначала смотрим на структурированные поля, подстрока — последний вариант.
func classifyError(err error) error {
	var ae *apierror.APIError
	if errors.As(err, &ae) {
		switch {
		case ae.Reason() == "API_KEY_INVALID":
			return fmt.Errorf("%w: %w", ErrInvalidKey, err)
		case ae.HTTPCode() == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
		case ae.GRPCStatus() != nil && ae.GRPCStatus().Code() == codes.ResourceExhausted:
			return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
		case strings.Contains(ae.Error(), invalidKeyMarker):
			return fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return fmt.Errorf("%w: %w", ErrAPI, err)
	}

	var ge *googleapi.Error
	if errors.As(err, &ge) {
		switch {
		case ge.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
		case strings.Contains(ge.Message, invalidKeyMarker), strings.Contains(ge.Body, invalidKeyMarker):
			return fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return fmt.Errorf("%w: %w", ErrAPI, err)
	}

	if strings.Contains(err.Error(), invalidKeyMarker) {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return err
}

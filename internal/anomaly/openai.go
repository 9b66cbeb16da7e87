package anomaly

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/auditly/invoice-auditor/internal/models"
)

// OpenAIChecker detects anomalies with a chat-completion model. Model
// output is parsed as a JSON finding list; responses wrapped in
// markdown fences are recovered by brace matching.
type OpenAIChecker struct {
	client *openai.Client
	model  string
	temp   float32
	logger *zap.Logger
}

// NewOpenAIChecker creates an OpenAI-backed anomaly checker.
func NewOpenAIChecker(apiKey, model string, temperature float32, logger *zap.Logger) *OpenAIChecker {
	return &OpenAIChecker{
		client: openai.NewClient(apiKey),
		model:  model,
		temp:   temperature,
		logger: logger,
	}
}

// Finding is the response schema the model is prompted to produce.
type Finding struct {
	Description    string `json:"description"`
	Severity       string `json:"severity"`
	Reasoning      string `json:"reasoning"`
	Recommendation string `json:"recommendation"`
}

// Check implements Checker.
func (c *OpenAIChecker) Check(ctx context.Context, inv *models.Invoice, spendingSummary string) ([]models.Issue, error) {
	prompt, err := c.buildPrompt(inv, spendingSummary)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Sending anomaly analysis request to OpenAI",
		zap.String("invoice_id", inv.InvoiceID))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temp,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an invoice auditing assistant. Analyze invoice data for anomalies that rule-based checks would miss: unusual vendor behavior, out-of-pattern spending, suspicious line item combinations. Always respond with a valid JSON array.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		c.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	findings, err := ParseFindings(resp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Error("Failed to parse anomaly response",
			zap.Error(err),
			zap.String("content", resp.Choices[0].Message.Content))
		return nil, err
	}

	issues := make([]models.Issue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, models.Issue{
			Kind:           models.KindExternalAnomaly,
			Title:          "AI-Detected Anomaly",
			Description:    f.Description,
			Explanation:    f.Reasoning,
			Recommendation: f.Recommendation,
			Severity:       normalizeSeverity(f.Severity),
			Source:         models.SourceExternalAnomaly,
		})
	}

	c.logger.Info("Anomaly analysis completed",
		zap.String("invoice_id", inv.InvoiceID),
		zap.Int("findings", len(issues)))

	return issues, nil
}

func (c *OpenAIChecker) buildPrompt(inv *models.Invoice, spendingSummary string) (string, error) {
	invoiceJSON, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize invoice: %w", err)
	}

	return fmt.Sprintf(`Analyze this invoice for anomalies:

**Invoice:**
%s

**Recent spending history:**
%s

Respond with ONLY a valid JSON array (no markdown, no explanation). Each element must have this exact structure:
{
  "description": string describing the anomaly,
  "severity": "low" | "medium" | "high",
  "reasoning": string explaining why this is anomalous,
  "recommendation": string suggesting a resolution
}

Return an empty array [] if nothing is anomalous.`, string(invoiceJSON), spendingSummary), nil
}

// ParseFindings parses a model response into findings, tolerating
// surrounding prose or markdown fences around the JSON array.
func ParseFindings(content string) ([]Finding, error) {
	var findings []Finding
	if err := json.Unmarshal([]byte(content), &findings); err == nil {
		return findings, nil
	}

	start := findArrayStart(content)
	if start < 0 {
		return nil, fmt.Errorf("no JSON array in response")
	}
	end := findArrayEnd(content, start)
	if end <= start {
		return nil, fmt.Errorf("unterminated JSON array in response")
	}
	if err := json.Unmarshal([]byte(content[start:end]), &findings); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return findings, nil
}

func normalizeSeverity(s string) models.Severity {
	switch models.Severity(s) {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh:
		return models.Severity(s)
	}
	return models.SeverityMedium
}

// findArrayStart finds the first '[' in a string.
func findArrayStart(content string) int {
	for i := 0; i < len(content); i++ {
		if content[i] == '[' {
			return i
		}
	}
	return -1
}

// findArrayEnd finds the index past the bracket matching the one at
// start, skipping brackets inside JSON strings.
func findArrayEnd(content string, start int) int {
	depth := 0
	inString := false
	escapeNext := false

	for i := start; i < len(content); i++ {
		char := content[i]

		if escapeNext {
			escapeNext = false
			continue
		}
		if char == '\\' {
			escapeNext = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if char == '[' {
			depth++
		} else if char == ']' {
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}

	return -1
}

var _ Checker = (*OpenAIChecker)(nil)

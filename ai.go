package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type aiSuggestion struct {
	Account    string  `json:"account"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

type aiResponse struct {
	Suggestions []aiSuggestion `json:"suggestions"`
}

type aiTxn struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Account     string  `json:"account"`
}

type aiCategory struct {
	Name    string `json:"name"`
	Comment string `json:"comment,omitempty"`
}

type aiRequest struct {
	Transactions []aiTxn      `json:"transactions"`
	Categories   []aiCategory `json:"categories"`
}

func buildAIPrompt(req aiRequest) string {
	prompt := `You are a financial transaction categorization expert. The
"categories" field lists the accounts of a ledger journal, with optional
human-written descriptions of what belongs in each. The frequency model
trained on this journal could not categorize the listed transactions.

For each transaction, suggest the most likely account.

Return a JSON object with one suggestion per transaction, in the SAME
ORDER as the input:

{
  "suggestions": [
    {"account": "Expenses:Food", "confidence": 0.85, "reasoning": "grocery chain"},
    {"account": "", "confidence": 0.0, "reasoning": "cannot tell"}
  ]
}

Rules:
- "account" must be one of the listed categories, or "" if you cannot
  tell with reasonable confidence.
- "confidence" is in [0,1]; "reasoning" is at most 10 words.
- Return exactly one suggestion per input transaction.

Transaction data:

`
	data, _ := json.MarshalIndent(req, "", "  ")
	return prompt + string(data) + "\n\nNow generate the JSON response:"
}

func callClaude(apiKey, model, prompt string) (aiResponse, error) {
	var empty aiResponse
	if len(apiKey) == 0 {
		return empty, fmt.Errorf("ANTHROPIC_API_KEY not set in environment or config.yaml")
	}
	if len(model) == 0 {
		model = "claude-sonnet-4-5-20250929"
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	message, err := client.Messages.New(context.Background(), anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 8192,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return empty, fmt.Errorf("claude API call failed: %v", err)
	}
	if len(message.Content) == 0 {
		return empty, fmt.Errorf("empty response from Claude API")
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return parseAIResponse(text)
}

// parseAIResponse extracts the JSON object from the model's reply,
// which may be wrapped in markdown fences or prose.
func parseAIResponse(text string) (aiResponse, error) {
	var empty aiResponse
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return empty, fmt.Errorf("no JSON found in response: %s", text)
	}
	var resp aiResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return empty, fmt.Errorf("failed to parse JSON response: %v", err)
	}
	return resp, nil
}

// reviewUnknowns asks the Claude API to suggest accounts for the
// transactions that are still Unknown after the local classifiers. A
// failed call leaves its batch Unknown; it never aborts the run.
func reviewUnknowns(txns []*Txn, accounts []string, comments map[string]string, apiKey, model string) {
	if len(txns) == 0 {
		return
	}
	categories := make([]aiCategory, 0, len(accounts))
	for _, acc := range accounts {
		categories = append(categories, aiCategory{Name: acc, Comment: comments[acc]})
	}
	known := make(map[string]bool, len(accounts))
	for _, acc := range accounts {
		known[acc] = true
	}

	totalBatches := (len(txns) + *batchSize - 1) / *batchSize
	for batchNum := 0; batchNum < totalBatches; batchNum++ {
		startIdx := batchNum * *batchSize
		endIdx := min(startIdx+*batchSize, len(txns))
		batch := txns[startIdx:endIdx]

		req := aiRequest{Categories: categories}
		for _, t := range batch {
			req.Transactions = append(req.Transactions, aiTxn{
				Date:        t.Date.Format("2006-01-02"),
				Description: t.Desc,
				Amount:      t.Cur,
				Currency:    t.CurName,
				Account:     t.Account,
			})
		}

		fmt.Fprintf(os.Stderr, "Reviewing batch %d/%d (%d unknown transactions) with AI...\n",
			batchNum+1, totalBatches, len(batch))
		resp, err := callClaude(apiKey, model, buildAIPrompt(req))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: AI review of batch %d failed: %v\n", batchNum+1, err)
			continue
		}
		if len(resp.Suggestions) != len(batch) {
			fmt.Fprintf(os.Stderr, "Warning: AI returned %d suggestions for %d transactions, batch ignored\n",
				len(resp.Suggestions), len(batch))
			continue
		}

		for i, sug := range resp.Suggestions {
			if len(sug.Account) == 0 || sug.Account == unknownAccount {
				continue
			}
			if len(known) > 0 && !known[sug.Account] {
				fmt.Fprintf(os.Stderr, "Warning: AI suggested undeclared account %q, ignored\n", sug.Account)
				continue
			}
			batch[i].Counter = sug.Account
			batch[i].Comment = strings.TrimSpace(fmt.Sprintf("ai: confidence=%.2f %s", sug.Confidence, sug.Reasoning))
		}
	}
}

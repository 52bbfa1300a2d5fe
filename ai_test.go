package main

import (
	"strings"
	"testing"
)

func TestParseAIResponse(t *testing.T) {
	t.Run("bareJSON", func(t *testing.T) {
		resp, err := parseAIResponse(`{"suggestions": [{"account": "Expenses:Food", "confidence": 0.85, "reasoning": "grocery chain"}]}`)
		if err != nil {
			t.Fatalf("parseAIResponse: %v", err)
		}
		if len(resp.Suggestions) != 1 {
			t.Fatalf("got %d suggestions, want 1", len(resp.Suggestions))
		}
		sug := resp.Suggestions[0]
		if sug.Account != "Expenses:Food" || sug.Confidence != 0.85 {
			t.Errorf("suggestion = %+v", sug)
		}
	})

	t.Run("fencedJSON", func(t *testing.T) {
		text := "Here is the categorization:\n```json\n" +
			`{"suggestions": [{"account": "", "confidence": 0.0}]}` +
			"\n```\nLet me know if you need anything else."
		resp, err := parseAIResponse(text)
		if err != nil {
			t.Fatalf("parseAIResponse: %v", err)
		}
		if len(resp.Suggestions) != 1 || resp.Suggestions[0].Account != "" {
			t.Errorf("suggestions = %+v", resp.Suggestions)
		}
	})

	t.Run("noJSON", func(t *testing.T) {
		if _, err := parseAIResponse("I cannot categorize these."); err == nil {
			t.Error("expected an error for a reply without JSON")
		}
	})
}

func TestBuildAIPrompt(t *testing.T) {
	req := aiRequest{
		Transactions: []aiTxn{
			{Date: "2016-12-30", Description: "GROCERY STORE", Amount: -123.45, Currency: "USD", Account: "Assets:Checking"},
		},
		Categories: []aiCategory{
			{Name: "Expenses:Food", Comment: "Groceries and restaurants"},
			{Name: "Income:Salary"},
		},
	}
	prompt := buildAIPrompt(req)

	for _, want := range []string{
		"GROCERY STORE",
		"Expenses:Food",
		"Groceries and restaurants",
		"one suggestion per transaction",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

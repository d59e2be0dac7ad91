// Package search wraps the Perplexity API used to enrich supplier
// context. Results are advisory: every failure degrades to fallback
// text, never an aborted run.
package search

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const apiURL = "https://api.perplexity.ai/chat/completions"

// Client queries Perplexity.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a search client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		httpClient: resty.New().
			SetHeader("Authorization", "Bearer "+apiKey).
			SetHeader("Content-Type", "application/json").
			SetTimeout(30 * time.Second),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Search runs a query and returns (content, err). On failure the
// content still carries a short explanation the caller can surface.
func (c *Client) Search(query string) (string, error) {
	if c == nil {
		return "Search unavailable - API key not configured", fmt.Errorf("search client not configured")
	}

	var apiResp chatResponse
	resp, err := c.httpClient.R().
		SetBody(chatRequest{
			Model:    "sonar",
			Messages: []chatMessage{{Role: "user", Content: query}},
		}).
		SetResult(&apiResp).
		Post(apiURL)
	if err != nil {
		return "Search failed due to network error", fmt.Errorf("search request: %w", err)
	}
	if resp.IsError() {
		return "Search failed", fmt.Errorf("search api error %d: %s", resp.StatusCode(), resp.String())
	}
	if len(apiResp.Choices) == 0 {
		return "Search returned no results", fmt.Errorf("no response content")
	}
	return apiResp.Choices[0].Message.Content, nil
}

// Suppliers looks up wholesale suppliers for vending products.
func (c *Client) Suppliers(location, productTypes string) (string, error) {
	if location == "" {
		location = "United States"
	}
	query := fmt.Sprintf("wholesale suppliers vending machine snacks drinks candy %s contact information email", location)
	if productTypes != "" {
		query = fmt.Sprintf("wholesale suppliers %s vending machine products %s contact information email", productTypes, location)
	}
	return c.Search(query)
}

// ProductInfo looks up information about one product.
func (c *Client) ProductInfo(product, infoType string) (string, error) {
	if infoType == "" {
		infoType = "pricing"
	}
	return c.Search(fmt.Sprintf("%s wholesale %s vending machine supplier cost price", product, infoType))
}

// Package completion adapts a remote chat-completion API to a lazy, finite
// sequence of text chunks consumed by concatenation.
package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"pkt.systems/pslog"
	"pkt.systems/shellm/schema"
)

// Source produces completion text for an ordered message sequence. The content
// channel carries chunks in order and is closed when the sequence ends; the
// error channel is buffered and receives at most one error.
type Source interface {
	Stream(ctx context.Context, messages []schema.Message, opts schema.ChatOptions) (<-chan string, <-chan error)
}

// ClientConfig configures the OpenAI-compatible client.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client is a Source backed by an OpenAI-compatible endpoint.
type Client struct {
	api *openai.Client
	log pslog.Logger
}

// NewClient constructs a completion client.
func NewClient(cfg ClientConfig, logger pslog.Logger) *Client {
	return &Client{api: openai.NewClientWithConfig(apiConfig(cfg)), log: logger}
}

func apiConfig(cfg ClientConfig) openai.ClientConfig {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return clientConfig
}

// Stream runs one completion request. With streaming disabled the whole
// completion arrives as a single chunk.
func (c *Client) Stream(ctx context.Context, messages []schema.Message, opts schema.ChatOptions) (<-chan string, <-chan error) {
	content := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(content)
		defer close(errc)
		req := buildRequest(messages, opts)
		if c.log != nil {
			c.log.Debug("completion start", "model", req.Model, "messages", len(req.Messages), "stream", req.Stream)
		}
		if opts.NoStream {
			resp, err := c.api.CreateChatCompletion(ctx, req)
			if err != nil {
				errc <- err
				return
			}
			if len(resp.Choices) == 0 {
				errc <- fmt.Errorf("empty completion response")
				return
			}
			select {
			case content <- resp.Choices[0].Message.Content:
			case <-ctx.Done():
				errc <- ctx.Err()
			}
			return
		}
		stream, err := c.api.CreateChatCompletionStream(ctx, req)
		if err != nil {
			errc <- err
			return
		}
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errc <- err
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			chunk := resp.Choices[0].Delta.Content
			if chunk == "" {
				continue
			}
			select {
			case content <- chunk:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return content, errc
}

func buildRequest(messages []schema.Message, opts schema.ChatOptions) openai.ChatCompletionRequest {
	converted := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		converted[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	req := openai.ChatCompletionRequest{
		Model:       string(opts.Model),
		Messages:    converted,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		Stream:      !opts.NoStream,
	}
	for _, fn := range opts.Functions {
		req.Functions = append(req.Functions, openai.FunctionDefinition{
			Name:        fn.Name,
			Description: fn.Description,
			Parameters:  fn.Parameters,
		})
	}
	return req
}

// Collect drains a source stream into the full completion text.
func Collect(content <-chan string, errs <-chan error) (string, error) {
	var b strings.Builder
	for chunk := range content {
		b.WriteString(chunk)
	}
	if err := <-errs; err != nil {
		return b.String(), err
	}
	return b.String(), nil
}

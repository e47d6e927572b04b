// Package client streams answers from a running gateway.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/dotcommander/agentgw/internal/errs"
	"github.com/dotcommander/agentgw/internal/proto"
	"github.com/dotcommander/agentgw/internal/wire"
)

const maxErrorBody = 8 * 1024

// Client talks to the gateway's HTTP endpoints.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for the gateway at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
	}
}

// Chat posts message to /chat and yields the raw response text as it
// arrives.
func (c *Client) Chat(ctx context.Context, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.post(ctx, "/chat", map[string]string{"message": message})
		if err != nil {
			yield("", err)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		buf := make([]byte, 4096)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 && !yield(string(buf[:n]), nil) {
				return
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("read response: %w", err))
				return
			}
		}
	}
}

// Complete posts msgs to /v1/chat/completions and yields the content of
// every streamed chunk.
func (c *Client) Complete(ctx context.Context, model string, msgs []proto.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		type message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}
		body := struct {
			Model    string    `json:"model"`
			Messages []message `json:"messages"`
			Stream   bool      `json:"stream"`
		}{Model: model, Stream: true}
		for _, m := range msgs {
			body.Messages = append(body.Messages, message{Role: m.Role, Content: m.Content})
		}

		resp, err := c.post(ctx, "/v1/chat/completions", body)
		if err != nil {
			yield("", err)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		for chunk, err := range wire.ReadChunks(resp.Body) {
			if err != nil {
				yield("", err)
				return
			}
			text := chunk.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

// Models returns the model ids served by the gateway.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/models", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode models: %w", err)
	}
	ids := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, errs.Wrapf(err, "Could not reach the gateway at %s.", c.BaseURL)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()
	return nil, statusError(resp)
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
		msg = body.Error.Message
	}
	if msg == "" {
		msg = resp.Status
	}
	return errs.Wrapf(
		errs.UserErrorf("%s: %s", resp.Status, msg),
		"The gateway rejected the request.",
	)
}

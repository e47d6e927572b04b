package config

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	systemFetchTimeout  = 10 * time.Second
	maxSystemMsgBytes   = 2 << 20
	maxErrorBodyBytes   = 8 << 10
	frontmatterBoundary = "---"
)

// LoadMsg resolves the system setting to the message text. The setting is
// either the text itself, an http(s) URL, or a file:// path. Markdown files
// may start with YAML frontmatter, which is dropped.
func LoadMsg(ctx context.Context, msg string) (string, error) {
	switch {
	case strings.HasPrefix(msg, "https://"), strings.HasPrefix(msg, "http://"):
		return fetchSystemMsg(ctx, msg)
	case strings.HasPrefix(msg, "file://"):
		return readSystemMsgFile(strings.TrimPrefix(msg, "file://"))
	default:
		return msg, nil
	}
}

func fetchSystemMsg(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, systemFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch system message: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch system message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", fmt.Errorf("fetch system message: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// One byte past the limit tells an exact fit from an oversized body.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSystemMsgBytes+1))
	if err != nil {
		return "", fmt.Errorf("read system message: %w", err)
	}
	if len(body) > maxSystemMsgBytes {
		return "", fmt.Errorf("read system message: larger than %d bytes", maxSystemMsgBytes)
	}
	return string(body), nil
}

func readSystemMsgFile(path string) (string, error) {
	bts, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system message file: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".md") {
		return string(bts), nil
	}
	return StripYAMLFrontmatter(string(bts))
}

// StripYAMLFrontmatter returns content without its leading YAML frontmatter
// block. Content without one is returned as is; an unterminated or invalid
// block is an error.
func StripYAMLFrontmatter(content string) (string, error) {
	first, rest, found := strings.Cut(content, "\n")
	if strings.TrimSpace(first) != frontmatterBoundary {
		return content, nil
	}

	var front []string
	for found {
		var line string
		line, rest, found = strings.Cut(rest, "\n")
		if strings.TrimSpace(line) != frontmatterBoundary {
			front = append(front, line)
			continue
		}

		var meta map[string]any
		if err := yaml.Unmarshal([]byte(strings.Join(front, "\n")), &meta); err != nil {
			return "", fmt.Errorf("invalid markdown frontmatter: %w", err)
		}
		if !found {
			return "", nil
		}
		return strings.TrimLeft(rest, "\r\n"), nil
	}
	return "", fmt.Errorf("invalid markdown frontmatter: missing closing delimiter")
}

package config

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxVersionFileSize caps how much of a remote version file is read.
const maxVersionFileSize = 4096

// FetchRemoteVersions downloads the ruby version and gemset files and stores their first
// line in s. A URL left empty is skipped. On error s is left unchanged for that value,
// so callers can warn and continue with the defaults.
func FetchRemoteVersions(ctx context.Context, client *http.Client, s *Settings) error {
	if client == nil {
		client = http.DefaultClient
	}

	if s.RubyVersionURL != "" {
		version, err := fetchLine(ctx, client, s.RubyVersionURL)
		if err != nil {
			return fmt.Errorf("ruby version lookup failed: %w", err)
		}
		s.RubyVersion = version
	}

	if s.GemsetURL != "" {
		gemset, err := fetchLine(ctx, client, s.GemsetURL)
		if err != nil {
			return fmt.Errorf("gemset lookup failed: %w", err)
		}
		s.Gemset = gemset
	}
	return nil
}

// fetchLine GETs url and returns its first non-empty line, trimmed.
func fetchLine(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid URL %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "diaspora-setup")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP GET %s: status %d", url, resp.StatusCode)
	}

	scanner := bufio.NewScanner(io.LimitReader(resp.Body, maxVersionFileSize))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	return "", fmt.Errorf("%s is empty", url)
}

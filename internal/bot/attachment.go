package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxRosterBytes caps how much of an uploaded roster is read. Real exports
// are a few kilobytes.
const maxRosterBytes = 1 << 20

// downloadRoster fetches an uploaded roster attachment from Discord's CDN.
func (b *Bot) downloadRoster(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build roster request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch roster attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("roster attachment fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRosterBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read roster attachment: %w", err)
	}
	return string(data), nil
}

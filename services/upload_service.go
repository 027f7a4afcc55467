package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"match-mate/errors"
)

type IUploadService interface {
	Upload(ctx context.Context, body io.Reader) (string, error)
}

// UploadService forwards profile videos to the external media host and
// returns the public URL the host answers with. Nothing is stored locally;
// the media host owns the bytes.
type UploadService struct {
	log      *slog.Logger
	client   *http.Client
	mediaURL string
}

func NewUploadService(log *slog.Logger, client *http.Client, mediaURL string) *UploadService {
	if client == nil {
		client = http.DefaultClient
	}
	return &UploadService{log: log, client: client, mediaURL: mediaURL}
}

// Upload sniffs the payload's content type from its leading bytes and rejects
// anything that is not a video before a single byte reaches the media host.
func (s *UploadService) Upload(ctx context.Context, body io.Reader) (string, error) {
	head := make([]byte, 3072)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	head = head[:n]

	mime := mimetype.Detect(head)
	if !strings.HasPrefix(mime.String(), "video/") {
		return "", errors.ErrUnsupportedMedia
	}

	// Re-attach the sniffed head in front of the remaining stream.
	payload := io.MultiReader(bytes.NewReader(head), body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.mediaURL, payload)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mime.String())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("media host unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("media host answered %d", resp.StatusCode)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode media host response: %w", err)
	}
	return out.URL, nil
}

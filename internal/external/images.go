package external

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
)

// ImageStoreClient uploads banner images to the hosted object store the
// storefront serves them from
type ImageStoreClient struct {
	baseURL    string
	bucket     string
	publicURL  string
	httpClient *http.Client
}

type ImageStoreConfig struct {
	BaseURL   string
	Bucket    string
	PublicURL string
	Timeout   time.Duration
}

func NewImageStoreClient(cfg ImageStoreConfig) *ImageStoreClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &ImageStoreClient{
		baseURL:   cfg.BaseURL,
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Upload stores the image under a collision-free name and returns its public
// URL. The object path keeps the original extension so the store serves the
// right content type.
func (ic *ImageStoreClient) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	objectName := fmt.Sprintf("%s%s", uuid.New().String(), path.Ext(filename))
	uploadURL := fmt.Sprintf("%s/%s/%s", ic.baseURL, ic.bucket, objectName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := ic.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return fmt.Sprintf("%s/%s/%s", ic.publicURL, ic.bucket, objectName), nil
}

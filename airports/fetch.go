package airports

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cruzdariel/Sendy/pkg/logger"
	"github.com/hashicorp/go-retryablehttp"
)

// Download fetches the airport reference CSV from url and writes it to
// path. The write goes through a temp file and rename so a failed download
// never leaves a truncated table behind.
func Download(url, path string) error {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("downloading airports data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading airports data: unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating airports data dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "airports-*.csv")
	if err != nil {
		return fmt.Errorf("creating temp airports file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("writing airports data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing airports file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("installing airports file: %w", err)
	}

	logger.Info("downloaded airport reference data", "url", url, "path", path)
	return nil
}

// Ensure loads the reference table from path, downloading it first from
// url when the file does not exist and a url is configured.
func Ensure(path, url string) (*Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if url == "" {
			return nil, fmt.Errorf("airports file %s not found and no download url configured", path)
		}
		if err := Download(url, path); err != nil {
			return nil, err
		}
	}
	return LoadFile(path)
}

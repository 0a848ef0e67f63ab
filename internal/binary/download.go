package binary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/ZebulonRouseFrantzich/baton/internal/httpclient"
)

// Transport streams a URL into a writer.
type Transport interface {
	Download(ctx context.Context, url string, w io.Writer, headers ...httpclient.Header) error
}

// downloadToFile downloads url into a new file at path. The file must not
// already exist. On failure nothing is left at path.
func downloadToFile(ctx context.Context, t Transport, url, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}

	// Track whether we need to clean up the file
	cleanupNeeded := true
	defer func() {
		f.Close()
		if cleanupNeeded {
			os.Remove(path)
		}
	}()

	if err := t.Download(ctx, url, f); err != nil {
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close staging file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// fileExists checks if path is a regular file
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// calculateSHA256 computes the hex SHA256 digest of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

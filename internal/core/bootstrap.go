package core

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// SteamCmdArchiveURL is Valve's Linux steamcmd bundle
const SteamCmdArchiveURL = "https://steamcdn-a.akamaihd.net/client/installer/steamcmd_linux.tar.gz"

// SteamCmdScript is the entry point inside the bundle
const SteamCmdScript = "steamcmd.sh"

// BundleProgress reports how much of the steamcmd bundle has arrived
type BundleProgress struct {
	Received int64
	Total    int64 // 0 when the server sends no length
}

// Percent returns the share received, or 0 when the total is unknown
func (p BundleProgress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Received) / float64(p.Total) * 100
}

// Bootstrapper installs a private copy of steamcmd
type Bootstrapper struct {
	httpClient *http.Client
	url        string
	logger     *log.Logger
}

// NewBootstrapper creates a Bootstrapper. A nil client uses
// http.DefaultClient and an empty url uses SteamCmdArchiveURL.
func NewBootstrapper(httpClient *http.Client, url string, logger *log.Logger) *Bootstrapper {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if url == "" {
		url = SteamCmdArchiveURL
	}
	return &Bootstrapper{httpClient: httpClient, url: url, logger: loggerOrDiscard(logger)}
}

// Install streams the bundle into destDir and returns the path of its
// launcher script. An existing launcher is kept unless force is set.
func (b *Bootstrapper) Install(ctx context.Context, destDir string, force bool, onProgress func(BundleProgress)) (_ string, err error) {
	script := filepath.Join(destDir, SteamCmdScript)
	if !force {
		if info, err := os.Stat(script); err == nil && !info.IsDir() {
			b.logger.Info("steamcmd already present", "path", script)
			return script, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading steamcmd: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading steamcmd: server returned %s", resp.Status)
	}

	body := &countingReader{
		r:          resp.Body,
		sum:        sha256.New(),
		progress:   BundleProgress{Total: resp.ContentLength},
		onProgress: onProgress,
	}
	if err := ExtractTarGz(body, destDir); err != nil {
		return "", fmt.Errorf("unpacking steamcmd: %w", err)
	}
	// gzip may stop short of the trailer; read it so the checksum covers the whole bundle
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", fmt.Errorf("downloading steamcmd: %w", err)
	}
	b.logger.Info("unpacked steamcmd", "bytes", body.progress.Received, "sha256", hex.EncodeToString(body.sum.Sum(nil)))

	info, err := os.Stat(script)
	if err != nil {
		return "", fmt.Errorf("steamcmd archive has no %s: %w", SteamCmdScript, err)
	}
	if info.Mode()&0111 == 0 {
		if err := os.Chmod(script, info.Mode()|0755); err != nil {
			return "", fmt.Errorf("making %s executable: %w", SteamCmdScript, err)
		}
	}
	return script, nil
}

// countingReader hashes and counts the bytes it passes through
type countingReader struct {
	r          io.Reader
	sum        hash.Hash
	progress   BundleProgress
	onProgress func(BundleProgress)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sum.Write(p[:n])
		c.progress.Received += int64(n)
		if c.onProgress != nil {
			c.onProgress(c.progress)
		}
	}
	return n, err
}

// ExtractTarGz unpacks a gzip-compressed tar stream into destDir.
// Entries escaping destDir are rejected.
func ExtractTarGz(r io.Reader, destDir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("reading gzip: %w", err)
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar: %w", err)
		}

		destPath, err := sanitizePath(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := writeEntry(tr, destPath, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		default:
			// steamcmd ships plain files only
		}
	}
}

func writeEntry(r io.Reader, destPath string, mode os.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", destPath, err)
	}

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", destPath, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing file %s: %w", destPath, cerr)
		}
	}()

	if _, err = io.Copy(out, r); err != nil {
		return fmt.Errorf("writing file %s: %w", destPath, err)
	}
	return nil
}

// sanitizePath joins name onto destDir, rejecting paths that leave it
func sanitizePath(destDir, name string) (string, error) {
	destDir = filepath.Clean(destDir)
	destPath := filepath.Join(destDir, name)
	if destPath != destDir && !strings.HasPrefix(destPath, destDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("path traversal detected: %s", name)
	}
	return destPath, nil
}

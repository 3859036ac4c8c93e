// Package backup snapshots the data directory on an interval,
// encrypts the archive and hands it to an uploader. Failures are
// logged and retried on the next tick; a broken backup never affects
// the serving path.
package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

const ArtifactName = "voxly_backup.enc"

// Uploader stores one finished backup artifact.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) error
}

// DirUploader keeps the latest artifact in a local directory,
// replacing the previous one.
type DirUploader struct {
	Dir string
}

func (u DirUploader) Upload(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(u.Dir, name), data, 0o600)
}

type Runner struct {
	dataDir  string
	key      [32]byte
	interval time.Duration
	uploader Uploader
}

// NewRunner derives the encryption key from the secret so the config
// carries one string, not raw key material.
func NewRunner(dataDir, secret string, interval time.Duration, uploader Uploader) *Runner {
	return &Runner{
		dataDir:  dataDir,
		key:      sha256.Sum256([]byte(secret)),
		interval: interval,
		uploader: uploader,
	}
}

// Run loops until the context ends, producing one artifact per tick.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Once(ctx); err != nil {
				log.Error().Err(err).Str("module", "backup").Msg("backup failed")
			} else {
				log.Info().Str("module", "backup").Msg("backup uploaded")
			}
		}
	}
}

// Once archives the data directory, encrypts it and uploads it.
func (r *Runner) Once(ctx context.Context) error {
	archive, err := archiveDir(r.dataDir)
	if err != nil {
		return fmt.Errorf("archive data dir: %w", err)
	}
	sealed, err := Encrypt(r.key, archive)
	if err != nil {
		return fmt.Errorf("encrypt archive: %w", err)
	}
	if err := r.uploader.Upload(ctx, ArtifactName, sealed); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

func archiveDir(dir string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(rel)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encrypt seals plaintext with AES-256-CBC, random IV prepended.
func Encrypt(key [32]byte, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	padded := pad(plaintext, aes.BlockSize)
	out := make([]byte, aes.BlockSize+len(padded))
	iv := out[:aes.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)
	return out, nil
}

// Decrypt reverses Encrypt; used by the restore tooling and tests.
func Decrypt(key [32]byte, sealed []byte) ([]byte, error) {
	if len(sealed) < 2*aes.BlockSize || len(sealed)%aes.BlockSize != 0 {
		return nil, errors.New("malformed artifact")
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	iv, body := sealed[:aes.BlockSize], sealed[aes.BlockSize:]
	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)
	return unpad(out, aes.BlockSize)
}

func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 {
		return nil, errors.New("empty plaintext")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, errors.New("bad padding")
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, errors.New("bad padding")
		}
	}
	return b[:len(b)-n], nil
}

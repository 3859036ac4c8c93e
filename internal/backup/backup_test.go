package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUploader struct {
	mu  sync.Mutex
	got map[string][]byte
}

func newMemUploader() *memUploader {
	return &memUploader{got: make(map[string][]byte)}
}

func (u *memUploader) Upload(_ context.Context, name string, data []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.got[name] = append([]byte(nil), data...)
	return nil
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := sha256.Sum256([]byte("secret"))
	plaintext := []byte("the quick brown fox")

	sealed, err := Encrypt(key, plaintext)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "quick")

	out, err := Decrypt(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, out)
}

func TestDecryptRejectsWrongKeyAndGarbage(t *testing.T) {
	key := sha256.Sum256([]byte("secret"))
	other := sha256.Sum256([]byte("other"))

	sealed, err := Encrypt(key, []byte("payload payload payload"))
	require.NoError(t, err)

	if out, err := Decrypt(other, sealed); err == nil {
		assert.NotEqual(t, []byte("payload payload payload"), out)
	}

	_, err = Decrypt(key, []byte("short"))
	assert.Error(t, err)
}

func TestOnceArchivesDataDir(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "users.json"), []byte(`{"alice":{}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "messages.json"), []byte(`{"general":[]}`), 0o600))

	up := newMemUploader()
	r := NewRunner(dataDir, "secret", time.Minute, up)
	require.NoError(t, r.Once(context.Background()))

	sealed := up.got[ArtifactName]
	require.NotEmpty(t, sealed)

	key := sha256.Sum256([]byte("secret"))
	archive, err := Decrypt(key, sealed)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	names := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		names[f.Name] = string(body)
	}
	assert.Equal(t, `{"alice":{}}`, names["users.json"])
	assert.Equal(t, `{"general":[]}`, names["messages.json"])
}

func TestDirUploaderReplacesPrevious(t *testing.T) {
	dir := t.TempDir()
	u := DirUploader{Dir: filepath.Join(dir, "backups")}

	require.NoError(t, u.Upload(context.Background(), ArtifactName, []byte("one")))
	require.NoError(t, u.Upload(context.Background(), ArtifactName, []byte("two")))

	data, err := os.ReadFile(filepath.Join(dir, "backups", ArtifactName))
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)
}

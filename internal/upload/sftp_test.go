package upload

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"shopee/catalog/internal/config"
	"shopee/catalog/internal/logging"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryClient connects an sftp client to an in-memory request server
func memoryClient(t *testing.T) *sftp.Client {
	t.Helper()

	clientRead, serverWrite := io.Pipe()
	serverRead, clientWrite := io.Pipe()

	server := sftp.NewRequestServer(struct {
		io.Reader
		io.WriteCloser
	}{serverRead, serverWrite}, sftp.InMemHandler())
	// Serve does not close its writer, and the client only stops reading at EOF
	go func() {
		_ = server.Serve()
		_ = serverWrite.Close()
	}()

	client, err := sftp.NewClientPipe(clientRead, clientWrite)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})

	return client
}

func TestPut(t *testing.T) {
	client := memoryClient(t)

	localPath := filepath.Join(t.TempDir(), "categorias_shopee_api.csv")
	content := []byte("\ufeffcategory,subcategory\nModa,Roupas\n")
	require.NoError(t, os.WriteFile(localPath, content, 0o644))

	remotePath, err := put(client, "/exports/shopee", localPath)
	require.NoError(t, err)
	assert.Equal(t, "/exports/shopee/categorias_shopee_api.csv", remotePath)

	f, err := client.Open(remotePath)
	require.NoError(t, err)
	defer f.Close()

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestPut_MissingLocalFile(t *testing.T) {
	client := memoryClient(t)

	_, err := put(client, "/", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestUpload_Validation(t *testing.T) {
	testCases := []struct {
		name string
		cfg  config.UploadConfig
	}{
		{name: "missing host", cfg: config.UploadConfig{User: "u", Password: "p"}},
		{name: "missing user", cfg: config.UploadConfig{Host: "h", Password: "p"}},
		{name: "missing password", cfg: config.UploadConfig{Host: "h", User: "u"}},
		{name: "unreadable known_hosts", cfg: config.UploadConfig{
			Host: "h", User: "u", Password: "p",
			KnownHosts: filepath.Join(os.TempDir(), "does-not-exist", "known_hosts"),
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSFTP(tc.cfg, logging.Discard()).Upload(context.Background(), "file.csv")
			assert.Error(t, err)
		})
	}
}

func TestUpload_DialRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().(*net.TCPAddr)
	require.NoError(t, l.Close())

	u := NewSFTP(config.UploadConfig{
		Host:                  "127.0.0.1",
		Port:                  addr.Port,
		User:                  "u",
		Password:              "p",
		InsecureIgnoreHostKey: true,
	}, logging.Discard())

	_, err = u.Upload(context.Background(), "file.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial error")
}

func TestNewSFTP_Defaults(t *testing.T) {
	u := NewSFTP(config.UploadConfig{Host: "h"}, logging.Discard())

	assert.Equal(t, 22, u.config.Port)
	assert.Equal(t, "/", u.config.RemoteDir)
}

package upload

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"shopee/catalog/internal/config"

	"github.com/pkg/sftp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const dialTimeout = 20 * time.Second

// Uploader pushes a local artifact somewhere and returns where it went
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

type SFTP struct {
	config config.UploadConfig
	logger log.FieldLogger
}

func NewSFTP(cfg config.UploadConfig, logger log.FieldLogger) *SFTP {
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/"
	}

	return &SFTP{
		config: cfg,
		logger: logger.WithField("upload", cfg.Host),
	}
}

// Upload copies localPath into the remote directory under its base name
func (u *SFTP) Upload(ctx context.Context, localPath string) (string, error) {
	if u.config.Host == "" || u.config.User == "" || u.config.Password == "" {
		return "", fmt.Errorf("sftp: missing host, user or password")
	}

	hostKeyCallback, err := u.hostKeyCallback()
	if err != nil {
		return "", err
	}

	sshCfg := &ssh.ClientConfig{
		User:            u.config.User,
		Auth:            []ssh.AuthMethod{ssh.Password(u.config.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         dialTimeout,
	}

	addr := net.JoinHostPort(u.config.Host, strconv.Itoa(u.config.Port))
	sshClient, err := dial(ctx, addr, sshCfg)
	if err != nil {
		return "", err
	}
	defer sshClient.Close()

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		return "", fmt.Errorf("sftp: new client: %w", err)
	}
	defer sftpClient.Close()

	remotePath, err := put(sftpClient, u.config.RemoteDir, localPath)
	if err != nil {
		return "", err
	}

	u.logger.Infof("📤 Uploaded %s to %s:%s", localPath, u.config.Host, remotePath)
	return remotePath, nil
}

func (u *SFTP) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if u.config.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	file := u.config.KnownHosts
	if file == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("sftp: locate known_hosts: %w", err)
		}
		file = filepath.Join(home, ".ssh", "known_hosts")
	}

	callback, err := knownhosts.New(file)
	if err != nil {
		return nil, fmt.Errorf("sftp: load known_hosts %s: %w", file, err)
	}
	return callback, nil
}

// dial honours ctx for the TCP connect and the SSH handshake
func dial(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sftp: dial error: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(cfg.Timeout))
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sftp: handshake error: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})

	return ssh.NewClient(c, chans, reqs), nil
}

func put(client *sftp.Client, remoteDir, localPath string) (string, error) {
	if err := client.MkdirAll(remoteDir); err != nil {
		return "", fmt.Errorf("sftp: mkdir %s: %w", remoteDir, err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("sftp: open local file: %w", err)
	}
	defer src.Close()

	remotePath := path.Join(remoteDir, filepath.Base(localPath))
	dst, err := client.Create(remotePath)
	if err != nil {
		return "", fmt.Errorf("sftp: create remote file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("sftp: upload copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("sftp: close remote file: %w", err)
	}

	return remotePath, nil
}

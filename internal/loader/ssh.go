package loader

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConfig holds credentials for ssh:// sources
type SSHConfig struct {
	User           string
	KeyFile        string
	Passphrase     string
	Password       string
	KnownHostsFile string
	Timeout        time.Duration
}

// SSHFetcher reads topology documents from remote hosts with cat
type SSHFetcher struct {
	config SSHConfig
}

// NewSSHFetcher creates an ssh fetcher
func NewSSHFetcher(cfg SSHConfig) *SSHFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SSHFetcher{config: cfg}
}

// sshTarget is a parsed ssh://user@host:port/path source
type sshTarget struct {
	user string
	addr string
	path string
}

func parseSSHSource(source string) (*sshTarget, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("invalid ssh source: %w", err)
	}
	if u.Scheme != "ssh" {
		return nil, fmt.Errorf("not an ssh source: %s", source)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("ssh source has no host: %s", source)
	}
	if u.Path == "" || u.Path == "/" {
		return nil, fmt.Errorf("ssh source has no path: %s", source)
	}

	port := u.Port()
	if port == "" {
		port = "22"
	}

	return &sshTarget{
		user: u.User.Username(),
		addr: net.JoinHostPort(u.Hostname(), port),
		path: u.Path,
	}, nil
}

// Fetch connects to the host and returns the output of cat on the path
func (f *SSHFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	target, err := parseSSHSource(source)
	if err != nil {
		return nil, err
	}

	config, err := f.clientConfig(target.user)
	if err != nil {
		return nil, fmt.Errorf("failed to build SSH config: %w", err)
	}

	dialer := &net.Dialer{Timeout: f.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", target.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	// ClientConfig.Timeout only bounds the dial; a server that accepts and
	// stays silent would otherwise stall the handshake forever.
	deadline := time.Now().Add(f.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, target.addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish SSH connection: %w", err)
	}
	conn.SetDeadline(time.Time{})
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	return f.cat(ctx, client, target.path)
}

func (f *SSHFetcher) cat(ctx context.Context, client *ssh.Client, path string) ([]byte, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run("cat -- " + shellQuote(path))
	}()

	select {
	case err := <-done:
		if err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return nil, fmt.Errorf("remote cat failed: %s: %w", msg, err)
			}
			return nil, fmt.Errorf("remote cat failed: %w", err)
		}
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		return nil, ctx.Err()
	}

	if stdout.Len() > MaxPayload {
		return nil, fmt.Errorf("document larger than %d bytes", MaxPayload)
	}
	return stdout.Bytes(), nil
}

func (f *SSHFetcher) clientConfig(user string) (*ssh.ClientConfig, error) {
	if user == "" {
		user = f.config.User
	}
	if user == "" {
		return nil, fmt.Errorf("no ssh user in source or config")
	}

	var auth []ssh.AuthMethod

	if f.config.KeyFile != "" {
		path, err := expandHome(f.config.KeyFile)
		if err != nil {
			return nil, err
		}
		key, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}

		var signer ssh.Signer
		if f.config.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(f.config.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}

	if f.config.Password != "" {
		auth = append(auth, ssh.Password(f.config.Password))
	}

	if len(auth) == 0 {
		return nil, fmt.Errorf("no ssh key or password configured")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if f.config.KnownHostsFile != "" {
		path, err := expandHome(f.config.KnownHostsFile)
		if err != nil {
			return nil, err
		}
		cb, err := knownhosts.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         f.config.Timeout,
	}, nil
}

// expandHome resolves a leading ~ the way a shell would
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

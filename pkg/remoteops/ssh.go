// Package remoteops runs optional diagnostic commands against a host
// running this library over SSH: pulling logs, checking process
// status, or pushing a updated config file during development. It has
// no role in the Spotify protocol itself.
package remoteops

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// Client runs commands and transfers small files over SSH.
type Client struct {
	Host string
	User string
	Port int

	config *ssh.ClientConfig
}

// NewClient creates a client dialing host:port (port defaults to 22)
// as user, authenticating with the given ssh.AuthMethods. Host key
// verification uses callback if non-nil, otherwise ssh.InsecureIgnoreHostKey
// — callers doing anything beyond local development must supply one.
func NewClient(host, user string, port int, auth []ssh.AuthMethod, hostKeyCallback ssh.HostKeyCallback) *Client {
	if port == 0 {
		port = 22
	}
	if hostKeyCallback == nil {
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	}
	return &Client{
		Host: host,
		User: user,
		Port: port,
		config: &ssh.ClientConfig{
			User:            user,
			Auth:            auth,
			HostKeyCallback: hostKeyCallback,
			Timeout:         10 * time.Second,
		},
	}
}

func (c *Client) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Run executes a single command and returns its combined stdout+stderr.
func (c *Client) Run(command string) (string, error) {
	client, err := ssh.Dial("tcp", c.addr(), c.config)
	if err != nil {
		return "", fmt.Errorf("remoteops: dial: %w", err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("remoteops: new session: %w", err)
	}
	defer session.Close()

	output, err := session.CombinedOutput(command)
	return string(output), err
}

// UploadContent writes content to remotePath on the remote host via a
// "cat > path" pipe. Intended for small files (configs, key material
// refreshes); it is not a general-purpose SCP/SFTP client.
func (c *Client) UploadContent(content []byte, remotePath string) error {
	client, err := ssh.Dial("tcp", c.addr(), c.config)
	if err != nil {
		return fmt.Errorf("remoteops: dial: %w", err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("remoteops: new session: %w", err)
	}
	defer session.Close()

	stdin, err := session.StdinPipe()
	if err != nil {
		return fmt.Errorf("remoteops: stdin pipe: %w", err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		return fmt.Errorf("remoteops: stderr pipe: %w", err)
	}

	cmd := fmt.Sprintf("cat > %s", remotePath)
	if err := session.Start(cmd); err != nil {
		return fmt.Errorf("remoteops: start upload: %w", err)
	}

	_, writeErr := stdin.Write(content)
	stdin.Close()
	if writeErr != nil {
		return fmt.Errorf("remoteops: write content: %w", writeErr)
	}

	stderrBuf := new(strings.Builder)
	go io.Copy(stderrBuf, stderr)

	if err := session.Wait(); err != nil {
		return fmt.Errorf("remoteops: upload failed: %w (stderr: %s)", err, stderrBuf.String())
	}
	return nil
}

// TailLog runs a bounded "tail -n N path" for pulling recent log
// output without transferring an entire file.
func (c *Client) TailLog(path string, lines int) (string, error) {
	if lines <= 0 {
		lines = 200
	}
	return c.Run(fmt.Sprintf("tail -n %d %s", lines, path))
}

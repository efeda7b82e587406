package remoteops

import (
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestNewClient_DefaultsPortAndHostKeyCallback(t *testing.T) {
	client := NewClient("192.168.1.10", "spotify", 0, nil, nil)
	if client.Port != 22 {
		t.Errorf("got port %d, want 22", client.Port)
	}
	if client.config.HostKeyCallback == nil {
		t.Error("expected a non-nil HostKeyCallback default")
	}
}

func TestNewClient_CustomPortPreserved(t *testing.T) {
	client := NewClient("host", "user", 2222, []ssh.AuthMethod{ssh.Password("x")}, nil)
	if client.Port != 2222 {
		t.Errorf("got port %d, want 2222", client.Port)
	}
	if client.addr() != "host:2222" {
		t.Errorf("got addr %q, want host:2222", client.addr())
	}
}

func TestRun_DialFailure(t *testing.T) {
	client := NewClient("127.0.0.1", "user", 1, nil, nil)
	_, err := client.Run("ls")
	if err == nil {
		t.Fatal("expected a dial failure")
	}
	if !strings.Contains(err.Error(), "remoteops: dial") {
		t.Errorf("got error %q, want it to mention remoteops: dial", err.Error())
	}
}

func TestTailLog_DefaultsLineCount(t *testing.T) {
	client := NewClient("127.0.0.1", "user", 1, nil, nil)
	_, err := client.TailLog("/var/log/x.log", 0)
	if err == nil {
		t.Fatal("expected a dial failure propagated from Run")
	}
}

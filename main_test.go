// main_test.go
package main

import (
	"context"
	"io"
	"strings"
	"testing"
)

func execute(t *testing.T, ctx context.Context, args ...string) error {
	t.Helper()
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(ctx)
}

func TestServeFlagDefaults(t *testing.T) {
	cmd := newServeCmd()
	defaults := map[string]string{
		"addr":          "127.0.0.1",
		"port":          "5000",
		"ws-addr":       "",
		"write-timeout": "2s",
		"max-frame":     "4096",
		"log-file":      "chat.log",
		"debug":         "false",
	}
	for name, want := range defaults {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("serve has no --%s flag", name)
			continue
		}
		if flag.DefValue != want {
			t.Errorf("--%s default = %q, want %q", name, flag.DefValue, want)
		}
	}
}

func TestServeFlagDefaultsFromEnv(t *testing.T) {
	t.Setenv("CHAT_PORT", "6001")
	t.Setenv("CHAT_ADDR", "0.0.0.0")

	cmd := newServeCmd()
	if got := cmd.Flags().Lookup("port").DefValue; got != "6001" {
		t.Errorf("--port default = %q, want 6001", got)
	}
	if got := cmd.Flags().Lookup("addr").DefValue; got != "0.0.0.0" {
		t.Errorf("--addr default = %q, want 0.0.0.0", got)
	}
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"port", []string{"serve", "--port", "70000"}, "invalid port number"},
		{"write timeout", []string{"serve", "--write-timeout", "0s"}, "invalid write timeout"},
		{"frame size", []string{"serve", "--max-frame", "0"}, "invalid max frame size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, context.Background(), tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestServeStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := execute(t, ctx, "serve", "--port", "0", "--log-file", ""); err != nil {
		t.Errorf("serve returned %v", err)
	}
}

func TestConnectRejectsEmptyUser(t *testing.T) {
	err := execute(t, context.Background(), "connect", "--user", "")
	if err == nil || !strings.Contains(err.Error(), "user name cannot be empty") {
		t.Errorf("error = %v, want empty user error", err)
	}
}

func TestConnectFailsWithoutServer(t *testing.T) {
	// port 1 on loopback is not expected to accept connections
	err := execute(t, context.Background(), "connect", "--user", "alice", "--port", "1")
	if err == nil || !strings.Contains(err.Error(), "could not connect to server") {
		t.Errorf("error = %v, want connection error", err)
	}
}

func TestRejectsPositionalArgs(t *testing.T) {
	if err := execute(t, context.Background(), "serve", "extra"); err == nil {
		t.Error("serve accepted a positional argument")
	}
}

package internal

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// Config holds the chat server settings
type Config struct {
	Host         string
	Port         int
	WSAddr       string
	WriteTimeout time.Duration
	MaxFrameSize int
	LogFile      string
	Debug        bool
}

// ClientConfig holds the chat client settings
type ClientConfig struct {
	User         string
	Host         string
	Port         int
	WebSocket    bool
	UI           bool
	WriteTimeout time.Duration
	MaxFrameSize int
}

const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 5000
	DefaultWriteTimeout = 2 * time.Second
	DefaultMaxFrameSize = 4096
	DefaultLogFile      = "chat.log"
)

func DefaultConfig() Config {
	return Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		WriteTimeout: DefaultWriteTimeout,
		MaxFrameSize: DefaultMaxFrameSize,
		LogFile:      DefaultLogFile,
	}
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		User:         "user",
		Host:         DefaultHost,
		Port:         DefaultPort,
		WriteTimeout: DefaultWriteTimeout,
		MaxFrameSize: DefaultMaxFrameSize,
	}
}

// ConfigFromEnv overlays CHAT_* environment variables on the defaults.
// Unparsable values keep the default.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if host := os.Getenv("CHAT_ADDR"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("CHAT_PORT"); port != "" {
		cfg.Port = parsePort(port, cfg.Port)
	}
	if ws := os.Getenv("CHAT_WS_ADDR"); ws != "" {
		cfg.WSAddr = ws
	}
	if logFile, ok := os.LookupEnv("CHAT_LOG_FILE"); ok {
		cfg.LogFile = logFile
	}
	if timeout := os.Getenv("CHAT_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.WriteTimeout = d
		}
	}
	return cfg
}

// Address returns the TCP listen address.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) Validate() error {
	if err := validatePort(c.Port); err != nil {
		return err
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v", c.WriteTimeout)
	}
	if c.MaxFrameSize <= 0 {
		return fmt.Errorf("invalid max frame size: %d", c.MaxFrameSize)
	}
	return nil
}

// Address returns the server address the client dials.
func (c ClientConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c ClientConfig) Validate() error {
	if err := validatePort(c.Port); err != nil {
		return err
	}
	if c.User == "" {
		return fmt.Errorf("user name cannot be empty")
	}
	return nil
}

func validatePort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port number: %d", port)
	}
	return nil
}

func parsePort(value string, defaultValue int) int {
	if port, err := strconv.Atoi(value); err == nil && validatePort(port) == nil {
		return port
	}
	return defaultValue
}

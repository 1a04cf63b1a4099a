// Package config собирает конфигурацию воркера из переменных окружения.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/shaiso/testgen/internal/batchid"
	"github.com/shaiso/testgen/internal/mq"
	"github.com/shaiso/testgen/internal/scheduler"
)

// Ошибки конфигурации. Любая из них фатальна при старте.
var (
	// ErrMissingUserConfig — не задан USER_CONFIG_PATH.
	ErrMissingUserConfig = errors.New("USER_CONFIG_PATH is not set")

	// ErrInvalidValue — значение переменной окружения не разобрано.
	ErrInvalidValue = errors.New("invalid environment value")
)

// Транспорты шины.
const (
	TransportAMQP = "amqp"
	TransportNATS = "nats"
)

// Значения по умолчанию.
const (
	DefaultBotKey       = "test-generator"
	DefaultExecutorKey  = "test-executor"
	DefaultBroadcastKey = "broadcast"
	DefaultSchedule     = "@every 5m"
	DefaultPort         = "8082"
	DefaultBotID        = "testgen"
)

// Config — конфигурация процесса.
type Config struct {
	UserConfigPath string
	ProxyPeer      string
	PeerDirectory  string

	BotID        string
	BotKey       string
	ExecutorKey  string
	BroadcastKey string

	BusURL string
	// BusTransport — явный транспорт (BUS_TRANSPORT); обязателен для tls://.
	BusTransport string

	Schedule        string
	RunOnStart      bool
	BatchIDStrategy batchid.Strategy

	PauseEnabled  bool
	NotifyEnabled bool

	DBURL string
	Port  string
}

// FromEnv читает конфигурацию из окружения процесса.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load читает конфигурацию через getenv.
func Load(getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		UserConfigPath: env("USER_CONFIG_PATH", ""),
		ProxyPeer:      env("PROXY_PEER", ""),
		PeerDirectory:  env("PEER_DIRECTORY", ""),
		BotID:          env("BOT_ID", keyFromHostname(hostname())),
		BotKey:         env("BOT_KEY", DefaultBotKey),
		ExecutorKey:    env("EXECUTOR_KEY", DefaultExecutorKey),
		BroadcastKey:   env("BROADCAST_KEY", DefaultBroadcastKey),
		BusURL:         env("BUS_URL", mq.DefaultURL()),
		BusTransport:   strings.ToLower(env("BUS_TRANSPORT", "")),
		Schedule:       env("GENERATION_SCHEDULE", DefaultSchedule),
		DBURL:          env("DB_URL", ""),
		Port:           env("WORKER_PORT", DefaultPort),
	}

	if cfg.UserConfigPath == "" {
		return Config{}, ErrMissingUserConfig
	}

	for _, k := range []struct{ name, value string }{
		{"BOT_ID", cfg.BotID},
		{"BOT_KEY", cfg.BotKey},
		{"EXECUTOR_KEY", cfg.ExecutorKey},
		{"BROADCAST_KEY", cfg.BroadcastKey},
	} {
		if err := validateKey(k.name, k.value); err != nil {
			return Config{}, err
		}
	}

	var err error
	if cfg.RunOnStart, err = parseBool("RUN_ON_START", env("RUN_ON_START", "true")); err != nil {
		return Config{}, err
	}
	if cfg.PauseEnabled, err = parseBool("PAUSE_ENABLED", env("PAUSE_ENABLED", "true")); err != nil {
		return Config{}, err
	}
	if cfg.NotifyEnabled, err = parseBool("NOTIFY_ENABLED", env("NOTIFY_ENABLED", "true")); err != nil {
		return Config{}, err
	}

	if cfg.BatchIDStrategy, err = batchid.ParseStrategy(env("BATCH_ID_STRATEGY", "")); err != nil {
		return Config{}, fmt.Errorf("%w: BATCH_ID_STRATEGY: %w", ErrInvalidValue, err)
	}

	if err := scheduler.ValidateSchedule(cfg.Schedule); err != nil {
		return Config{}, fmt.Errorf("%w: GENERATION_SCHEDULE: %w", ErrInvalidValue, err)
	}

	if _, err := cfg.Transport(); err != nil {
		return Config{}, err
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		return Config{}, fmt.Errorf("%w: WORKER_PORT %q", ErrInvalidValue, cfg.Port)
	}

	return cfg, nil
}

// Transport определяет транспорт по схеме BUS_URL и BUS_TRANSPORT.
//
// amqp:// и amqps:// — RabbitMQ, nats:// — NATS. Схема tls:// у NATS
// неоднозначна и принимается только при BUS_TRANSPORT=nats.
func (c Config) Transport() (string, error) {
	u, err := url.Parse(c.BusURL)
	if err != nil {
		return "", fmt.Errorf("%w: BUS_URL: %v", ErrInvalidValue, err)
	}

	var kind string
	switch strings.ToLower(u.Scheme) {
	case "amqp", "amqps":
		kind = TransportAMQP
	case "nats":
		kind = TransportNATS
	case "tls":
		if c.BusTransport != TransportNATS {
			return "", fmt.Errorf("%w: BUS_URL scheme \"tls\" requires BUS_TRANSPORT=nats", ErrInvalidValue)
		}
		return TransportNATS, nil
	default:
		return "", fmt.Errorf("%w: BUS_URL scheme %q", ErrInvalidValue, u.Scheme)
	}

	switch c.BusTransport {
	case "", kind:
		return kind, nil
	case TransportAMQP, TransportNATS:
		return "", fmt.Errorf("%w: BUS_TRANSPORT %q does not match BUS_URL scheme %q", ErrInvalidValue, c.BusTransport, u.Scheme)
	default:
		return "", fmt.Errorf("%w: BUS_TRANSPORT %q", ErrInvalidValue, c.BusTransport)
	}
}

// Keys возвращает ключи, на которые подписан бот.
func (c Config) Keys() []string {
	if c.BotID == c.BotKey {
		return []string{c.BotKey}
	}
	return []string{c.BotKey, c.BotID}
}

// Addr возвращает адрес admin HTTP сервера.
func (c Config) Addr() string {
	return ":" + c.Port
}

func parseBool(key, v string) (bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s %q", ErrInvalidValue, key, v)
	}
	return b, nil
}

// keyReserved — символы, разделяющие токены routing key AMQP и subject NATS.
const keyReserved = ".*>#"

// validateKey проверяет, что ключ — один токен routing key и subject.
func validateKey(name, key string) error {
	if strings.ContainsAny(key, keyReserved) || strings.ContainsFunc(key, unicode.IsSpace) {
		return fmt.Errorf("%w: %s %q must not contain whitespace or any of %q", ErrInvalidValue, name, key, keyReserved)
	}
	return nil
}

// keyFromHostname заменяет разделители токенов в имени хоста на "-".
func keyFromHostname(h string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(keyReserved, r) || unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, h)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return DefaultBotID
	}
	return h
}

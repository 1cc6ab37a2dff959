package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	"github.com/anthanhphan/gosdk/conflux"
	"github.com/anthanhphan/gosdk/logger"
)

// Membership modes.
const (
	ModeGossip    = "gossip"
	ModeDirectory = "directory"
)

// Routing key strategies.
const (
	StrategyMetadata     = "metadata"
	StrategyPayloadField = "payload_field"
)

// Config holds command router node configuration
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	Membership MembershipConfig `json:"membership" yaml:"membership"`
	Gossip     GossipConfig     `json:"gossip" yaml:"gossip"`
	Directory  DirectoryConfig  `json:"directory" yaml:"directory"`
	Routing    RoutingConfig    `json:"routing" yaml:"routing"`
	Resolver   ResolverConfig   `json:"resolver" yaml:"resolver"`
	Logger     logger.Config    `json:"logger" yaml:"logger"`
}

type ServerConfig struct {
	NodeID   string `json:"node_id" yaml:"node_id"`
	Hostname string `json:"hostname" yaml:"hostname"`
	HTTPPort int    `json:"http_port" yaml:"http_port"`
	// GRPCPort 0 disables the gRPC routing information service.
	GRPCPort int `json:"grpc_port" yaml:"grpc_port"`
}

type MembershipConfig struct {
	Mode string `json:"mode" yaml:"mode"`
	// LoadFactor and CommandFilter are announced at startup when Announce is set.
	Announce      bool           `json:"announce" yaml:"announce"`
	LoadFactor    int            `json:"load_factor" yaml:"load_factor"`
	CommandFilter command.Filter `json:"command_filter" yaml:"command_filter"`
}

type GossipConfig struct {
	Port           int      `json:"port" yaml:"port"`
	Seeds          []string `json:"seeds" yaml:"seeds"`
	Workers        int      `json:"workers" yaml:"workers"`
	QueueSize      int      `json:"queue_size" yaml:"queue_size"`
	RetransmitMult int      `json:"retransmit_mult" yaml:"retransmit_mult"`
}

type DirectoryConfig struct {
	RedisAddr           string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword       string `json:"redis_password" yaml:"redis_password"`
	RedisDB             int    `json:"redis_db" yaml:"redis_db"`
	KeyPrefix           string `json:"key_prefix" yaml:"key_prefix"`
	InstanceTTLMs       int    `json:"instance_ttl_ms" yaml:"instance_ttl_ms"`
	HeartbeatIntervalMs int    `json:"heartbeat_interval_ms" yaml:"heartbeat_interval_ms"`
	PollIntervalMs      int    `json:"poll_interval_ms" yaml:"poll_interval_ms"`
	// RoutingInfoSource is one of metadata, fetch or metadata_with_fetch.
	RoutingInfoSource string `json:"routing_info_source" yaml:"routing_info_source"`
	EmbedMetadata     bool   `json:"embed_metadata" yaml:"embed_metadata"`
}

type RoutingConfig struct {
	Strategy         string `json:"strategy" yaml:"strategy"`
	Key              string `json:"key" yaml:"key"`
	UnresolvedPolicy string `json:"unresolved_policy" yaml:"unresolved_policy"`
	StaticKey        string `json:"static_key" yaml:"static_key"`
}

type ResolverConfig struct {
	TimeoutMs        int `json:"timeout_ms" yaml:"timeout_ms"`
	FailureThreshold int `json:"failure_threshold" yaml:"failure_threshold"`
	OpenTimeoutMs    int `json:"open_timeout_ms" yaml:"open_timeout_ms"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Hostname: "127.0.0.1",
			HTTPPort: 8080,
			GRPCPort: 9090,
		},
		Membership: MembershipConfig{
			Mode:          ModeGossip,
			Announce:      true,
			LoadFactor:    100,
			CommandFilter: command.AcceptAll(),
		},
		Gossip: GossipConfig{
			Port:      7946,
			Workers:   4,
			QueueSize: 256,
		},
		Directory: DirectoryConfig{
			RedisAddr:           "127.0.0.1:6379",
			KeyPrefix:           "cmdrouter:instances:",
			InstanceTTLMs:       30000,
			HeartbeatIntervalMs: 10000,
			PollIntervalMs:      5000,
			RoutingInfoSource:   "metadata_with_fetch",
			EmbedMetadata:       true,
		},
		Routing: RoutingConfig{
			Strategy:         StrategyMetadata,
			Key:              "routing_key",
			UnresolvedPolicy: string(command.UnresolvedRandomKey),
			StaticKey:        command.DefaultStaticRoutingKey,
		},
		Resolver: ResolverConfig{
			TimeoutMs:        3000,
			FailureThreshold: 3,
			OpenTimeoutMs:    30000,
		},
		Logger: logger.Config{
			LogLevel:    logger.LevelInfo,
			LogEncoding: logger.EncodingJSON,
		},
	}
}

// Load loads configuration from file. path is resolved against the working
// directory and must stay inside it.
func Load(path string) (*Config, error) {
	configPath := path
	if configPath == "" {
		env := os.Getenv("ENV")
		if env == "" {
			env = "local"
		}
		configPath = filepath.Join("internal", "router", "config", env+".yaml")
	}

	cfg := DefaultConfig()

	parsedCfg, err := conflux.ParseConfig(configPath, cfg)
	if err != nil {
		log.Printf("Config file not found or failed to parse, using defaults if file not specified. Path: %s, Error: %v", configPath, err)
		if path != "" {
			return nil, err
		}
		parsedCfg = cfg
	}

	if err := parsedCfg.Validate(); err != nil {
		return nil, err
	}
	return parsedCfg, nil
}

// MustLoad loads configuration or exits on error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// Validate checks the configuration and fills derived defaults.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 {
		return fmt.Errorf("server.http_port must be positive")
	}
	if c.Server.NodeID == "" {
		c.Server.NodeID = net.JoinHostPort(c.Server.Hostname, strconv.Itoa(c.Server.HTTPPort))
	}

	switch c.Membership.Mode {
	case ModeGossip, ModeDirectory:
	default:
		return fmt.Errorf("membership.mode must be %q or %q, got %q", ModeGossip, ModeDirectory, c.Membership.Mode)
	}
	if c.Membership.LoadFactor < 0 {
		return fmt.Errorf("membership.load_factor must not be negative")
	}
	if err := c.Membership.CommandFilter.Validate(); err != nil {
		return fmt.Errorf("membership.command_filter: %w", err)
	}

	switch c.Directory.RoutingInfoSource {
	case "metadata", "fetch", "metadata_with_fetch":
	default:
		return fmt.Errorf("directory.routing_info_source %q is not supported", c.Directory.RoutingInfoSource)
	}

	if _, err := c.RoutingStrategy(); err != nil {
		return err
	}
	return nil
}

// RoutingStrategy builds the configured routing key strategy.
func (c *Config) RoutingStrategy() (command.RoutingStrategy, error) {
	policy := command.UnresolvedRoutingKeyPolicy(c.Routing.UnresolvedPolicy)
	switch policy {
	case command.UnresolvedError, command.UnresolvedRandomKey, command.UnresolvedStaticKey:
	default:
		return nil, fmt.Errorf("routing.unresolved_policy %q is not supported", c.Routing.UnresolvedPolicy)
	}
	if c.Routing.Key == "" {
		return nil, fmt.Errorf("routing.key is required")
	}

	switch c.Routing.Strategy {
	case StrategyMetadata:
		return command.NewMetaDataRoutingStrategy(c.Routing.Key, policy, c.Routing.StaticKey), nil
	case StrategyPayloadField:
		return command.NewPayloadFieldRoutingStrategy(c.Routing.Key, policy, c.Routing.StaticKey), nil
	default:
		return nil, fmt.Errorf("routing.strategy %q is not supported", c.Routing.Strategy)
	}
}

// Endpoints are the addresses peers use to fetch routing information.
func (c *Config) Endpoints() map[string]string {
	endpoints := map[string]string{
		shard.ProtocolHTTP: "http://" + net.JoinHostPort(c.Server.Hostname, strconv.Itoa(c.Server.HTTPPort)),
	}
	if c.Server.GRPCPort > 0 {
		endpoints[shard.ProtocolGRPC] = net.JoinHostPort(c.Server.Hostname, strconv.Itoa(c.Server.GRPCPort))
	}
	return endpoints
}

func (c *Config) HTTPAddr() string {
	return ":" + strconv.Itoa(c.Server.HTTPPort)
}

func (c *Config) GRPCAddr() string {
	return ":" + strconv.Itoa(c.Server.GRPCPort)
}

func (d DirectoryConfig) InstanceTTL() time.Duration {
	return time.Duration(d.InstanceTTLMs) * time.Millisecond
}

func (d DirectoryConfig) HeartbeatInterval() time.Duration {
	return time.Duration(d.HeartbeatIntervalMs) * time.Millisecond
}

func (d DirectoryConfig) PollInterval() time.Duration {
	return time.Duration(d.PollIntervalMs) * time.Millisecond
}

func (r ResolverConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

func (r ResolverConfig) OpenTimeout() time.Duration {
	return time.Duration(r.OpenTimeoutMs) * time.Millisecond
}

package store

import (
	"fmt"
	"time"
)

// ObjectConfig configures the backing object tier. Mirrors
// backend.BackendConfig's shape.
type ObjectConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

func (c ObjectConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	if c.Region == "" {
		return fmt.Errorf("region cannot be empty")
	}
	if c.Bucket == "" {
		return fmt.Errorf("bucket cannot be empty")
	}
	if c.AccessKey == "" {
		return fmt.Errorf("access_key cannot be empty")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret_key cannot be empty")
	}
	return nil
}

// KVConfig configures the backing KV/index tier.
type KVConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (c KVConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	return nil
}

// ManagerConfig configures the circuit breaker / health check loop.
// Mirrors backend.ManagerConfig.
type ManagerConfig struct {
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	CheckTimeout        time.Duration `yaml:"check_timeout"`
	FailureThreshold    int           `yaml:"failure_threshold"`
	SuccessThreshold    int           `yaml:"success_threshold"`
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		HealthCheckInterval: 15 * time.Second,
		CheckTimeout:        5 * time.Second,
		FailureThreshold:    3,
		SuccessThreshold:    2,
	}
}

func (mc ManagerConfig) Validate() error {
	if mc.HealthCheckInterval <= 0 {
		return fmt.Errorf("health_check_interval must be positive")
	}
	if mc.CheckTimeout <= 0 {
		return fmt.Errorf("check_timeout must be positive")
	}
	if mc.CheckTimeout >= mc.HealthCheckInterval {
		return fmt.Errorf("check_timeout must be less than health_check_interval")
	}
	if mc.FailureThreshold <= 0 {
		return fmt.Errorf("failure_threshold must be positive")
	}
	if mc.SuccessThreshold <= 0 {
		return fmt.Errorf("success_threshold must be positive")
	}
	return nil
}

// Config is the full store configuration.
type Config struct {
	Manager ManagerConfig `yaml:"manager"`
	Object  ObjectConfig  `yaml:"object"`
	KV      KVConfig      `yaml:"kv"`
	// BucketsIndex names the Redis hash used as the bucket-existence table
	// (field = bucket name). Supplemented feature: spec.md treats bucket
	// metadata loading as opaque; this names its concrete storage location.
	BucketsIndex string `yaml:"buckets_index"`
}

func DefaultConfig() *Config {
	return &Config{
		Manager: DefaultManagerConfig(),
		Object: ObjectConfig{
			Endpoint:  "http://localhost:9000",
			Region:    "us-east-1",
			Bucket:    "s3gw-objects",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
		},
		KV: KVConfig{
			Address: "localhost:6379",
		},
		BucketsIndex: "s3gw:buckets",
	}
}

func (c *Config) Validate() error {
	if err := c.Manager.Validate(); err != nil {
		return fmt.Errorf("invalid manager config: %w", err)
	}
	if err := c.Object.Validate(); err != nil {
		return fmt.Errorf("invalid object config: %w", err)
	}
	if err := c.KV.Validate(); err != nil {
		return fmt.Errorf("invalid kv config: %w", err)
	}
	if c.BucketsIndex == "" {
		return fmt.Errorf("buckets_index cannot be empty")
	}
	return nil
}

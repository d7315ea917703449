package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"s3gw/logger"
)

// State mirrors backend.BackendState: the liveness of one backing-store
// endpoint pair (object tier + KV tier), adapted from backend/manager.go's
// circuit breaker to probe both tiers this gateway depends on.
type State string

const (
	StateUp      State = "UP"
	StateDown    State = "DOWN"
	StateProbing State = "PROBING"
)

func (s State) ToFloat64() float64 {
	switch s {
	case StateUp:
		return 1.0
	case StateProbing:
		return 0.5
	default:
		return 0.0
	}
}

// Manager owns the backing-store clients and their circuit-breaker state.
// Adapted from backend.Manager: same UP/DOWN/PROBING state machine and
// threshold-based transitions, now probing an object tier (S3 HeadBucket)
// and a KV tier (Redis PING) instead of several S3 replicas.
type Manager struct {
	cfg Config

	s3Client    *s3.Client
	redisClient *redis.Client

	metrics *managerMetrics

	mu                   sync.RWMutex
	state                State
	consecutiveFailures  int
	consecutiveSuccesses int
	lastError            error

	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

type managerMetrics struct {
	state          prometheus.Gauge
	healthChecks   *prometheus.CounterVec
	circuitFlips   prometheus.Counter
}

func newManagerMetrics() *managerMetrics {
	return &managerMetrics{
		state: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "s3gw_store_state",
			Help: "Backing store liveness: 1=UP, 0.5=PROBING, 0=DOWN",
		}),
		healthChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "s3gw_store_health_checks_total",
			Help: "Total number of active health checks, by tier and result",
		}, []string{"tier", "result"}),
		circuitFlips: promauto.NewCounter(prometheus.CounterOpts{
			Name: "s3gw_store_circuit_flips_total",
			Help: "Total number of circuit breaker state transitions",
		}),
	}
}

// NewManager constructs the object-tier and KV-tier clients and wraps them
// in a health-checked Manager. Grounded on backend.Manager.createBackend for
// AWS client construction (path-style addressing, static credentials).
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Object.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Object.AccessKey, cfg.Object.SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.Object.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Object.Endpoint)
		}
	})

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.KV.Address,
		Password: cfg.KV.Password,
		DB:       cfg.KV.DB,
	})

	m := &Manager{
		cfg:         *cfg,
		s3Client:    s3Client,
		redisClient: redisClient,
		metrics:     newManagerMetrics(),
		state:       StateProbing,
		stopChan:    make(chan struct{}),
	}

	logger.Info("Store manager initialized: object endpoint=%s bucket=%s, kv address=%s",
		cfg.Object.Endpoint, cfg.Object.Bucket, cfg.KV.Address)

	return m, nil
}

// ObjectStore returns a ready-to-use ObjectStore bound to this manager's
// client and configured bucket.
func (m *Manager) ObjectStore() *ObjectStore {
	return NewObjectStore(m.s3Client, m.cfg.Object.Bucket)
}

// KVIndex returns a ready-to-use KVIndex bound to this manager's Redis client.
func (m *Manager) KVIndex() *KVIndex {
	return NewKVIndex(m.redisClient)
}

// BucketMetadata returns a bucket-existence port for the named bucket.
func (m *Manager) BucketMetadata(bucket string) *BucketMetadata {
	return NewBucketMetadata(m.redisClient, m.cfg.BucketsIndex, bucket)
}

// State reports the manager's current liveness classification.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Start begins periodic health checking. Grounded on backend.Manager.Start.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runHealthChecks()

	logger.Info("Store manager started")
	return nil
}

// Stop halts health checking.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopChan)
	m.wg.Wait()

	logger.Info("Store manager stopped")
	return nil
}

func (m *Manager) runHealthChecks() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Manager.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.performHealthCheck()
		}
	}
}

func (m *Manager) performHealthCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Manager.CheckTimeout)
	defer cancel()

	objectOK := m.checkObjectTier(ctx)
	kvOK := m.checkKVTier(ctx)

	if objectOK && kvOK {
		m.reportSuccess()
	} else {
		m.reportFailure(fmt.Errorf("health check failed: object_ok=%v kv_ok=%v", objectOK, kvOK))
	}
}

func (m *Manager) checkObjectTier(ctx context.Context) bool {
	_, err := m.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(m.cfg.Object.Bucket)})
	result := "ok"
	if err != nil {
		result = "fail"
	}
	m.metrics.healthChecks.WithLabelValues("object", result).Inc()
	return err == nil
}

func (m *Manager) checkKVTier(ctx context.Context) bool {
	err := m.redisClient.Ping(ctx).Err()
	result := "ok"
	if err != nil {
		result = "fail"
	}
	m.metrics.healthChecks.WithLabelValues("kv", result).Inc()
	return err == nil
}

// ReportSuccess is the passive-check entry point: callers (actions) report
// backend outcomes as they observe them, same as backend.Manager.ReportSuccess.
func (m *Manager) ReportSuccess() { m.reportSuccess() }

// ReportFailure is the passive-check entry point for observed failures.
func (m *Manager) ReportFailure(err error) { m.reportFailure(err) }

func (m *Manager) reportSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.consecutiveSuccesses++
	m.consecutiveFailures = 0
	m.lastError = nil

	prev := m.state
	switch m.state {
	case StateDown:
		m.state = StateProbing
	case StateProbing:
		if m.consecutiveSuccesses >= m.cfg.Manager.SuccessThreshold {
			m.state = StateUp
		}
	}
	m.afterTransition(prev)
}

func (m *Manager) reportFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.consecutiveFailures++
	m.consecutiveSuccesses = 0
	m.lastError = err

	prev := m.state
	if m.consecutiveFailures >= m.cfg.Manager.FailureThreshold {
		m.state = StateDown
	} else if m.state == StateUp {
		m.state = StateProbing
	}
	m.afterTransition(prev)
}

func (m *Manager) afterTransition(prev State) {
	m.metrics.state.Set(m.state.ToFloat64())
	if prev != m.state {
		m.metrics.circuitFlips.Inc()
		logger.Warn("Store manager state transition: %s -> %s (err=%v)", prev, m.state, m.lastError)
	}
}

// Package probe polls the gRPC health service of a running geotab server.
package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// DefaultInterval separates heartbeats when none is configured.
const DefaultInterval = 30 * time.Second

// Config selects the server and how to reach it.
type Config struct {
	Address     string
	Service     string
	Interval    time.Duration
	Insecure    bool
	CACertPath  string
	TLSCertPath string
	TLSKeyPath  string
}

// Probe holds one client connection to a health service.
type Probe struct {
	cfg    Config
	conn   *grpc.ClientConn
	client healthpb.HealthClient
	log    *slog.Logger
}

// New connects lazily to cfg.Address.
func New(cfg Config, log *slog.Logger) (*Probe, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	var opts []grpc.DialOption
	if cfg.Insecure {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		tlsConfig, err := tlsConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	}
	opts = append(opts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
		Time:                cfg.Interval,
		Timeout:             5 * time.Second,
		PermitWithoutStream: true,
	}))

	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Address, err)
	}
	return &Probe{cfg: cfg, conn: conn, client: healthpb.NewHealthClient(conn), log: log}, nil
}

func tlsConfig(cfg Config) (*tls.Config, error) {
	config := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to append CA cert %s", cfg.CACertPath)
		}
		config.RootCAs = pool
	}

	if cfg.TLSCertPath != "" && cfg.TLSKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertPath, cfg.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		config.Certificates = []tls.Certificate{cert}
	}

	return config, nil
}

// Close releases the connection.
func (p *Probe) Close() error { return p.conn.Close() }

// Check asks once for the service status.
func (p *Probe) Check(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: p.cfg.Service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Run checks every interval until ctx is done and calls fn whenever the
// status changes. A failed check counts as UNKNOWN.
func (p *Probe) Run(ctx context.Context, fn func(healthpb.HealthCheckResponse_ServingStatus, error)) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_ServingStatus(-1)
	for {
		status, err := p.Check(ctx)
		if err != nil {
			p.log.Debug("heartbeat failed", "addr", p.cfg.Address, "error", err)
		}
		if status != last {
			fn(status, err)
			last = status
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

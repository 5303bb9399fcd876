package ratelimit

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/valkey-io/valkey-go"
)

const keyPrefix = "market-oracle:ratelimit:"

// ValkeyCounter 는 여러 인스턴스가 공유하는 Valkey 기반 카운터다.
type ValkeyCounter struct {
	client valkey.Client
}

// NewValkeyCounter 는 URL 로 Valkey 카운터를 생성한다.
func NewValkeyCounter(rawURL string) (*ValkeyCounter, error) {
	conn, err := parseStoreURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rate limit store url: %w", err)
	}

	var tlsConfig *tls.Config
	if conn.useTLS {
		host, _, splitErr := net.SplitHostPort(conn.addr)
		if splitErr != nil {
			return nil, fmt.Errorf("parse rate limit store addr: %w", splitErr)
		}
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		TLSConfig:    tlsConfig,
		Username:     conn.username,
		Password:     conn.password,
		InitAddress:  []string{conn.addr},
		SelectDB:     conn.selectDB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to valkey: %w", err)
	}
	return &ValkeyCounter{client: client}, nil
}

// Increment 는 INCR 후 첫 증가일 때만 만료를 건다.
func (v *ValkeyCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := keyPrefix + key
	count, err := v.client.Do(ctx, v.client.B().Incr().Key(fullKey).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("incr rate limit key: %w", err)
	}
	if count == 1 {
		seconds := int64(window / time.Second)
		if seconds <= 0 {
			seconds = 1
		}
		if err := v.client.Do(ctx, v.client.B().Expire().Key(fullKey).Seconds(seconds).Build()).Error(); err != nil {
			return count, fmt.Errorf("expire rate limit key: %w", err)
		}
	}
	return count, nil
}

// Ping 은 PING 으로 연결을 확인한다.
func (v *ValkeyCounter) Ping(ctx context.Context) error {
	if err := v.client.Do(ctx, v.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping valkey: %w", err)
	}
	return nil
}

// Backend 는 "valkey" 를 반환한다.
func (v *ValkeyCounter) Backend() string { return "valkey" }

// Close 는 연결을 닫는다.
func (v *ValkeyCounter) Close() {
	v.client.Close()
}

package db

import (
	"testing"
	"time"
)

func TestPoolConfig(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantApp string
		timeout time.Duration
	}{
		{name: "defaults", url: "postgres://ouro@localhost:5432/ouro", wantApp: "ouro", timeout: 5 * time.Second},
		{name: "url wins", url: "postgres://ouro@localhost:5432/ouro?application_name=tools&connect_timeout=2", wantApp: "tools", timeout: 2 * time.Second},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := poolConfig(tc.url)
			if err != nil {
				t.Fatalf("poolConfig: %v", err)
			}
			if cfg.MaxConns != 2 || cfg.MinConns != 0 {
				t.Fatalf("pool size got max=%d min=%d", cfg.MaxConns, cfg.MinConns)
			}
			if got := cfg.ConnConfig.RuntimeParams["application_name"]; got != tc.wantApp {
				t.Fatalf("application_name got=%q want=%q", got, tc.wantApp)
			}
			if cfg.ConnConfig.ConnectTimeout != tc.timeout {
				t.Fatalf("connect timeout got=%v want=%v", cfg.ConnConfig.ConnectTimeout, tc.timeout)
			}
		})
	}
}

func TestPoolConfigRejectsBadURL(t *testing.T) {
	if _, err := poolConfig("postgres://%zz"); err == nil {
		t.Fatalf("expected a parse error")
	}
}

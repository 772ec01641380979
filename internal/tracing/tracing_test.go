package tracing

import (
	"context"
	"testing"
)

func TestNewTLSModes(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		expectError bool
	}{
		{
			name: "disabled",
			cfg:  Config{Enabled: false},
		},
		{
			name: "TLS with insecure skip verify",
			cfg: Config{
				Enabled:     true,
				Endpoint:    "localhost:4317",
				TLSInsecure: true,
			},
		},
		{
			name: "TLS with missing CA certificate",
			cfg: Config{
				Enabled:   true,
				Endpoint:  "localhost:4317",
				TLSCAPath: "/path/to/missing/ca.crt",
			},
			expectError: true,
		},
		{
			name: "no TLS",
			cfg: Config{
				Enabled:  true,
				Endpoint: "localhost:4317",
			},
		},
		{
			name: "enabled without endpoint",
			cfg: Config{
				Enabled: true,
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := New(context.Background(), tt.cfg)
			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if provider != nil && provider.IsEnabled() != tt.cfg.Enabled {
				t.Errorf("IsEnabled()=%v, want %v", provider.IsEnabled(), tt.cfg.Enabled)
			}
		})
	}
}

func TestDisabledProviderShutdown(t *testing.T) {
	provider, err := New(context.Background(), Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown on disabled provider: %v", err)
	}
	if provider.Tracer("test") == nil {
		t.Error("Tracer returned nil")
	}
}

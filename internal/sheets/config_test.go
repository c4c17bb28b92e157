package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no auth configured",
			mutate:  func(_ *Config) {},
			wantErr: "no authentication method",
		},
		{
			name: "oauth only is valid",
			mutate: func(c *Config) {
				c.ClientID = "id"
				c.ClientSecret = "secret"
				c.RefreshToken = "token"
			},
		},
		{
			name: "service account only is valid",
			mutate: func(c *Config) {
				c.ServiceAccountPath = "/tmp/key.json"
			},
		},
		{
			name: "both auth methods rejected",
			mutate: func(c *Config) {
				c.ClientID = "id"
				c.ClientSecret = "secret"
				c.RefreshToken = "token"
				c.ServiceAccountPath = "/tmp/key.json"
			},
			wantErr: "multiple authentication methods",
		},
		{
			name: "zero batch size rejected",
			mutate: func(c *Config) {
				c.ServiceAccountPath = "/tmp/key.json"
				c.BatchSize = -1
			},
			wantErr: "batch size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, "bluge", cfg.SearchEngine)
	require.Equal(t, "local", cfg.BlobDriver)
	require.Equal(t, 15*time.Minute, cfg.UploadTTL)
	require.Equal(t, int64(5242880), cfg.MaxUploadBytes)
}

func TestLoad_RejectsUnknownDrivers(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"store", map[string]string{"STORE_DRIVER": "sqlite"}},
		{"search", map[string]string{"SEARCH_ENGINE": "elastic"}},
		{"postgres search on memory store", map[string]string{"STORE_DRIVER": "memory", "SEARCH_ENGINE": "postgres"}},
		{"s3 without bucket", map[string]string{"BLOB_DRIVER": "s3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5432", DBName: "parley", DBSSLMode: "disable"}
	require.Equal(t, "postgres://u:p@db:5432/parley?sslmode=disable", cfg.DSN())
}

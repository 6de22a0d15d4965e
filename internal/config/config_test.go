package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"MARIADB_DSN":               "user:pass@tcp(localhost:3306)/db",
		"MARIADB_MAX_OPEN_CONN":     "10",
		"MARIADB_MAX_IDLE_CONNS":    "5",
		"MARIADB_CONN_MAX_LIFETIME": "30",
		"SERVER_PORT":               "8080",
		"CLOUDINARY_CLOUD_NAME":     "skillswap",
		"CLOUDINARY_API_KEY":        "key",
		"CLOUDINARY_API_SECRET":     "secret",
	}
}

// inTempDir isolates .env loading from the repository checkout.
func inTempDir(t *testing.T) {
	t.Helper()
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("could not chdir to temp dir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Fatalf("could not chdir back to original dir: %v", err)
		}
	})
}

func TestLoad_Success(t *testing.T) {
	inTempDir(t)

	for k, v := range baseEnv() {
		t.Setenv(k, v)
	}
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://skillswap.app, http://localhost:5173")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.MariaDBDSN != "user:pass@tcp(localhost:3306)/db" {
		t.Errorf("MariaDBDSN = %q", cfg.MariaDBDSN)
	}
	if cfg.MaxOpenConns != 10 || cfg.MaxIdleConns != 5 {
		t.Errorf("pool = %d/%d; want 10/5", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != 30*time.Second {
		t.Errorf("ConnMaxLifetime = %v; want 30s", cfg.ConnMaxLifetime)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d; want 8080", cfg.ServerPort)
	}
	if cfg.ScratchDir != "uploads" {
		t.Errorf("ScratchDir = %q; want uploads", cfg.ScratchDir)
	}
	if cfg.ImageProvider != ProviderCloudinary {
		t.Errorf("ImageProvider = %q; want %q", cfg.ImageProvider, ProviderCloudinary)
	}
	if cfg.AssetTimeout != 30*time.Second {
		t.Errorf("AssetTimeout = %v; want 30s", cfg.AssetTimeout)
	}
	if cfg.CommitMaxAttempts != 3 {
		t.Errorf("CommitMaxAttempts = %d; want 3", cfg.CommitMaxAttempts)
	}
	if !cfg.CloudinaryEnabled() {
		t.Error("expected cloudinary to be enabled")
	}
	if cfg.ObjectStoreEnabled() {
		t.Error("expected object store to be disabled")
	}
	wantOrigins := []string{"https://skillswap.app", "http://localhost:5173"}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, wantOrigins) {
		t.Errorf("CORSAllowedOrigins = %v; want %v", cfg.CORSAllowedOrigins, wantOrigins)
	}
}

func TestLoad_MissingRequiredVars(t *testing.T) {
	cases := []struct {
		missingKey string
		wantErr    string
	}{
		{"MARIADB_DSN", "MARIADB_DSN is required"},
		{"MARIADB_MAX_OPEN_CONN", "MARIADB_MAX_OPEN_CONN is required"},
		{"MARIADB_MAX_IDLE_CONNS", "MARIADB_MAX_IDLE_CONNS is required"},
		{"MARIADB_CONN_MAX_LIFETIME", "MARIADB_CONN_MAX_LIFETIME is required"},
		{"SERVER_PORT", "SERVER_PORT is required"},
		{"CLOUDINARY_CLOUD_NAME", "CLOUDINARY_CLOUD_NAME is required"},
		{"CLOUDINARY_API_KEY", "CLOUDINARY_API_KEY is required"},
		{"CLOUDINARY_API_SECRET", "CLOUDINARY_API_SECRET is required"},
	}

	for _, tc := range cases {
		t.Run(tc.missingKey, func(t *testing.T) {
			inTempDir(t)

			for k, v := range baseEnv() {
				if k == tc.missingKey {
					t.Setenv(k, "")
					if err := os.Unsetenv(k); err != nil {
						t.Fatalf("could not unset key %s in env: %v", k, err)
					}
					continue
				}
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if err == nil {
				t.Fatalf("expected error for missing %s, got nil", tc.missingKey)
			}
			if err.Error() != tc.wantErr {
				t.Errorf("error = %q; want %q", err.Error(), tc.wantErr)
			}
			if cfg != nil {
				t.Errorf("expected cfg nil on error, got %#v", cfg)
			}
		})
	}
}

func TestLoad_ObjectStoreProvider(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing endpoint",
			env:     map[string]string{"IMAGE_PROVIDER": "objectstore"},
			wantErr: "MINIO_ENDPOINT is required",
		},
		{
			name: "complete",
			env: map[string]string{
				"IMAGE_PROVIDER":   "objectstore",
				"MINIO_ENDPOINT":   "localhost:9000",
				"MINIO_ACCESS_KEY": "minio",
				"MINIO_SECRET_KEY": "minio123",
			},
		},
		{
			name:    "unsupported provider",
			env:     map[string]string{"IMAGE_PROVIDER": "imgur"},
			wantErr: `IMAGE_PROVIDER "imgur" is not supported`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inTempDir(t)
			for k, v := range baseEnv() {
				t.Setenv(k, v)
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr != "" {
				if err == nil || err.Error() != tc.wantErr {
					t.Fatalf("error = %v; want %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !cfg.ObjectStoreEnabled() {
				t.Error("expected object store to be enabled")
			}
		})
	}
}

package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg := FromEnv()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.StoreBackend != "bolt" {
		t.Errorf("StoreBackend = %q, want bolt", cfg.StoreBackend)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Scylla")
	t.Setenv("SCYLLA_HOSTS", "10.0.0.1, 10.0.0.2,,")
	t.Setenv("MINIO_USE_SSL", "TRUE")

	cfg := FromEnv()
	if cfg.StoreBackend != "scylla" {
		t.Errorf("StoreBackend = %q, want scylla", cfg.StoreBackend)
	}
	if len(cfg.ScyllaHosts) != 2 || cfg.ScyllaHosts[1] != "10.0.0.2" {
		t.Errorf("ScyllaHosts = %v", cfg.ScyllaHosts)
	}
	if !cfg.MinioUseSSL {
		t.Error("MinioUseSSL should be true")
	}
}

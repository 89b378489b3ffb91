package gcp

import (
	"errors"
	"testing"
)

func TestResolveObjectStorageConfigFromEnvDefaultGCS(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCS, cfg.Mode)
	}
	if cfg.Inferred {
		t.Fatalf("inferred: want=false got=true")
	}
}

func TestResolveObjectStorageConfigFromEnvInfersEmulator(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443/")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if !cfg.IsEmulatorMode() || !cfg.Inferred {
		t.Fatalf("mode: want emulator (inferred) got=%q inferred=%v", cfg.Mode, cfg.Inferred)
	}
	if cfg.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator host: want=%q got=%q", "http://fake-gcs:4443", cfg.EmulatorHost)
	}
}

func TestResolveObjectStorageConfigFromEnvErrors(t *testing.T) {
	cases := []struct {
		mode, host string
		want       ObjectStorageConfigErrorCode
	}{
		{"s3", "", ObjectStorageConfigErrorInvalidMode},
		{"gcs_emulator", "", ObjectStorageConfigErrorMissingEmulatorHost},
		{"gcs_emulator", "fake-gcs:4443", ObjectStorageConfigErrorInvalidEmulatorHost},
	}
	for _, tc := range cases {
		t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
		t.Setenv("STORAGE_EMULATOR_HOST", tc.host)
		_, err := ResolveObjectStorageConfigFromEnv()
		var cfgErr *ObjectStorageConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("mode=%q host=%q: expected config error, got %v", tc.mode, tc.host, err)
		}
		if cfgErr.Code != tc.want {
			t.Fatalf("code: want=%q got=%q", tc.want, cfgErr.Code)
		}
	}
}

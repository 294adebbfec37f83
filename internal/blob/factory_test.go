package blob

import (
	"bytes"
	"log"
	"strings"
	"testing"

	appcfg "github.com/nutriexpert/api/internal/config"
)

func captureLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf, "", 0), &buf
}

func TestNewBlobStoreForcedLocal(t *testing.T) {
	logger, buf := captureLogger()

	store, mode, err := NewBlobStore(appcfg.BlobConfig{Mode: appcfg.BlobModeLocal}, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store != nil || mode != appcfg.BlobModeLocal {
		t.Fatalf("expected nil store and local mode, got store=%v mode=%q", store, mode)
	}
	if !strings.Contains(buf.String(), "mode=local (forced)") {
		t.Fatalf("expected forced local log, got: %s", buf.String())
	}
}

func TestNewBlobStoreEmptyModeDefaultsToLocal(t *testing.T) {
	logger, _ := captureLogger()

	store, mode, err := NewBlobStore(appcfg.BlobConfig{}, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store != nil || mode != appcfg.BlobModeLocal {
		t.Fatalf("expected local default, got store=%v mode=%q", store, mode)
	}
}

func TestNewBlobStoreAutoDegradesWithoutS3(t *testing.T) {
	logger, buf := captureLogger()

	store, mode, err := NewBlobStore(appcfg.BlobConfig{Mode: appcfg.BlobModeAuto}, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store != nil || mode != appcfg.BlobModeLocal {
		t.Fatalf("expected local fallback, got store=%v mode=%q", store, mode)
	}

	out := buf.String()
	if !strings.Contains(out, "code=s3_not_configured") {
		t.Fatalf("expected s3_not_configured diagnostics, got: %s", out)
	}
	if !strings.Contains(out, "mode=local (auto, S3 not configured)") {
		t.Fatalf("expected auto fallback log, got: %s", out)
	}
}

func TestNewBlobStoreForcedS3WithoutConfigFails(t *testing.T) {
	logger, _ := captureLogger()

	store, mode, err := NewBlobStore(appcfg.BlobConfig{
		Mode: appcfg.BlobModeS3,
		S3:   appcfg.S3Config{Endpoint: "https://minio.internal:9000"},
	}, logger)
	if err == nil {
		t.Fatal("expected error when mode=s3 and required env are missing")
	}
	if store != nil || mode != "" {
		t.Fatalf("expected nil store and empty mode on error, got store=%v mode=%q", store, mode)
	}
	if !strings.Contains(err.Error(), "missing required config") {
		t.Fatalf("expected missing required config error, got: %v", err)
	}
}

func TestNewBlobStoreUnsupportedMode(t *testing.T) {
	if _, _, err := NewBlobStore(appcfg.BlobConfig{Mode: "ftp"}, nil); err == nil {
		t.Fatal("expected error for unsupported mode")
	}
}

func TestReportObjectKey(t *testing.T) {
	key := ReportObjectKey("u-1", "r-9", "pdf")
	if key != "reports/u-1/r-9.pdf" {
		t.Fatalf("unexpected key: %s", key)
	}
}

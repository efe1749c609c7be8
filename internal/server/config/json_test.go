package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = append([]string{"exersio-server"}, args...)
}

func TestParseJson_AllFields(t *testing.T) {
	path := writeConfigFile(t, `{
		"endpoint_addr_http": "api.local:8000",
		"endpoint_addr_grpc": "api.local:9000",
		"database_dsn": "postgres://coach@db/exersio",
		"secret_key": "jwt-secret",
		"access_token_validity_duration": "1m",
		"refresh_token_validity_duration": "72h",
		"s3_root_user": "minio",
		"s3_root_password": "minio-pass",
		"s3_bucket": "drills",
		"s3_region": "eu-central-1",
		"s3_base_endpoint": "http://minio:9000"
	}`)
	withArgs(t, "-config", path)

	got := &Config{}
	parseJson(got)

	want := &Config{
		EndpointAddrHTTP:             "api.local:8000",
		EndpointAddrGRPC:             "api.local:9000",
		DatabaseDSN:                  "postgres://coach@db/exersio",
		SecretKey:                    "jwt-secret",
		AccessTokenValidityDuration:  time.Minute,
		RefreshTokenValidityDuration: 72 * time.Hour,
		S3RootUser:                   "minio",
		S3RootPassword:               "minio-pass",
		S3Bucket:                     "drills",
		S3Region:                     "eu-central-1",
		S3BaseEndpoint:               "http://minio:9000",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJson_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfigFile(t, `{"s3_bucket": "drills", "access_token_validity_duration": 60000000000}`)
	withArgs(t, "-c", path)

	got := &Config{}
	got.LoadDefaults()
	parseJson(got)

	want := &Config{}
	want.LoadDefaults()
	want.S3Bucket = "drills"
	want.AccessTokenValidityDuration = time.Minute

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJson_NoConfigFlag(t *testing.T) {
	withArgs(t, "-a", ":9999")

	got := &Config{SecretKey: "kept"}
	parseJson(got)

	if diff := cmp.Diff(&Config{SecretKey: "kept"}, got); diff != "" {
		t.Errorf("config changed without a file (-want +got):\n%s", diff)
	}
}

func TestParseJson_InvalidFilePanics(t *testing.T) {
	withArgs(t, "-config", writeConfigFile(t, `{ not json`))
	require.Panics(t, func() { parseJson(&Config{}) })

	withArgs(t, "-config", filepath.Join(t.TempDir(), "missing.json"))
	require.Panics(t, func() { parseJson(&Config{}) })
}

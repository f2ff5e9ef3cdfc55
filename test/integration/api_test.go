// Package integration provides end-to-end tests for the secrets API: every
// request goes through the real AuthGate-signed HTTP server, backed by a
// live PostgreSQL database and an AWS KMS-compatible endpoint (localstack in
// CI). Skipped in short mode since both services must be reachable.
package integration

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/allisson/secrets/internal/app"
	"github.com/allisson/secrets/internal/config"
	"github.com/allisson/secrets/internal/testutil"
)

// localstackKMSEndpoint is the default endpoint used by docker-compose's
// localstack service; override with TEST_AWS_KMS_ENDPOINT for other setups.
const localstackKMSEndpoint = "http://localhost:4566"

// integrationTestContext bundles the running server and the key material
// needed to sign requests against it.
type integrationTestContext struct {
	container  *app.Container
	db         *sql.DB
	server     *httptest.Server
	signingKey *ecdsa.PrivateKey
}

func kmsEndpoint() string {
	if v := os.Getenv("TEST_AWS_KMS_ENDPOINT"); v != "" {
		return v
	}
	return localstackKMSEndpoint
}

// provisionKMSKey creates a real symmetric KMS key against the configured
// endpoint and returns its key id, to be registered as a Kek row.
func provisionKMSKey(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	require.NoError(t, err, "failed to load aws config")

	client := kms.NewFromConfig(cfg, func(o *kms.Options) {
		o.BaseEndpoint = aws.String(kmsEndpoint())
	})

	out, err := client.CreateKey(ctx, &kms.CreateKeyInput{})
	require.NoError(t, err, "failed to create kms key against %s (is localstack running?)", kmsEndpoint())

	return *out.KeyMetadata.KeyId
}

func setupIntegrationTest(t *testing.T) *integrationTestContext {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	gin.SetMode(gin.TestMode)

	db := testutil.SetupPostgresDB(t)

	kmsKeyRef := provisionKMSKey(t)
	_, err := db.Exec(`INSERT INTO keks (kms_key_ref, created_at) VALUES ($1, NOW())`, kmsKeyRef)
	require.NoError(t, err, "failed to register test kek")

	signingKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "failed to generate auth signing key")
	pub := elliptic.Marshal(elliptic.P256(), signingKey.PublicKey.X, signingKey.PublicKey.Y)

	cfg := &config.Config{
		ServerHost:           "localhost",
		ServerPort:           0,
		DBDriver:             "postgres",
		DBConnectionString:   testutil.PostgresTestDSN,
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Hour,
		LogLevel:             "error",
		AuthVerifyingKeyHex:  hex.EncodeToString(pub),
		KMSProvider:          "awskms",
		AWSRegion:            "us-east-1",
		AWSKMSEndpoint:       kmsEndpoint(),
		DefaultProxiedTTL:    time.Hour,
		CORSAllowedOrigins:   []string{"*"},
		MetricsEnabled:       false,
		RequestIDHeader:      "X-Request-Id",
	}

	require.NoError(t, os.Setenv("AWS_ACCESS_KEY_ID", "test"))
	require.NoError(t, os.Setenv("AWS_SECRET_ACCESS_KEY", "test"))

	container := app.NewContainer(cfg)

	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to initialize http server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	testServer := httptest.NewServer(handler)

	return &integrationTestContext{
		container:  container,
		db:         db,
		server:     testServer,
		signingKey: signingKey,
	}
}

func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}
	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("warning: container shutdown error: %v", err)
		}
	}
	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}
}

// signRequest computes the AuthGate digest over (timestamp, path, body) —
// mirroring authgate.Digest byte-for-byte — and returns its hex-encoded r||s
// signature.
func signRequest(t *testing.T, priv *ecdsa.PrivateKey, timestampASCII, path string, body []byte) string {
	t.Helper()

	h := sha256.New()
	h.Write([]byte(timestampASCII))
	h.Write([]byte("\n"))
	h.Write([]byte(path))
	h.Write([]byte("\n"))
	h.Write(body)
	digest := h.Sum(nil)

	r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
	require.NoError(t, err)

	sig := make([]byte, 64)
	rBytes, sBytes := r.Bytes(), s.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)
	return hex.EncodeToString(sig)
}

func base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func base64Decode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	return b
}

// makeRequest performs a signed (or deliberately unsigned) HTTP request
// against the running test server and returns the response and raw body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body []byte,
	sign bool,
) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, reader)
	require.NoError(t, err, "failed to create request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if sign {
		ts := fmt.Sprintf("%d", time.Now().UnixMilli())
		req.Header.Set("X-Timestamp", ts)
		req.Header.Set("X-Signature", signRequest(t, ctx.signingKey, ts, path, body))
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	require.NoError(t, resp.Body.Close())

	return resp, respBody
}

func TestHealthAndReadyEndpoints(t *testing.T) {
	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	resp, _ := ctx.makeRequest(t, http.MethodGet, "/health", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ctx.makeRequest(t, http.MethodGet, "/ready", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVaultConnectionLifecycle(t *testing.T) {
	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	createBody, err := json.Marshal(map[string]any{
		"public_id":        "conn-lifecycle-1",
		"integration_type": "vaultkv",
		"config":           `{"address":"http://vault.internal","token":"s.abc123","path":"secret/data/app"}`,
	})
	require.NoError(t, err)

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/vault-connections", createBody, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created struct {
		PublicID        string `json:"public_id"`
		IntegrationType string `json:"integration_type"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	require.Equal(t, "conn-lifecycle-1", created.PublicID)

	resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/vault-connections/conn-lifecycle-1", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var read struct {
		Config string `json:"config"`
	}
	require.NoError(t, json.Unmarshal(body, &read))
	require.Contains(t, read.Config, "vault.internal")

	updateBody, err := json.Marshal(map[string]any{"ttl_seconds": 120})
	require.NoError(t, err)
	resp, body = ctx.makeRequest(t, http.MethodPatch, "/v1/vault-connections/conn-lifecycle-1", updateBody, true)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = ctx.makeRequest(t, http.MethodDelete, "/v1/vault-connections/conn-lifecycle-1", nil, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

	resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/vault-connections/conn-lifecycle-1", nil, true)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVaultConnectionConflict(t *testing.T) {
	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	createBody, err := json.Marshal(map[string]any{
		"public_id":        "conn-conflict-1",
		"integration_type": "vaultkv",
		"config":           `{"address":"http://vault.internal","token":"s.abc123","path":"secret/data/app"}`,
	})
	require.NoError(t, err)

	resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/vault-connections", createBody, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/vault-connections", createBody, true)
	require.Equal(t, http.StatusConflict, resp.StatusCode, string(body))
}

func TestLocalSecretLifecycle(t *testing.T) {
	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	value := []byte("correct-horse-battery-staple")
	createBody, err := json.Marshal(map[string]any{
		"name":        "db-password",
		"value":       base64Encode(value),
		"version_tag": "v1",
	})
	require.NoError(t, err)

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/secrets", createBody, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created secretVersionResponse
	require.NoError(t, json.Unmarshal(body, &created))
	require.Equal(t, "db-password", created.Name)
	require.Equal(t, "v1", created.VersionTag)
	require.Equal(t, value, base64Decode(t, created.Value))

	resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/secrets/db-password", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var current secretVersionResponse
	require.NoError(t, json.Unmarshal(body, &current))
	require.Equal(t, "v1", current.VersionTag)

	newValue := []byte("hunter2-but-better")
	versionBody, err := json.Marshal(map[string]any{
		"version_tag": "v2",
		"value":       base64Encode(newValue),
	})
	require.NoError(t, err)

	resp, body = ctx.makeRequest(t, http.MethodPost, "/v1/secrets/db-password/versions", versionBody, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/secrets/db-password/versions/v1", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var v1 secretVersionResponse
	require.NoError(t, json.Unmarshal(body, &v1))
	require.Equal(t, value, base64Decode(t, v1.Value))

	resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/secrets/db-password", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var latest secretVersionResponse
	require.NoError(t, json.Unmarshal(body, &latest))
	require.Equal(t, "v2", latest.VersionTag)
	require.Equal(t, newValue, base64Decode(t, latest.Value))
}

func TestAuthGateRejectsUnsignedAndTamperedRequests(t *testing.T) {
	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	createBody, err := json.Marshal(map[string]any{
		"name":        "auth/unsigned",
		"value":       base64Encode([]byte("x")),
		"version_tag": "v1",
	})
	require.NoError(t, err)

	resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/secrets", createBody, false)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ctx.server.URL+"/v1/secrets", bytes.NewReader(createBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	ts := fmt.Sprintf("%d", time.Now().UnixMilli())
	req.Header.Set("X-Timestamp", ts)
	req.Header.Set("X-Signature", signRequest(t, ctx.signingKey, ts, "/v1/secrets", createBody))
	tamperedBody, err := json.Marshal(map[string]any{
		"name":        "auth/unsigned",
		"value":       base64Encode([]byte("y")),
		"version_tag": "v1",
	})
	require.NoError(t, err)
	req.Body = io.NopCloser(bytes.NewReader(tamperedBody))
	req.ContentLength = int64(len(tamperedBody))

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err = client.Do(req) //nolint:bodyclose
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthGateRejectsStaleTimestamp(t *testing.T) {
	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	staleTS := fmt.Sprintf("%d", time.Now().Add(-time.Hour).UnixMilli())
	req, err := http.NewRequest(http.MethodGet, ctx.server.URL+"/v1/secrets/db-password", nil)
	require.NoError(t, err)
	req.Header.Set("X-Timestamp", staleTS)
	req.Header.Set("X-Signature", signRequest(t, ctx.signingKey, staleTS, "/v1/secrets/db-password", nil))

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req) //nolint:bodyclose
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

type secretVersionResponse struct {
	Name       string `json:"name"`
	VersionTag string `json:"version_tag"`
	Value      string `json:"value"`
}

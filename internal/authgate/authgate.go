// Package authgate implements the request-signing front door (§4.5): every
// mutating and reading endpoint sits behind a gin.HandlerFunc that verifies
// an ECDSA P-256 signature over the timestamp, path, and body before letting
// a request reach its route handler.
//
// The HTTP method and the URL query string are not part of the digest (see
// Digest): a signature covers only the timestamp, the path and the body.
package authgate

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/secrets/internal/errors"
	"github.com/allisson/secrets/internal/httputil"
)

// MaxBodyBytes is the hard cap on a signed request body (§4.5).
const MaxBodyBytes = 256 * 1024

// RecvWindow is the maximum allowed drift between the caller's timestamp and
// the server's clock (§4.5).
const RecvWindow = 5000 * time.Millisecond

// ParseVerifyingKey decodes a hex-encoded SEC1 P-256 public key (uncompressed
// point, 0x04 || X(32) || Y(32)) as loaded once from configuration at boot.
func ParseVerifyingKey(hexKey string) (*ecdsa.PublicKey, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("auth verifying key is not valid hex: %w", err)
	}

	curve := elliptic.P256()
	x, y := elliptic.Unmarshal(curve, raw)
	if x == nil {
		return nil, fmt.Errorf("auth verifying key is not a valid SEC1 P-256 point")
	}

	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

// Middleware returns a gin.HandlerFunc implementing §4.5's contract in
// full: body-size-capped read, recv-window check, digest recomputation, and
// ECDSA verification against verifyingKey. On success the body is restored
// so the route handler can bind it again.
func Middleware(verifyingKey *ecdsa.PublicKey, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		signatureHex := c.GetHeader("X-Signature")
		timestampStr := c.GetHeader("X-Timestamp")
		if signatureHex == "" || timestampStr == "" {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		tsMillis, err := strconv.ParseInt(timestampStr, 10, 64)
		if err != nil {
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid timestamp"), logger)
			c.Abort()
			return
		}

		nowMillis := time.Now().UnixMilli()
		drift := nowMillis - tsMillis
		if drift < 0 {
			drift = -drift
		}
		if time.Duration(drift)*time.Millisecond > RecvWindow {
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "timestamp is outside of the recv window"), logger)
			c.Abort()
			return
		}

		var body []byte
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodDelete {
			body, err = io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyBytes+1))
			if err != nil {
				httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "request body too large"), logger)
				c.Abort()
				return
			}
			if len(body) > MaxBodyBytes {
				httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "request body too large"), logger)
				c.Abort()
				return
			}
		}

		signature, err := hex.DecodeString(signatureHex)
		if err != nil || len(signature) != 64 {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}
		r := new(big.Int).SetBytes(signature[:32])
		s := new(big.Int).SetBytes(signature[32:])

		digest := Digest(timestampStr, c.Request.URL.Path, body)
		if !ecdsa.Verify(verifyingKey, digest, r, s) {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

// Digest computes SHA-256(timestamp_ascii || "\n" || path || "\n" || body),
// the exact byte sequence an AuthGate signature is taken over (§4.5).
func Digest(timestampASCII, path string, body []byte) []byte {
	h := sha256.New()
	h.Write([]byte(timestampASCII))
	h.Write([]byte("\n"))
	h.Write([]byte(path))
	h.Write([]byte("\n"))
	h.Write(body)
	return h.Sum(nil)
}

package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/podcastr/api/internal/config"
)

func newIssuer(t *testing.T, key *rsa.PublicKey) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"issuer":   srv.URL,
			"jwks_uri": srv.URL + "/keys",
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "test-key",
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	})
	return srv
}

func signRS256(t *testing.T, key *rsa.PrivateKey, claims OIDCClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "test-key"
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestJWKSVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	srv := newIssuer(t, &key.PublicKey)

	v, err := NewJWKSVerifier(&config.OIDCConfig{Issuer: srv.URL, ClientID: "podcastr"})
	if err != nil {
		t.Fatalf("NewJWKSVerifier() error: %v", err)
	}
	defer v.Close()

	claims := func(aud string, exp time.Duration) OIDCClaims {
		return OIDCClaims{
			Email:             "host@example.com",
			PreferredUsername: "host",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    srv.URL,
				Subject:   "user-42",
				Audience:  jwt.ClaimStrings{aud},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(exp)),
			},
		}
	}

	id, err := v.Validate(signRS256(t, key, claims("podcastr", time.Hour)))
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if id.UserID != "user-42" || id.Email != "host@example.com" || id.Name != "host" {
		t.Errorf("identity = %+v", id)
	}

	if _, err := v.Validate(signRS256(t, key, claims("someone-else", time.Hour))); err == nil {
		t.Error("expected wrong audience to be rejected")
	}
	if _, err := v.Validate(signRS256(t, key, claims("podcastr", -time.Minute))); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestNewJWKSVerifier_RequiresIssuer(t *testing.T) {
	if _, err := NewJWKSVerifier(&config.OIDCConfig{}); err == nil {
		t.Error("expected error without issuer")
	}
}

func TestDiscoverJWKSURL_MissingURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"issuer":"x"}`))
	}))
	defer srv.Close()

	if _, err := NewJWKSVerifier(&config.OIDCConfig{Issuer: srv.URL}); err == nil {
		t.Error("expected error when jwks_uri is absent")
	}
}

package sns

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ignite/ses-bounce-handler/internal/pkg/logger"
)

const testCertURL = "https://sns.us-east-1.amazonaws.com/SimpleNotificationService-test.pem"

func quietLogger() *logger.Logger {
	return logger.NewWithWriter(logger.ERROR, true, io.Discard)
}

// newSigningFixture generates a key pair and a self-signed certificate,
// returning a validator pre-seeded with the parsed certificate so tests
// never hit the network.
func newSigningFixture(t *testing.T) (*rsa.PrivateKey, *Validator) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "sns.amazonaws.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}

	v := NewValidator(nil, quietLogger())
	v.certs[testCertURL] = cachedCert{cert: cert, fetchedAt: time.Now()}
	return key, v
}

func signEnvelope(t *testing.T, key *rsa.PrivateKey, env *Envelope) {
	t.Helper()

	canonical := env.canonicalString()
	var sig []byte
	var err error
	switch env.SignatureVersion {
	case "2":
		sum := sha256.Sum256(canonical)
		sig, err = rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, sum[:])
	default:
		sum := sha1.Sum(canonical)
		sig, err = rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, sum[:])
	}
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	env.Signature = base64.StdEncoding.EncodeToString(sig)
}

func testEnvelope() *Envelope {
	return &Envelope{
		Type:             TypeNotification,
		MessageID:        "mid-1",
		TopicArn:         "arn:aws:sns:us-east-1:123456789012:ses-events",
		Message:          `{"notificationType":"Bounce"}`,
		Timestamp:        "2024-05-01T12:00:00.000Z",
		SignatureVersion: "1",
		SigningCertURL:   testCertURL,
	}
}

func TestVerify_ValidSignatureV1(t *testing.T) {
	key, v := newSigningFixture(t)
	env := testEnvelope()
	signEnvelope(t, key, env)

	if !v.Verify(context.Background(), env) {
		t.Error("expected valid v1 signature to verify")
	}
}

func TestVerify_ValidSignatureV2(t *testing.T) {
	key, v := newSigningFixture(t)
	env := testEnvelope()
	env.SignatureVersion = "2"
	signEnvelope(t, key, env)

	if !v.Verify(context.Background(), env) {
		t.Error("expected valid v2 signature to verify")
	}
}

func TestVerify_TamperedMessage(t *testing.T) {
	key, v := newSigningFixture(t)
	env := testEnvelope()
	signEnvelope(t, key, env)
	env.Message = `{"notificationType":"Delivery"}`

	if v.Verify(context.Background(), env) {
		t.Error("tampered message must not verify")
	}
}

func TestVerify_SubscriptionConfirmation(t *testing.T) {
	key, v := newSigningFixture(t)
	env := &Envelope{
		Type:             TypeSubscriptionConfirmation,
		MessageID:        "mid-2",
		Token:            "tok-123",
		TopicArn:         "arn:aws:sns:us-east-1:123456789012:ses-events",
		Message:          "You have chosen to subscribe",
		SubscribeURL:     "https://sns.us-east-1.amazonaws.com/?Action=ConfirmSubscription",
		Timestamp:        "2024-05-01T12:00:00.000Z",
		SignatureVersion: "1",
		SigningCertURL:   testCertURL,
	}
	signEnvelope(t, key, env)

	if !v.Verify(context.Background(), env) {
		t.Error("expected confirmation envelope to verify")
	}
}

func TestVerify_StructuralDefects(t *testing.T) {
	key, v := newSigningFixture(t)

	tests := []struct {
		name   string
		mutate func(*Envelope)
	}{
		{"missing signature", func(e *Envelope) { e.Signature = "" }},
		{"missing cert url", func(e *Envelope) { e.SigningCertURL = "" }},
		{"missing timestamp", func(e *Envelope) { e.Timestamp = "" }},
		{"bad base64 signature", func(e *Envelope) { e.Signature = "not base64!!" }},
		{"unsupported version", func(e *Envelope) { e.SignatureVersion = "3" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testEnvelope()
			signEnvelope(t, key, env)
			tt.mutate(env)
			if v.Verify(context.Background(), env) {
				t.Error("defective envelope must not verify")
			}
		})
	}
}

func TestVerify_UntrustedCertHost(t *testing.T) {
	key, v := newSigningFixture(t)
	env := testEnvelope()
	env.SigningCertURL = "https://evil.example.com/cert.pem"
	signEnvelope(t, key, env)

	if v.Verify(context.Background(), env) {
		t.Error("attacker-supplied certificate host must not verify")
	}
}

func TestCheckCertURL(t *testing.T) {
	tests := []struct {
		url string
		ok  bool
	}{
		{"https://sns.us-east-1.amazonaws.com/cert.pem", true},
		{"https://sns.eu-west-1.amazonaws.com/cert.pem", true},
		{"https://sns.cn-north-1.amazonaws.com.cn/cert.pem", true},
		{"http://sns.us-east-1.amazonaws.com/cert.pem", false},
		{"https://sns.us-east-1.amazonaws.com.evil.com/cert.pem", false},
		{"https://evil.com/cert.pem", false},
		{"https://s3.us-east-1.amazonaws.com/cert.pem", false},
		{"://bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := checkCertURL(tt.url)
			if tt.ok && err != nil {
				t.Errorf("checkCertURL(%q) = %v, want nil", tt.url, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("checkCertURL(%q) = nil, want error", tt.url)
			}
		})
	}
}

func TestFetchCert(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "sns.amazonaws.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pemBytes)
	}))
	defer srv.Close()

	v := NewValidator(srv.Client(), quietLogger())
	cert, err := v.fetchCert(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetchCert: %v", err)
	}
	if cert.SerialNumber.Int64() != 2 {
		t.Errorf("unexpected certificate returned")
	}
}

func TestFetchCert_NotPEM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("definitely not a certificate"))
	}))
	defer srv.Close()

	v := NewValidator(srv.Client(), quietLogger())
	if _, err := v.fetchCert(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-PEM body")
	}
}

func TestFetchCert_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := NewValidator(srv.Client(), quietLogger())
	if _, err := v.fetchCert(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

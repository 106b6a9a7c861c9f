package sns

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/ignite/ses-bounce-handler/internal/pkg/logger"
)

// certHostPattern matches the only hosts a signing certificate may be
// fetched from. Restricting the host closes the signature-stripping hole
// where an attacker points SigningCertURL at a server they control.
var certHostPattern = regexp.MustCompile(`^sns\.[a-zA-Z0-9\-]{3,}\.amazonaws\.com(\.cn)?$`)

const certCacheTTL = 6 * time.Hour

type cachedCert struct {
	cert      *x509.Certificate
	fetchedAt time.Time
}

// Validator verifies that an Envelope was genuinely signed by SNS.
// Verification failure is an expected outcome, not an error: Verify
// returns false and logs the reason at warning level.
type Validator struct {
	client *http.Client
	log    *logger.Logger

	mu    sync.Mutex
	certs map[string]cachedCert
}

// NewValidator creates a Validator. The HTTP client is used only for
// signing-certificate fetches; a nil client gets a 10s timeout default.
func NewValidator(client *http.Client, log *logger.Logger) *Validator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logger.Default()
	}
	return &Validator{
		client: client,
		log:    log,
		certs:  make(map[string]cachedCert),
	}
}

// Verify checks the envelope signature against the certificate declared in
// SigningCertURL. Any structural defect, disallowed certificate host,
// fetch failure, or signature mismatch yields false.
func (v *Validator) Verify(ctx context.Context, env *Envelope) bool {
	if env.Signature == "" || env.SigningCertURL == "" || env.Timestamp == "" {
		v.log.Warn("envelope missing signature fields",
			"message_id", env.MessageID, "type", env.Type)
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(env.Signature)
	if err != nil {
		v.log.Warn("envelope signature is not valid base64",
			"message_id", env.MessageID, "error", err.Error())
		return false
	}

	// Hash per declared signature version. Version 1 is SHA1-RSA (the SNS
	// default), version 2 is SHA256-RSA. Verified by hand with
	// rsa.VerifyPKCS1v15 because x509.CheckSignature refuses SHA1 outright.
	var hashed []byte
	var hash crypto.Hash
	canonical := env.canonicalString()
	switch env.SignatureVersion {
	case "1":
		sum := sha1.Sum(canonical)
		hashed, hash = sum[:], crypto.SHA1
	case "2":
		sum := sha256.Sum256(canonical)
		hashed, hash = sum[:], crypto.SHA256
	default:
		v.log.Warn("unsupported signature version",
			"message_id", env.MessageID, "version", env.SignatureVersion)
		return false
	}

	cert, err := v.signingCert(ctx, env.SigningCertURL)
	if err != nil {
		v.log.Warn("signing certificate unavailable",
			"message_id", env.MessageID, "cert_url", env.SigningCertURL, "error", err.Error())
		return false
	}

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		v.log.Warn("signing certificate does not hold an RSA key",
			"message_id", env.MessageID, "cert_url", env.SigningCertURL)
		return false
	}

	if err := rsa.VerifyPKCS1v15(pub, hash, hashed, sig); err != nil {
		v.log.Warn("envelope signature mismatch",
			"message_id", env.MessageID, "type", env.Type, "error", err.Error())
		return false
	}

	return true
}

// signingCert returns the parsed certificate for certURL, fetching it if
// it is not cached or the cache entry has aged out.
func (v *Validator) signingCert(ctx context.Context, certURL string) (*x509.Certificate, error) {
	if err := checkCertURL(certURL); err != nil {
		return nil, err
	}

	v.mu.Lock()
	entry, ok := v.certs[certURL]
	v.mu.Unlock()
	if ok && time.Since(entry.fetchedAt) < certCacheTTL {
		return entry.cert, nil
	}

	cert, err := v.fetchCert(ctx, certURL)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.certs[certURL] = cachedCert{cert: cert, fetchedAt: time.Now()}
	v.mu.Unlock()
	return cert, nil
}

func (v *Validator) fetchCert(ctx context.Context, certURL string) (*x509.Certificate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, certURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build cert request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch cert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch cert: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("read cert body: %w", err)
	}

	block, _ := pem.Decode(body)
	if block == nil {
		return nil, fmt.Errorf("cert body is not PEM")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse cert: %w", err)
	}
	return cert, nil
}

// checkCertURL enforces the trusted-host restriction before any network I/O.
func checkCertURL(certURL string) error {
	u, err := url.Parse(certURL)
	if err != nil {
		return fmt.Errorf("parse cert url: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("cert url scheme %q is not https", u.Scheme)
	}
	if !certHostPattern.MatchString(u.Hostname()) {
		return fmt.Errorf("cert url host %q is not an SNS endpoint", u.Hostname())
	}
	return nil
}

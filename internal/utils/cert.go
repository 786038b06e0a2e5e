package utils

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"net"
	"strings"
	"time"
)

var ErrFingerprint = errors.New("Fingerprint mismatch")

func SHA256ofCert(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func FetchX509Cert(addr string, timeout time.Duration) ([]*x509.Certificate, error) {
	conf := &tls.Config{
		InsecureSkipVerify: true,
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, conf)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return conn.ConnectionState().PeerCertificates, nil
}

// VerifyFingerprint pins the first certificate presented by addr.
func VerifyFingerprint(addr string, expected string, timeout time.Duration) error {
	certs, err := FetchX509Cert(addr, timeout)
	if err != nil {
		return err
	}
	if len(certs) == 0 || !strings.EqualFold(SHA256ofCert(certs[0]), expected) {
		return ErrFingerprint
	}
	return nil
}

package network

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
)

var errNoPeerCertificate = errors.New("peer presented no certificate")

// TLSInspector reads the leaf certificate a hostname presents.
// The chain is not verified: the audit looks at what is served,
// it does not make a trust decision.
type TLSInspector struct {
	port    int
	timeout time.Duration
}

// NewTLSInspector returns TLSInspector connecting to port, the whole
// handshake bounded by timeout.
func NewTLSInspector(port int, timeout time.Duration) TLSInspector {
	return TLSInspector{port: port, timeout: timeout}
}

// Inspect performs a TLS handshake with hostname as server name
// and returns facts about the presented leaf certificate.
func (i TLSInspector) Inspect(ctx context.Context, hostname string) (entities.CertificateFacts, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	d := tls.Dialer{
		Config: &tls.Config{
			ServerName:         hostname,
			InsecureSkipVerify: true, //nolint:gosec
			MinVersion:         tls.VersionTLS10,
		},
	}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(hostname, strconv.Itoa(i.port)))
	if err != nil {
		return entities.CertificateFacts{}, fmt.Errorf("%w: handshake: %w", ErrInspection, err)
	}
	defer conn.Close() //nolint:errcheck

	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return entities.CertificateFacts{}, fmt.Errorf("%w: unexpected connection type %T", ErrInspection, conn)
	}

	certs := tlsConn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return entities.CertificateFacts{}, fmt.Errorf("%w: %w", ErrInspection, errNoPeerCertificate)
	}

	return FactsFromCertificate(hostname, certs[0]), nil
}

// FactsFromCertificate extracts the audited fields of cert.
// IssuerOrg is empty when the issuer has no organization attribute.
func FactsFromCertificate(hostname string, cert *x509.Certificate) entities.CertificateFacts {
	var org string
	if len(cert.Issuer.Organization) > 0 {
		org = cert.Issuer.Organization[0]
	}

	return entities.CertificateFacts{
		CommonName: hostname,
		IssuerOrg:  org,
		NotBefore:  cert.NotBefore,
		NotAfter:   cert.NotAfter,
	}
}

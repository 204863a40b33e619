package network

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/geozo-tech/go-curl"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
)

const parseDateFormat = "Jan 2 15:04:05 2006 MST"

var (
	errMissingStartDate  = errors.New("start date is not found in cert info")
	errMissingExpireDate = errors.New("expire date is not found in cert info")
	errNoCertInfo        = errors.New("no cert info")
)

// CurlInspector reads the leaf certificate through libcurl CERTINFO.
// It is an alternative to TLSInspector for hosts whose TLS stack
// only interoperates with OpenSSL.
type CurlInspector struct {
	port    int
	timeout time.Duration
}

// NewCurlInspector returns CurlInspector connecting to port, the whole
// transfer bounded by timeout.
func NewCurlInspector(port int, timeout time.Duration) CurlInspector {
	return CurlInspector{port: port, timeout: timeout}
}

// Inspect fetches certificate info for hostname with peer and host
// verification disabled.
func (i CurlInspector) Inspect(ctx context.Context, hostname string) (entities.CertificateFacts, error) {
	if err := ctx.Err(); err != nil {
		return entities.CertificateFacts{}, fmt.Errorf("%w: %w", ErrInspection, err)
	}

	certs, err := i.certInfo(hostname)
	if err != nil {
		return entities.CertificateFacts{}, fmt.Errorf("%w: %w", ErrInspection, err)
	}

	facts, err := parseCertInfo(hostname, certs)
	if err != nil {
		return entities.CertificateFacts{}, fmt.Errorf("%w: %w", ErrInspection, err)
	}

	return facts, nil
}

func (i CurlInspector) certInfo(hostname string) ([]string, error) {
	easy := curl.EasyInit()
	defer easy.Cleanup()

	if err := easy.Setopt(curl.OPT_URL, "https://"+hostname+":"+strconv.Itoa(i.port)); err != nil {
		return nil, fmt.Errorf("failed append param url: %w", err)
	}
	if err := easy.Setopt(curl.OPT_SSL_VERIFYPEER, false); err != nil {
		return nil, fmt.Errorf("failed append param verifypeer: %w", err)
	}
	if err := easy.Setopt(curl.OPT_SSL_VERIFYHOST, false); err != nil {
		return nil, fmt.Errorf("failed append param verifyhost: %w", err)
	}
	if err := easy.Setopt(curl.OPT_TIMEOUT, max(1, int(i.timeout.Seconds()))); err != nil {
		return nil, fmt.Errorf("failed append param timeout: %w", err)
	}
	if err := easy.Setopt(curl.OPT_CERTINFO, true); err != nil {
		return nil, fmt.Errorf("failed append param certinfo: %w", err)
	}
	if err := easy.Setopt(curl.OPT_NOPROGRESS, true); err != nil {
		return nil, fmt.Errorf("failed append param noprogress: %w", err)
	}
	if err := easy.Setopt(curl.OPT_NOBODY, true); err != nil {
		return nil, fmt.Errorf("failed append param nobody: %w", err)
	}
	if err := easy.Perform(); err != nil {
		return nil, fmt.Errorf("failed to send curl: %w", err)
	}

	info, err := easy.Getinfo(curl.INFO_CERTINFO)
	if err != nil {
		return nil, fmt.Errorf("failed to get info: %w", err)
	}

	certs, ok := info.([]string)
	if !ok {
		return nil, errors.New("unsupported certificate info format") //nolint:goerr113
	}

	return certs, nil
}

// parseCertInfo reads the leaf entry of libcurl CERTINFO output, one
// "Key:value" pair per line.
func parseCertInfo(hostname string, certs []string) (entities.CertificateFacts, error) {
	if len(certs) == 0 || strings.TrimSpace(certs[0]) == "" {
		return entities.CertificateFacts{}, errNoCertInfo
	}

	fields := make(map[string]string)
	for _, line := range strings.Split(certs[0], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if _, seen := fields[key]; !seen {
			fields[key] = strings.TrimSpace(value)
		}
	}

	start, ok := fields["Start date"]
	if !ok {
		return entities.CertificateFacts{}, errMissingStartDate
	}
	expire, ok := fields["Expire date"]
	if !ok {
		return entities.CertificateFacts{}, errMissingExpireDate
	}

	notBefore, err := parseCertDate(start)
	if err != nil {
		return entities.CertificateFacts{}, fmt.Errorf("parse start date error: %w", err)
	}
	notAfter, err := parseCertDate(expire)
	if err != nil {
		return entities.CertificateFacts{}, fmt.Errorf("parse expire date error: %w", err)
	}

	return entities.CertificateFacts{
		CommonName: hostname,
		IssuerOrg:  distinguishedNameAttr(fields["Issuer"], "O"),
		NotBefore:  notBefore,
		NotAfter:   notAfter,
	}, nil
}

// parseCertDate accepts OpenSSL dates, which pad single digit days
// with an extra space.
func parseCertDate(value string) (time.Time, error) {
	return time.Parse(parseDateFormat, strings.Join(strings.Fields(value), " "))
}

// distinguishedNameAttr returns the first value of attr in a one-line
// distinguished name such as `C = US, O = "Example, Inc.", CN = R3`.
func distinguishedNameAttr(dn, attr string) string {
	for _, rdn := range splitDistinguishedName(dn) {
		key, value, ok := strings.Cut(rdn, "=")
		if !ok || strings.TrimSpace(key) != attr {
			continue
		}

		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		return strings.ReplaceAll(value, `\`, "")
	}

	return ""
}

func splitDistinguishedName(dn string) []string {
	var (
		parts   []string
		current strings.Builder
		quoted  bool
		escaped bool
	)
	for _, r := range dn {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case (r == ',' || r == ';') && !quoted:
			parts = append(parts, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}

	return append(parts, current.String())
}

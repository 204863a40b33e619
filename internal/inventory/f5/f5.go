package f5

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/config"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/credential"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
)

// certificateList is the part of the iControl REST ssl-cert
// collection the audit cares about.
type certificateList struct {
	Items []entities.InventoryEntry `json:"items"`
}

// Client is an iControl REST implementation of inventory.Source.
type Client struct {
	http       *http.Client
	logger     *zap.Logger
	url        string
	credential credential.Credential
}

// New returns Client for the management API described by conf. The
// credential is used for basic auth and is not kept anywhere else.
func New(logger *zap.Logger, conf *config.F5, cred credential.Credential) Client {
	return Client{
		http: &http.Client{
			Timeout: conf.Timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: !conf.VerifyTLS}, //nolint:gosec
			},
		},
		logger:     logger,
		url:        "https://" + net.JoinHostPort(conf.Host, strconv.Itoa(conf.Port)) + conf.Request,
		credential: cred,
	}
}

// Fetch returns all certificate records of the load balancer.
func (c Client) Fetch(ctx context.Context) ([]entities.InventoryEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory request: %w", err)
	}
	req.SetBasicAuth(c.credential.User, c.credential.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query management api: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("management api answered %s", resp.Status) //nolint:goerr113
	}

	entries, err := Decode(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetched inventory from management api", zap.Int("entries", len(entries)))

	return entries, nil
}

// Decode reads an iControl REST ssl-cert collection.
func Decode(r io.Reader) ([]entities.InventoryEntry, error) {
	var list certificateList
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode certificate list: %w", err)
	}

	return list.Items, nil
}

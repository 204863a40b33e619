package f5

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/config"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/credential"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
)

const certPath = "/mgmt/tm/sys/file/ssl-cert"

func fakeManagementAPI(t *testing.T, body string) *config.F5 {
	t.Helper()

	mux := chi.NewRouter()
	mux.Get(certPath, func(w http.ResponseWriter, req *http.Request) {
		user, pass, ok := req.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body)) //nolint:errcheck,gosec
	})

	srv := httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)

	host, port, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "https://"))
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	return &config.F5{
		Host:     host,
		Port:     p,
		Request:  certPath,
		Timeout:  5 * time.Second,
	}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	body := `{"items":[{"commonName":"a.example.com","name":"a"},{"commonName":"*.example.com"}]}`

	t.Run("returns common names", func(t *testing.T) {
		t.Parallel()

		conf := fakeManagementAPI(t, body)
		c := New(zap.NewNop(), conf, credential.Credential{User: "admin", Password: "secret"})

		entries, err := c.Fetch(context.Background())
		require.NoError(t, err)
		require.Equal(t, []entities.InventoryEntry{
			{CommonName: "a.example.com"},
			{CommonName: "*.example.com"},
		}, entries)
	})
	t.Run("bad credential", func(t *testing.T) {
		t.Parallel()

		conf := fakeManagementAPI(t, body)
		c := New(zap.NewNop(), conf, credential.Credential{User: "admin", Password: "wrong"})

		_, err := c.Fetch(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "401")
	})
	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		conf := fakeManagementAPI(t, `{"items":`)
		c := New(zap.NewNop(), conf, credential.Credential{User: "admin", Password: "secret"})

		_, err := c.Fetch(context.Background())
		require.Error(t, err)
	})
	t.Run("unknown path", func(t *testing.T) {
		t.Parallel()

		conf := fakeManagementAPI(t, body)
		conf.Request = "/mgmt/tm/ltm/virtual"
		c := New(zap.NewNop(), conf, credential.Credential{User: "admin", Password: "secret"})

		_, err := c.Fetch(context.Background())
		require.Error(t, err)
	})
}

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/environment"
)

// Known inventory sources.
const (
	SourceF5       = "f5"
	SourcePostgres = "postgres"
	SourceFile     = "file"
)

// Known certificate inspectors.
const (
	InspectorTLS  = "tls"
	InspectorCurl = "curl"
)

// Known report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Defaults of the F5 management API options.
const (
	DefaultF5Port    = 443
	DefaultF5Request = "/mgmt/tm/sys/file/ssl-cert"
)

type (
	// AppConfig contains full configuration of the service.
	AppConfig struct {
		Env     environment.Env `long:"env" env:"ENV" description:"Environment application is running in" default:"local"`
		Options string          `long:"options" env:"OPTIONS" description:"YAML options file in the conf/options.yaml layout"`

		Logger    Logger    `group:"Logger options" namespace:"logger" env-namespace:"LOGGER"`
		Inventory Inventory `group:"Inventory options" namespace:"inventory" env-namespace:"INVENTORY"`
		F5        F5        `group:"F5 management API options" namespace:"f5" env-namespace:"F5"`
		Postgres  Postgres  `group:"PostgreSQL option" namespace:"postgres" env-namespace:"POSTGRES"`
		Policy    Policy    `group:"Policy options" namespace:"policy" env-namespace:"POLICY"`
		Audit     Audit     `group:"Audit options" namespace:"audit" env-namespace:"AUDIT"`
		Resolver  Resolver  `group:"Resolver options" namespace:"resolver" env-namespace:"RESOLVER"`
		Output    Output    `group:"Output options" namespace:"output" env-namespace:"OUTPUT"`
		HTTP      Server    `group:"HTTP server options" namespace:"http" env-namespace:"HTTP"`
	}

	// Logger contains logger configuration.
	Logger struct {
		Level string `long:"level" env:"LEVEL" description:"Log level to use; environment-base level is used when empty"`
	}

	// Inventory selects where certificate records come from.
	Inventory struct {
		Source string `long:"source" env:"SOURCE" description:"Inventory source" choice:"f5" choice:"postgres" choice:"file" default:"f5"` //nolint:lll
		File   string `long:"file" env:"FILE" description:"Saved iControl REST ssl-cert export, used by the file source"`
	}

	// F5 contains load balancer management API configuration.
	// The password is never part of it, see package credential.
	F5 struct {
		Host      string        `long:"host" env:"HOST" description:"Management API host"`
		Port      int           `long:"port" env:"PORT" description:"Management API port" default:"443"`
		User      string        `long:"user" env:"USER" description:"Management API user"`
		Request   string        `long:"request" env:"REQUEST" description:"Certificate collection path" default:"/mgmt/tm/sys/file/ssl-cert"` //nolint:lll
		VerifyTLS bool          `long:"verify_tls" env:"VERIFY_TLS" description:"Verify the management API certificate"`
		Timeout   time.Duration `long:"timeout" env:"TIMEOUT" description:"Timeout for the inventory request" default:"30s"`
	}

	// Postgres contains postgres configuration.
	Postgres struct {
		MainDBConnectionString string `long:"maindb_connection_string" env:"MAINDB_CONNECTION_STRING" description:"PGX connection string to the maindDB"` //nolint:lll
		Query                  string `long:"query" env:"QUERY" description:"Query returning one common name per row" default:"SELECT common_name FROM inventory.certificates WHERE deleted_at IS NULL"` //nolint:lll
	}

	// Policy contains the compliance policy.
	Policy struct {
		Deadline Date     `long:"deadline" env:"DEADLINE" description:"Certificates of flagged issuers issued on or before this date are flagged (2006-01-02)"` //nolint:lll
		Flagged  []string `long:"flagged" env:"FLAGGED" env-delim:";" description:"Flagged issuer organization, exact match; repeatable, ';' separated in env"` //nolint:lll
		Exclude  []string `long:"exclude" env:"EXCLUDE" env-delim:";" description:"Common name to skip, exact match; repeatable, ';' separated in env"`         //nolint:lll
	}

	// Audit contains audit pipeline configuration.
	Audit struct {
		Workers        int           `long:"workers" env:"WORKERS" description:"Hostnames audited in parallel" default:"8"`
		Port           int           `long:"port" env:"PORT" description:"TLS port to probe and inspect" default:"443"`
		ProbeTimeout   time.Duration `long:"probe_timeout" env:"PROBE_TIMEOUT" description:"Hard deadline of the reachability probe" default:"1s"`
		InspectTimeout time.Duration `long:"inspect_timeout" env:"INSPECT_TIMEOUT" description:"Hard deadline of the TLS handshake" default:"5s"` //nolint:lll
		Inspector      string        `long:"inspector" env:"INSPECTOR" description:"Certificate inspector backend" choice:"tls" choice:"curl" default:"tls"` //nolint:lll
		SkipWildcards  bool          `long:"skip_wildcards" env:"SKIP_WILDCARDS" description:"Treat wildcard common names as excluded"`
	}

	// Resolver contains name resolution configuration.
	Resolver struct {
		Nameserver string        `long:"nameserver" env:"NAMESERVER" description:"Query this nameserver instead of the system resolver"`
		Timeout    time.Duration `long:"timeout" env:"TIMEOUT" description:"Timeout of a single nameserver query" default:"2s"`
		CacheSize  int           `long:"cache_size" env:"CACHE_SIZE" description:"Resolution verdicts remembered during a run" default:"4096"`
	}

	// Output contains report presentation configuration.
	Output struct {
		Format   string `long:"format" env:"FORMAT" description:"Report format" choice:"text" choice:"json" default:"text"`
		NoColor  bool   `long:"no_color" env:"NO_COLOR" description:"Disable colors in the text report"`
		Progress bool   `long:"progress" env:"PROGRESS" description:"Show a progress bar on stderr"`
	}

	// Server contains server configuration, regardless
	// of the server type http.
	Server struct {
		Serve bool   `long:"serve" env:"SERVE" description:"Serve the finished report over HTTP until interrupted"`
		Host  string `long:"host" env:"HOST" description:"Host to listen on, default is empty (all interfaces)"`
		Port  int    `long:"port" env:"PORT" description:"Port to listen on" default:"8080"`
	}
)

var (
	// ErrHelp is returned when --help flag is
	// used and application should not launch.
	ErrHelp = errors.New("help")
	// ErrInvalidConfig is returned when configuration is incomplete or inconsistent.
	ErrInvalidConfig = errors.New("invalid config")
)

// New reads flags and envs and returns AppConfig
// that corresponds to the values read.
func New() (*AppConfig, error) {
	return Parse(os.Args[1:])
}

// Parse reads args and envs, merges the options file when one is
// given and validates the result.
func Parse(args []string) (*AppConfig, error) {
	var config AppConfig
	parser := flags.NewParser(&config, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Options != "" {
		if err := config.mergeOptionsFile(config.Options, explicitlySet(parser)); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// explicitlySet reports whether the option with the namespaced long
// name was given on the command line or in the environment, as opposed
// to holding its default.
func explicitlySet(parser *flags.Parser) func(longName string) bool {
	return func(longName string) bool {
		opt := parser.FindOptionByLongName(longName)
		if opt == nil {
			return false
		}
		if key := opt.EnvKeyWithNamespace(); key != "" {
			if _, ok := os.LookupEnv(key); ok {
				return true
			}
		}
		return opt.IsSet() && !opt.IsSetDefault()
	}
}

// Validate checks that everything needed before any network
// activity is present.
func (c *AppConfig) Validate() error {
	if c.Policy.Deadline.IsZero() {
		return fmt.Errorf("%w: policy deadline is not set", ErrInvalidConfig)
	}

	switch c.Inventory.Source {
	case SourceF5:
		if c.F5.Host == "" {
			return fmt.Errorf("%w: f5 host is not set", ErrInvalidConfig)
		}
		if c.F5.User == "" {
			return fmt.Errorf("%w: f5 user is not set", ErrInvalidConfig)
		}
		if err := validPort("f5 port", c.F5.Port); err != nil {
			return err
		}
	case SourcePostgres:
		if c.Postgres.MainDBConnectionString == "" {
			return fmt.Errorf("%w: postgres connection string is not set", ErrInvalidConfig)
		}
	case SourceFile:
		if c.Inventory.File == "" {
			return fmt.Errorf("%w: inventory file is not set", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown inventory source %q", ErrInvalidConfig, c.Inventory.Source)
	}

	if c.Audit.Workers < 1 {
		return fmt.Errorf("%w: audit workers must be positive", ErrInvalidConfig)
	}
	if err := validPort("audit port", c.Audit.Port); err != nil {
		return err
	}
	if c.Audit.ProbeTimeout <= 0 || c.Audit.InspectTimeout <= 0 {
		return fmt.Errorf("%w: audit timeouts must be positive", ErrInvalidConfig)
	}
	if c.Resolver.CacheSize < 1 {
		return fmt.Errorf("%w: resolver cache size must be positive", ErrInvalidConfig)
	}

	return nil
}

func validPort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %s %d is out of range", ErrInvalidConfig, name, port)
	}
	return nil
}

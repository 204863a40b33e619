package network

import (
	"context"
	"fmt"
	"net"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/miekg/dns"
)

// SystemResolver resolves hostnames with the platform resolver.
type SystemResolver struct {
	resolver *net.Resolver
}

// NewSystemResolver returns SystemResolver backed by net.DefaultResolver.
func NewSystemResolver() SystemResolver {
	return SystemResolver{resolver: net.DefaultResolver}
}

// Resolve returns nil if hostname has at least one address.
func (r SystemResolver) Resolve(ctx context.Context, hostname string) error {
	addrs, err := r.resolver.LookupHost(ctx, hostname)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnresolvable, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("%w: no addresses for %q", ErrUnresolvable, hostname)
	}

	return nil
}

// DNSResolver asks a single nameserver for A and AAAA records.
type DNSResolver struct {
	client     *dns.Client
	nameserver string
}

// NewDNSResolver returns DNSResolver querying nameserver over UDP.
// Port 53 is assumed when nameserver carries none.
func NewDNSResolver(nameserver string, timeout time.Duration) DNSResolver {
	if _, _, err := net.SplitHostPort(nameserver); err != nil {
		nameserver = net.JoinHostPort(nameserver, "53")
	}

	return DNSResolver{
		client:     &dns.Client{Net: "udp", Timeout: timeout},
		nameserver: nameserver,
	}
}

// Resolve returns nil if the nameserver answers with an address record
// for hostname. NXDOMAIN, empty answers and transport errors all make
// the hostname unresolvable.
func (r DNSResolver) Resolve(ctx context.Context, hostname string) error {
	var lastErr error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(hostname), qtype)

		resp, _, err := r.client.ExchangeContext(ctx, msg, r.nameserver)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("nameserver answered %s", dns.RcodeToString[resp.Rcode])
			if resp.Rcode == dns.RcodeNameError {
				break
			}
			continue
		}

		for _, rr := range resp.Answer {
			switch rr.(type) {
			case *dns.A, *dns.AAAA:
				return nil
			}
		}
		lastErr = fmt.Errorf("no %s records", dns.TypeToString[qtype])
	}

	return fmt.Errorf("%w: %s: %v", ErrUnresolvable, hostname, lastErr)
}

// Resolver is the lookup CachedResolver delegates to.
type Resolver interface {
	Resolve(ctx context.Context, hostname string) error
}

// CachedResolver remembers resolution verdicts for the lifetime of a
// single run, so duplicate inventory entries are looked up once.
type CachedResolver struct {
	next  Resolver
	cache *lru.Cache[string, error]
}

// NewCachedResolver wraps next with a cache holding up to size verdicts.
func NewCachedResolver(next Resolver, size int) (*CachedResolver, error) {
	cache, err := lru.New[string, error](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver cache: %w", err)
	}

	return &CachedResolver{next: next, cache: cache}, nil
}

// Resolve returns the cached verdict for hostname or asks the wrapped resolver.
func (r *CachedResolver) Resolve(ctx context.Context, hostname string) error {
	if err, ok := r.cache.Get(hostname); ok {
		return err
	}

	err := r.next.Resolve(ctx, hostname)
	if ctx.Err() == nil {
		r.cache.Add(hostname, err)
	}

	return err
}

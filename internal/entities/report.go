package entities

import "sort"

// Report is the result of a single audit run.
type Report struct {
	// Outcomes keeps inventory order.
	Outcomes []Outcome `json:"outcomes"`
	// Unresolvable holds hostnames without a DNS record.
	Unresolvable []string `json:"unresolvable"`
	// Unreachable holds hostnames that resolve but did not accept a connection.
	Unreachable []string `json:"unreachable"`
	// InspectionFailures holds hostnames that accepted a connection
	// but whose certificate could not be read.
	InspectionFailures []string `json:"inspection_failures"`
}

// HostSet collects hostnames for a review bucket.
type HostSet map[string]struct{}

// Add puts hostname into the set.
func (s HostSet) Add(hostname string) {
	s[hostname] = struct{}{}
}

// Sorted returns deduplicated hostnames in lexical order.
func (s HostSet) Sorted() []string {
	hosts := make([]string, 0, len(s))
	for h := range s {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// Package cluster provides the cluster-identity and topology control plane:
// endpoints, the format document, the generation-numbered topology, quorum
// persistence, and the serialized topology manager.
package cluster

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stratastore/strata/cmn"
)

// Endpoint is a single disk location: either a local absolute path or an
// http(s) URL carrying host, port and the disk path on that host.
type Endpoint struct {
	Scheme  string `json:"scheme"` // empty for local path endpoints
	Host    string `json:"host"`   // host:port; empty for local path endpoints
	Path    string `json:"path"`   // absolute disk path
	SetIdx  int    `json:"set_idx"`
	DiskIdx int    `json:"disk_idx"`

	local bool
}

var localHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
	"0.0.0.0":   {},
	"::":        {},
}

// NewEndpoint parses a single endpoint argument. Accepted forms are local
// absolute paths (/mnt/disk1) and http(s)://host:port/path URLs; anything
// else is rejected.
func NewEndpoint(arg string) (Endpoint, error) {
	if arg == "" {
		return Endpoint{}, cmn.NewInvalidArgError("empty endpoint")
	}
	if filepath.IsAbs(arg) {
		if filepath.Clean(arg) == "/" {
			return Endpoint{}, cmn.NewInvalidArgError("endpoint %q: root path not allowed", arg)
		}
		return Endpoint{Path: filepath.Clean(arg), SetIdx: -1, DiskIdx: -1, local: true}, nil
	}
	u, err := url.Parse(arg)
	if err != nil {
		return Endpoint{}, cmn.NewInvalidArgError("endpoint %q: %v", arg, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Endpoint{}, cmn.NewInvalidArgError("endpoint %q: unsupported scheme %q", arg, u.Scheme)
	}
	if u.Hostname() == "" {
		return Endpoint{}, cmn.NewInvalidArgError("endpoint %q: missing host", arg)
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return Endpoint{}, cmn.NewInvalidArgError("endpoint %q: invalid port %q", arg, p)
		}
	}
	path := filepath.Clean(u.Path)
	if path == "/" || path == "." {
		return Endpoint{}, cmn.NewInvalidArgError("endpoint %q: root path not allowed", arg)
	}
	return Endpoint{
		Scheme:  u.Scheme,
		Host:    u.Host,
		Path:    path,
		SetIdx:  -1,
		DiskIdx: -1,
		local:   isLocalHost(u.Hostname()),
	}, nil
}

func isLocalHost(hostname string) bool {
	h := strings.Trim(hostname, "[]")
	if _, ok := localHosts[h]; ok {
		return true
	}
	if sys, err := os.Hostname(); err == nil && sys == h {
		return true
	}
	return false
}

// IsLocal is true for path endpoints and for URLs addressing this host.
func (e Endpoint) IsLocal() bool { return e.local || e.Scheme == "" }

// String reassembles the endpoint in its CLI form.
func (e Endpoint) String() string {
	if e.Scheme == "" {
		return e.Path
	}
	return e.Scheme + "://" + e.Host + e.Path
}

// HostURL is the endpoint with the path component stripped - the base URL
// of the node serving this disk over RPC.
func (e Endpoint) HostURL() string {
	if e.Scheme == "" {
		return ""
	}
	return e.Scheme + "://" + e.Host
}

// Endpoints is an ordered list; the order is the identity of each disk
// within its set.
type Endpoints []Endpoint

// NewEndpoints expands and parses the given arguments in order.
func NewEndpoints(args []string) (Endpoints, error) {
	var eps Endpoints
	for _, arg := range args {
		expanded := []string{arg}
		if HasEllipses(arg) {
			var err error
			if expanded, err = ExpandEllipses(arg); err != nil {
				return nil, err
			}
		}
		for _, s := range expanded {
			ep, err := NewEndpoint(s)
			if err != nil {
				return nil, err
			}
			eps = append(eps, ep)
		}
	}
	return eps, nil
}

// GroupIntoSets slices the endpoints into sets of disksPerSet in order,
// assigning each endpoint its (set, disk) slot. The slot order must match
// the order used when synthesizing the initial format document.
func (eps Endpoints) GroupIntoSets(disksPerSet int) ([]Endpoints, error) {
	if disksPerSet <= 0 {
		return nil, cmn.NewInvalidArgError("disks per set must be positive, got %d", disksPerSet)
	}
	if len(eps) == 0 || len(eps)%disksPerSet != 0 {
		return nil, cmn.NewInvalidArgError(
			"endpoint count %d is not a multiple of set size %d", len(eps), disksPerSet)
	}
	sets := make([]Endpoints, 0, len(eps)/disksPerSet)
	for i := 0; i < len(eps); i += disksPerSet {
		set := make(Endpoints, disksPerSet)
		copy(set, eps[i:i+disksPerSet])
		setIdx := i / disksPerSet
		for j := range set {
			set[j].SetIdx = setIdx
			set[j].DiskIdx = j
		}
		sets = append(sets, set)
	}
	return sets, nil
}


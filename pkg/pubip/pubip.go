// pubip resolves the host public IPv4 address through public STUN servers.
// The result is cached for a while to reduce requests to servers.
package pubip

import (
	"errors"
	"net/netip"
	"sync"
	"time"
)

var (
	ErrNoPublicIP    = errors.New("could not get public ip address")
	ErrUnknownSource = errors.New("local address unknown")
)

// check is replaced in tests.
var check = checkStunServer

var publicIP struct {
	sync.Mutex
	lastGoodIdx    int
	ipUpdatePeriod time.Duration
	cache          struct {
		ip      netip.Addr
		updated time.Time
	}
}

func init() {
	publicIP.ipUpdatePeriod = time.Minute
}

func UpdatePeriod() time.Duration {
	publicIP.Lock()
	defer publicIP.Unlock()
	return publicIP.ipUpdatePeriod
}

func SetUpdatePeriod(t time.Duration) {
	publicIP.Lock()
	defer publicIP.Unlock()
	publicIP.ipUpdatePeriod = t
}

// Reset drops the cached address and forces the next call to query servers.
func Reset() {
	publicIP.Lock()
	defer publicIP.Unlock()
	publicIP.cache.ip = netip.Addr{}
	publicIP.cache.updated = time.Time{}
}

// PublicIP tries STUN servers in turn.
// If a server fails the next one from the list is tried.
// A server that responds successfully is tried first next time.
func PublicIP() (netip.Addr, error) {
	publicIP.Lock()
	defer publicIP.Unlock()

	if publicIP.cache.ip.IsValid() &&
		time.Since(publicIP.cache.updated) <= publicIP.ipUpdatePeriod {
		return publicIP.cache.ip, nil
	}

	var errs []error
	for i := 0; i < len(stunServers); i++ {
		srv := stunServers[publicIP.lastGoodIdx]
		ip, err := check(srv)
		if err == nil && ip.Is4() {
			publicIP.cache.ip = ip
			publicIP.cache.updated = time.Now()
			return ip, nil
		}
		if err == nil {
			err = errors.New("not an IPv4 address")
		}
		errs = append(errs, &ServerError{Server: srv, Err: err})

		publicIP.lastGoodIdx++
		if publicIP.lastGoodIdx >= len(stunServers) {
			publicIP.lastGoodIdx = 0
		}
	}

	return netip.Addr{}, errors.Join(append([]error{ErrNoPublicIP}, errs...)...)
}

type ServerError struct {
	Server string
	Err    error
}

func (e *ServerError) Error() string {
	return "stun " + e.Server + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// NAT reports whether packets sourced from local get rewritten on the way
// out, by comparing local with the public address.
// An unspecified local address cannot be compared and yields ErrUnknownSource.
func NAT(local netip.Addr) (public netip.Addr, translated bool, err error) {
	if !local.IsValid() || local.IsUnspecified() {
		return public, false, ErrUnknownSource
	}
	public, err = PublicIP()
	if err != nil {
		return public, false, err
	}
	return public, public != local.Unmap(), nil
}

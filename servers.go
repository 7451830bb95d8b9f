package tds

import (
	"errors"

	"github.com/zeebo/xxh3"

	"github.com/pior/tds/internal"
)

var ErrNoServers = errors.New("tds: no servers available")

// Servers provides the set of server endpoints and picks one per
// session. Multiple endpoints cover read replicas and mirror partners;
// selection is keyed by a session affinity string (typically
// database/user) so a session keeps landing on the same endpoint while
// the list is stable.
type Servers interface {
	List() []string
	Select(affinity string) (string, error)
}

type staticServers struct {
	addresses []string
}

// NewStaticServers returns a fixed endpoint list with
// jump-consistent-hash selection.
func NewStaticServers(addresses ...string) Servers {
	return &staticServers{addresses: addresses}
}

func (s *staticServers) List() []string {
	return s.addresses
}

func (s *staticServers) Select(affinity string) (string, error) {
	if len(s.addresses) == 0 {
		return "", ErrNoServers
	}
	if len(s.addresses) == 1 {
		return s.addresses[0], nil
	}
	h := xxh3.HashString(affinity)
	return s.addresses[internal.JumpHash(h, len(s.addresses))], nil
}

package registry

import "net/netip"

// ConnectionRegistry gates announce and scrape behind a prior connect.
// Ids are never expired or removed once issued; BEP 15 suggests a
// two-minute validity window, but the registry deliberately keeps the
// overwrite-only model.
type ConnectionRegistry struct {
	nextID func() uint64
	conns  map[netip.AddrPort]uint64
}

// NewConnectionRegistry builds a registry drawing connection ids from
// nextID, which must be uniformly distributed over 64 bits.
func NewConnectionRegistry(nextID func() uint64) *ConnectionRegistry {
	return &ConnectionRegistry{
		nextID: nextID,
		conns:  make(map[netip.AddrPort]uint64),
	}
}

// Issue mints a fresh connection id for addr, replacing any previous
// one. No uniqueness check across entries; the id space is wide enough.
func (r *ConnectionRegistry) Issue(addr netip.AddrPort) uint64 {
	id := r.nextID()
	r.conns[addr] = id
	return id
}

// Validate reports whether id is exactly the last id issued to addr.
// An address that never connected and a wrong id are indistinguishable.
func (r *ConnectionRegistry) Validate(addr netip.AddrPort, id uint64) bool {
	issued, ok := r.conns[addr]
	return ok && issued == id
}

package registry

import (
	"net/netip"
	"sync"

	"github.com/elliotchance/orderedmap"

	"udp-tracker/common/bittorrent/tracker"
)

// Swarm is the per-info-hash aggregate: counters plus the peer set.
// The counters track set membership approximately, not derived from it:
// a stopped peer decrements leechers but stays in the set and keeps
// showing up in peer samples.
type Swarm struct {
	seeders   int32
	leechers  int32
	completed int32
	// peers maps netip.AddrPort to struct{}, insertion ordered, so
	// samples come back in a stable order. IPv4 only.
	peers *orderedmap.OrderedMap
}

func newSwarm() *Swarm {
	return &Swarm{peers: orderedmap.NewOrderedMap()}
}

// SwarmRegistry owns every swarm the tracker knows about. Swarms are
// created lazily on first announce and never evicted.
//
// The datagram path is single threaded; the lock is only there for the
// stats reader running beside it.
type SwarmRegistry struct {
	mu     sync.RWMutex
	swarms map[tracker.InfoHash]*Swarm
}

func NewSwarmRegistry() *SwarmRegistry {
	return &SwarmRegistry{swarms: make(map[tracker.InfoHash]*Swarm)}
}

// peerKey normalizes an announcing address to its IPv4 form. IPv6
// peers are out of scope and reported as not ok.
func peerKey(addr netip.AddrPort) (netip.AddrPort, bool) {
	ip := addr.Addr().Unmap()
	if !ip.Is4() {
		return netip.AddrPort{}, false
	}
	return netip.AddrPortFrom(ip, addr.Port()), true
}

// Announce applies one announce to the swarm for hash, creating it if
// this is the first announce ever seen for that hash, and returns the
// resulting counters. The first IPv4 peer of a new swarm registers as
// its one seeder; IPv6 peers never touch the set or the counters.
func (r *SwarmRegistry) Announce(hash tracker.InfoHash, peer netip.AddrPort, event tracker.AnnounceEvent) (leechers, seeders int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.swarms[hash]
	if !ok {
		s = newSwarm()
		if key, ok := peerKey(peer); ok {
			s.peers.Set(key, struct{}{})
			s.seeders = 1
		}
		r.swarms[hash] = s
		return s.leechers, s.seeders
	}
	key, isV4 := peerKey(peer)
	if !isV4 {
		return s.leechers, s.seeders
	}
	switch event {
	case tracker.EventStarted:
		if s.peers.Set(key, struct{}{}) {
			s.leechers++
		}
	case tracker.EventStopped:
		// The peer stays in the set; only the counter moves.
		s.leechers--
	case tracker.EventCompleted:
		s.leechers--
		s.seeders++
		s.completed++
	case tracker.EventNone:
	}
	return s.leechers, s.seeders
}

// SamplePeers returns up to limit peers of the swarm in insertion
// order. A negative limit means no preference and returns them all.
func (r *SwarmRegistry) SamplePeers(hash tracker.InfoHash, limit int) []netip.AddrPort {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.swarms[hash]
	if !ok {
		return nil
	}
	if limit < 0 || limit > s.peers.Len() {
		limit = s.peers.Len()
	}
	peers := make([]netip.AddrPort, 0, limit)
	for el := s.peers.Front(); el != nil && len(peers) < limit; el = el.Next() {
		peers = append(peers, el.Key.(netip.AddrPort))
	}
	return peers
}

// Scrape returns the counter triple for hash, all zero when unknown.
func (r *SwarmRegistry) Scrape(hash tracker.InfoHash) tracker.SwarmStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.swarms[hash]
	if !ok {
		return tracker.SwarmStats{}
	}
	return tracker.SwarmStats{
		Seeders:   s.seeders,
		Completed: s.completed,
		Leechers:  s.leechers,
	}
}

// Stats aggregates totals across every swarm for reporting.
func (r *SwarmRegistry) Stats() (swarms int, peers int, seeders int64, leechers int64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	swarms = len(r.swarms)
	for _, s := range r.swarms {
		peers += s.peers.Len()
		seeders += int64(s.seeders)
		leechers += int64(s.leechers)
	}
	return
}

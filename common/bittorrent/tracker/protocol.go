package tracker

// ProtocolID is the magic constant a client must place in the
// connection id field of a connect request (BEP 15).
const ProtocolID uint64 = 0x41727101980

const (
	ActionConnect  uint32 = 0x00
	ActionAnnounce uint32 = 0x01
	ActionScrape   uint32 = 0x02
	ActionError    uint32 = 0x03
)

// AnnounceEvent is the lifecycle signal carried by an announce request.
type AnnounceEvent uint32

const (
	EventNone AnnounceEvent = iota
	EventCompleted
	EventStarted
	EventStopped
)

func (e AnnounceEvent) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventCompleted:
		return "completed"
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	}
	return "unknown"
}

// InfoHash identifies a torrent swarm. Any bit pattern is valid.
type InfoHash [20]byte

// PeerID is the client-chosen peer identifier from an announce request.
// Carried on the wire but otherwise opaque to the tracker.
type PeerID [20]byte

const (
	requestHeaderLen       = 12
	ConnectRequestLen      = 16
	AnnounceRequestLen     = 98
	ScrapeRequestHeaderLen = 16

	ConnectResponseLen        = 16
	AnnounceResponseHeaderLen = 20
	PeerEntryLen              = 6
	ScrapeResponseHeaderLen   = 8
	ScrapeEntryLen            = 12
	ErrorResponseHeaderLen    = 8

	InfoHashLen = 20
)

// Request is the closed set of messages a client can send.
type Request interface {
	request()
}

type ConnectRequest struct {
	// ConnectionID holds the raw connection id field. A well-behaved
	// client sends ProtocolID here; whether to honor anything else is
	// the server's decision, not the codec's.
	ConnectionID  uint64
	TransactionID uint32
}

type AnnounceRequest struct {
	ConnectionID  uint64
	TransactionID uint32
	InfoHash      InfoHash
	PeerID        PeerID
	Downloaded    int64
	Left          int64
	Uploaded      int64
	Event         AnnounceEvent
	// IP is the client-supplied address override. Carried on the wire
	// but the server keys peers by the observed source address.
	IP      uint32
	Key     uint32
	NumWant int32
	Port    uint16
}

type ScrapeRequest struct {
	ConnectionID  uint64
	TransactionID uint32
	InfoHashes    []InfoHash
}

func (*ConnectRequest) request()  {}
func (*AnnounceRequest) request() {}
func (*ScrapeRequest) request()   {}

type ConnectResponse struct {
	TransactionID uint32
	ConnectionID  uint64
}

type AnnounceResponse struct {
	TransactionID uint32
	Interval      int32
	Leechers      int32
	Seeders       int32
	Peers         []PeerEntry
}

// PeerEntry is one IPv4 peer in an announce response.
type PeerEntry struct {
	IP   [4]byte
	Port uint16
}

// SwarmStats is the per-torrent triple returned by a scrape.
type SwarmStats struct {
	Seeders   int32
	Completed int32
	Leechers  int32
}

type ScrapeResponse struct {
	TransactionID uint32
	Stats         []SwarmStats
}

type ErrorResponse struct {
	TransactionID uint32
	Message       string
}

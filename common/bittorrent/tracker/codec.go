package tracker

import (
	"encoding/binary"

	"github.com/juju/errors"
)

var (
	ErrInsufficientBytes    = errors.New("insufficient bytes")
	ErrUnknownAction        = errors.New("unknown action")
	ErrUnknownAnnounceEvent = errors.New("unknown announce event")
)

// ParseRequest decodes a raw datagram into one of the request variants.
// Every variant re-checks its own minimum length before slicing, so a
// truncated datagram fails with ErrInsufficientBytes instead of reading
// out of bounds.
func ParseRequest(buf []byte) (Request, error) {
	if len(buf) < requestHeaderLen {
		return nil, errors.Annotatef(ErrInsufficientBytes, "request header needs %d bytes, got %d", requestHeaderLen, len(buf))
	}
	connectionID := binary.BigEndian.Uint64(buf[0:8])
	action := binary.BigEndian.Uint32(buf[8:12])
	switch action {
	case ActionConnect:
		return parseConnectRequest(connectionID, buf)
	case ActionAnnounce:
		return parseAnnounceRequest(connectionID, buf)
	case ActionScrape:
		return parseScrapeRequest(connectionID, buf)
	default:
		return nil, errors.Annotatef(ErrUnknownAction, "action %d", action)
	}
}

func parseConnectRequest(connectionID uint64, buf []byte) (*ConnectRequest, error) {
	if len(buf) < ConnectRequestLen {
		return nil, errors.Annotatef(ErrInsufficientBytes, "connect request needs %d bytes, got %d", ConnectRequestLen, len(buf))
	}
	return &ConnectRequest{
		ConnectionID:  connectionID,
		TransactionID: binary.BigEndian.Uint32(buf[12:16]),
	}, nil
}

func parseAnnounceRequest(connectionID uint64, buf []byte) (*AnnounceRequest, error) {
	if len(buf) < AnnounceRequestLen {
		return nil, errors.Annotatef(ErrInsufficientBytes, "announce request needs %d bytes, got %d", AnnounceRequestLen, len(buf))
	}
	rawEvent := binary.BigEndian.Uint32(buf[80:84])
	if rawEvent > uint32(EventStopped) {
		return nil, errors.Annotatef(ErrUnknownAnnounceEvent, "event %d", rawEvent)
	}
	r := &AnnounceRequest{
		ConnectionID:  connectionID,
		TransactionID: binary.BigEndian.Uint32(buf[12:16]),
		Downloaded:    int64(binary.BigEndian.Uint64(buf[56:64])),
		Left:          int64(binary.BigEndian.Uint64(buf[64:72])),
		Uploaded:      int64(binary.BigEndian.Uint64(buf[72:80])),
		Event:         AnnounceEvent(rawEvent),
		IP:            binary.BigEndian.Uint32(buf[84:88]),
		Key:           binary.BigEndian.Uint32(buf[88:92]),
		NumWant:       int32(binary.BigEndian.Uint32(buf[92:96])),
		Port:          binary.BigEndian.Uint16(buf[96:98]),
	}
	copy(r.InfoHash[:], buf[16:36])
	copy(r.PeerID[:], buf[36:56])
	return r, nil
}

func parseScrapeRequest(connectionID uint64, buf []byte) (*ScrapeRequest, error) {
	if len(buf) < ScrapeRequestHeaderLen || (len(buf)-ScrapeRequestHeaderLen)%InfoHashLen != 0 {
		return nil, errors.Annotatef(ErrInsufficientBytes, "scrape request needs %d+20*n bytes, got %d", ScrapeRequestHeaderLen, len(buf))
	}
	r := &ScrapeRequest{
		ConnectionID:  connectionID,
		TransactionID: binary.BigEndian.Uint32(buf[12:16]),
		InfoHashes:    make([]InfoHash, 0, (len(buf)-ScrapeRequestHeaderLen)/InfoHashLen),
	}
	for i := ScrapeRequestHeaderLen; i < len(buf); i += InfoHashLen {
		var hash InfoHash
		copy(hash[:], buf[i:i+InfoHashLen])
		r.InfoHashes = append(r.InfoHashes, hash)
	}
	return r, nil
}

// AppendTo appends the wire form of the message to buf.

func (r *ConnectRequest) AppendTo(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint64(buf, r.ConnectionID)
	buf = binary.BigEndian.AppendUint32(buf, ActionConnect)
	buf = binary.BigEndian.AppendUint32(buf, r.TransactionID)
	return buf
}

func (r *AnnounceRequest) AppendTo(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint64(buf, r.ConnectionID)
	buf = binary.BigEndian.AppendUint32(buf, ActionAnnounce)
	buf = binary.BigEndian.AppendUint32(buf, r.TransactionID)
	buf = append(buf, r.InfoHash[:]...)
	buf = append(buf, r.PeerID[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(r.Downloaded))
	buf = binary.BigEndian.AppendUint64(buf, uint64(r.Left))
	buf = binary.BigEndian.AppendUint64(buf, uint64(r.Uploaded))
	buf = binary.BigEndian.AppendUint32(buf, uint32(r.Event))
	buf = binary.BigEndian.AppendUint32(buf, r.IP)
	buf = binary.BigEndian.AppendUint32(buf, r.Key)
	buf = binary.BigEndian.AppendUint32(buf, uint32(r.NumWant))
	buf = binary.BigEndian.AppendUint16(buf, r.Port)
	return buf
}

func (r *ScrapeRequest) AppendTo(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint64(buf, r.ConnectionID)
	buf = binary.BigEndian.AppendUint32(buf, ActionScrape)
	buf = binary.BigEndian.AppendUint32(buf, r.TransactionID)
	for _, hash := range r.InfoHashes {
		buf = append(buf, hash[:]...)
	}
	return buf
}

func (r *ConnectResponse) AppendTo(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, ActionConnect)
	buf = binary.BigEndian.AppendUint32(buf, r.TransactionID)
	buf = binary.BigEndian.AppendUint64(buf, r.ConnectionID)
	return buf
}

func (r *AnnounceResponse) AppendTo(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, ActionAnnounce)
	buf = binary.BigEndian.AppendUint32(buf, r.TransactionID)
	buf = binary.BigEndian.AppendUint32(buf, uint32(r.Interval))
	buf = binary.BigEndian.AppendUint32(buf, uint32(r.Leechers))
	buf = binary.BigEndian.AppendUint32(buf, uint32(r.Seeders))
	for _, p := range r.Peers {
		buf = append(buf, p.IP[:]...)
		buf = binary.BigEndian.AppendUint16(buf, p.Port)
	}
	return buf
}

func (r *ScrapeResponse) AppendTo(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, ActionScrape)
	buf = binary.BigEndian.AppendUint32(buf, r.TransactionID)
	for _, s := range r.Stats {
		buf = binary.BigEndian.AppendUint32(buf, uint32(s.Seeders))
		buf = binary.BigEndian.AppendUint32(buf, uint32(s.Completed))
		buf = binary.BigEndian.AppendUint32(buf, uint32(s.Leechers))
	}
	return buf
}

func (r *ErrorResponse) AppendTo(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, ActionError)
	buf = binary.BigEndian.AppendUint32(buf, r.TransactionID)
	buf = append(buf, r.Message...)
	return buf
}

// Response parsers, the client-side half of the codec.

func ParseConnectResponse(buf []byte) (*ConnectResponse, error) {
	if len(buf) < ConnectResponseLen {
		return nil, errors.Annotatef(ErrInsufficientBytes, "connect response needs %d bytes, got %d", ConnectResponseLen, len(buf))
	}
	if action := binary.BigEndian.Uint32(buf[0:4]); action != ActionConnect {
		return nil, errors.Annotatef(ErrUnknownAction, "action %d", action)
	}
	return &ConnectResponse{
		TransactionID: binary.BigEndian.Uint32(buf[4:8]),
		ConnectionID:  binary.BigEndian.Uint64(buf[8:16]),
	}, nil
}

func ParseAnnounceResponse(buf []byte) (*AnnounceResponse, error) {
	if len(buf) < AnnounceResponseHeaderLen || (len(buf)-AnnounceResponseHeaderLen)%PeerEntryLen != 0 {
		return nil, errors.Annotatef(ErrInsufficientBytes, "announce response needs %d+6*n bytes, got %d", AnnounceResponseHeaderLen, len(buf))
	}
	if action := binary.BigEndian.Uint32(buf[0:4]); action != ActionAnnounce {
		return nil, errors.Annotatef(ErrUnknownAction, "action %d", action)
	}
	r := &AnnounceResponse{
		TransactionID: binary.BigEndian.Uint32(buf[4:8]),
		Interval:      int32(binary.BigEndian.Uint32(buf[8:12])),
		Leechers:      int32(binary.BigEndian.Uint32(buf[12:16])),
		Seeders:       int32(binary.BigEndian.Uint32(buf[16:20])),
	}
	for i := AnnounceResponseHeaderLen; i < len(buf); i += PeerEntryLen {
		var p PeerEntry
		copy(p.IP[:], buf[i:i+4])
		p.Port = binary.BigEndian.Uint16(buf[i+4 : i+6])
		r.Peers = append(r.Peers, p)
	}
	return r, nil
}

func ParseScrapeResponse(buf []byte) (*ScrapeResponse, error) {
	if len(buf) < ScrapeResponseHeaderLen || (len(buf)-ScrapeResponseHeaderLen)%ScrapeEntryLen != 0 {
		return nil, errors.Annotatef(ErrInsufficientBytes, "scrape response needs %d+12*n bytes, got %d", ScrapeResponseHeaderLen, len(buf))
	}
	if action := binary.BigEndian.Uint32(buf[0:4]); action != ActionScrape {
		return nil, errors.Annotatef(ErrUnknownAction, "action %d", action)
	}
	r := &ScrapeResponse{
		TransactionID: binary.BigEndian.Uint32(buf[4:8]),
	}
	for i := ScrapeResponseHeaderLen; i < len(buf); i += ScrapeEntryLen {
		r.Stats = append(r.Stats, SwarmStats{
			Seeders:   int32(binary.BigEndian.Uint32(buf[i : i+4])),
			Completed: int32(binary.BigEndian.Uint32(buf[i+4 : i+8])),
			Leechers:  int32(binary.BigEndian.Uint32(buf[i+8 : i+12])),
		})
	}
	return r, nil
}

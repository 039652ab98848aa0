package tracker

import (
	"encoding/binary"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseConnectRequest(t *testing.T) {
	buf := []byte{
		0x00, 0x00, 0x04, 0x17, 0x27, 0x10, 0x19, 0x80,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x10,
	}
	req, err := ParseRequest(buf)
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, &ConnectRequest{
		ConnectionID:  ProtocolID,
		TransactionID: 16,
	}, req)
}

func TestConnectRequestRoundTrip(t *testing.T) {
	in := &ConnectRequest{ConnectionID: ProtocolID, TransactionID: 0}
	buf := in.AppendTo(nil)
	assert.Len(t, buf, ConnectRequestLen)
	out, err := ParseRequest(buf)
	assert.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestAnnounceRequestRoundTrip(t *testing.T) {
	var hash InfoHash
	for i := range hash {
		hash[i] = 0xFF
	}
	var peerID PeerID
	copy(peerID[:], "-GT0001-abcdefghijkl")
	in := &AnnounceRequest{
		ConnectionID:  0xDEADBEEFCAFEBABE,
		TransactionID: 0,
		InfoHash:      hash,
		PeerID:        peerID,
		Downloaded:    1 << 40,
		Left:          42,
		Uploaded:      7,
		Event:         EventStarted,
		IP:            0x7F000001,
		Key:           0xABCD,
		NumWant:       -1,
		Port:          51413,
	}
	buf := in.AppendTo(nil)
	assert.Len(t, buf, AnnounceRequestLen)
	out, err := ParseRequest(buf)
	assert.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestScrapeRequestRoundTrip(t *testing.T) {
	var zero, full InfoHash
	for i := range full {
		full[i] = 0xFF
	}
	in := &ScrapeRequest{
		ConnectionID:  1,
		TransactionID: 99,
		InfoHashes:    []InfoHash{zero, full},
	}
	buf := in.AppendTo(nil)
	assert.Len(t, buf, ScrapeRequestHeaderLen+2*InfoHashLen)
	out, err := ParseRequest(buf)
	assert.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestScrapeRequestNoHashes(t *testing.T) {
	in := &ScrapeRequest{ConnectionID: 5, TransactionID: 6}
	out, err := ParseRequest(in.AppendTo(nil))
	assert.NoError(t, err)
	assert.Equal(t, &ScrapeRequest{
		ConnectionID:  5,
		TransactionID: 6,
		InfoHashes:    []InfoHash{},
	}, out)
}

func TestParseRequestTruncated(t *testing.T) {
	announce := (&AnnounceRequest{Event: EventNone}).AppendTo(nil)
	scrape := (&ScrapeRequest{InfoHashes: make([]InfoHash, 1)}).AppendTo(nil)
	cases := map[string][]byte{
		"empty":               {},
		"header one short":    make([]byte, requestHeaderLen-1),
		"connect one short":   (&ConnectRequest{}).AppendTo(nil)[:ConnectRequestLen-1],
		"announce one short":  announce[:AnnounceRequestLen-1],
		"scrape partial hash": scrape[:len(scrape)-1],
	}
	for name, buf := range cases {
		t.Run(name, func(t *testing.T) {
			req, err := ParseRequest(buf)
			assert.Nil(t, req)
			assert.Equal(t, ErrInsufficientBytes, errors.Cause(err))
		})
	}
}

func TestParseRequestUnknownAction(t *testing.T) {
	buf := make([]byte, ConnectRequestLen)
	binary.BigEndian.PutUint32(buf[8:12], 7)
	req, err := ParseRequest(buf)
	assert.Nil(t, req)
	assert.Equal(t, ErrUnknownAction, errors.Cause(err))
}

func TestParseRequestUnknownAnnounceEvent(t *testing.T) {
	buf := (&AnnounceRequest{}).AppendTo(nil)
	binary.BigEndian.PutUint32(buf[80:84], 4)
	req, err := ParseRequest(buf)
	assert.Nil(t, req)
	assert.Equal(t, ErrUnknownAnnounceEvent, errors.Cause(err))
}

func TestConnectResponseRoundTrip(t *testing.T) {
	in := &ConnectResponse{TransactionID: 16, ConnectionID: 0x123456789A}
	buf := in.AppendTo(nil)
	assert.Len(t, buf, ConnectResponseLen)
	out, err := ParseConnectResponse(buf)
	assert.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestAnnounceResponseRoundTrip(t *testing.T) {
	in := &AnnounceResponse{
		TransactionID: 3,
		Interval:      900,
		Leechers:      2,
		Seeders:       1,
		Peers: []PeerEntry{
			{IP: [4]byte{192, 168, 1, 2}, Port: 6881},
			{IP: [4]byte{10, 0, 0, 1}, Port: 51413},
		},
	}
	buf := in.AppendTo(nil)
	assert.Len(t, buf, AnnounceResponseHeaderLen+2*PeerEntryLen)
	out, err := ParseAnnounceResponse(buf)
	assert.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestScrapeResponseRoundTrip(t *testing.T) {
	in := &ScrapeResponse{
		TransactionID: 8,
		Stats: []SwarmStats{
			{Seeders: 3, Completed: 5, Leechers: 2},
			{},
		},
	}
	buf := in.AppendTo(nil)
	assert.Len(t, buf, ScrapeResponseHeaderLen+2*ScrapeEntryLen)
	out, err := ParseScrapeResponse(buf)
	assert.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseResponseTruncated(t *testing.T) {
	_, err := ParseConnectResponse(make([]byte, ConnectResponseLen-1))
	assert.Equal(t, ErrInsufficientBytes, errors.Cause(err))
	_, err = ParseAnnounceResponse(make([]byte, AnnounceResponseHeaderLen-1))
	assert.Equal(t, ErrInsufficientBytes, errors.Cause(err))
	_, err = ParseScrapeResponse(make([]byte, ScrapeResponseHeaderLen+ScrapeEntryLen-1))
	assert.Equal(t, ErrInsufficientBytes, errors.Cause(err))
}

func TestErrorResponseEncode(t *testing.T) {
	buf := (&ErrorResponse{TransactionID: 1, Message: "access denied"}).AppendTo(nil)
	assert.Len(t, buf, ErrorResponseHeaderLen+len("access denied"))
	assert.Equal(t, ActionError, binary.BigEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(1), binary.BigEndian.Uint32(buf[4:8]))
	assert.Equal(t, "access denied", string(buf[8:]))
}

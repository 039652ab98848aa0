package svc

import (
	"context"
	"net"
	"net/netip"

	"github.com/juju/errors"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/metric"

	"udp-tracker/common/bittorrent/tracker"
)

const (
	metricsNamespace = "udp_tracker"
	metricsSubsystem = "server"
)

var (
	metricPacketCounter metric.CounterVec
	metricDropCounter   metric.CounterVec
)

func init() {
	metricPacketCounter = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "packets",
		Labels:    []string{"action"},
	})
	metricDropCounter = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "dropped",
		Labels:    []string{"reason"},
	})
}

// udpConn is the slice of *net.UDPConn the server uses. Tests swap in
// a fake.
type udpConn interface {
	ReadFromUDPAddrPort(b []byte) (int, netip.AddrPort, error)
	WriteToUDPAddrPort(b []byte, addr netip.AddrPort) (int, error)
	Close() error
}

type response interface {
	AppendTo(buf []byte) []byte
}

// Server runs the tracker over a single UDP socket. Datagrams are
// handled one at a time, start to finish, on the receive goroutine;
// the registries are never touched from anywhere else except the
// read-only stats reporter.
type Server struct {
	ctx      context.Context
	cancel   context.CancelFunc
	svcCtx   *ServiceContext
	addr     *net.UDPAddr
	conn     udpConn
	readBuf  []byte
	writeBuf []byte
}

func NewServer(svcCtx *ServiceContext) (*Server, error) {
	addr, err := net.ResolveUDPAddr("udp", svcCtx.Config.Listen)
	if err != nil {
		return nil, errors.Trace(err)
	}
	s := &Server{
		svcCtx:   svcCtx,
		addr:     addr,
		readBuf:  make([]byte, svcCtx.Config.MaxPacketSize),
		writeBuf: make([]byte, 0, svcCtx.Config.MaxPacketSize),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// Start binds the socket and serves until Stop or an I/O error. A read
// or send failure is not papered over: the loop logs and returns,
// taking the service down.
func (s *Server) Start() {
	if s.conn == nil {
		conn, err := net.ListenUDP("udp", s.addr)
		if err != nil {
			logx.Errorf("Failed to listen on %s. %+v", s.addr, err)
			panic(err)
		}
		s.conn = conn
	}
	logx.Infof("Tracker listening on %s", s.addr)
	for {
		n, src, err := s.conn.ReadFromUDPAddrPort(s.readBuf)
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			logx.Errorf("Failed to read from socket: %+v", err)
			return
		}
		if err := s.handleDatagram(s.readBuf[:n], src); err != nil {
			logx.Errorf("Failed to send response: %+v", err)
			return
		}
	}
}

func (s *Server) Stop() {
	s.cancel()
	if s.conn != nil {
		s.conn.Close()
	}
}

// handleDatagram processes one datagram. The returned error is only
// non-nil for send failures, which are fatal; anything wrong with the
// datagram itself drops it silently and keeps serving.
func (s *Server) handleDatagram(buf []byte, src netip.AddrPort) error {
	req, err := tracker.ParseRequest(buf)
	if err != nil {
		metricDropCounter.Inc("malformed")
		logx.Debugf("Dropping malformed datagram from %s: %v", src, err)
		return nil
	}
	switch req := req.(type) {
	case *tracker.ConnectRequest:
		metricPacketCounter.Inc("connect")
		return s.handleConnect(src, req)
	case *tracker.AnnounceRequest:
		metricPacketCounter.Inc("announce")
		return s.handleAnnounce(src, req)
	case *tracker.ScrapeRequest:
		metricPacketCounter.Inc("scrape")
		return s.handleScrape(src, req)
	}
	return nil
}

func (s *Server) handleConnect(src netip.AddrPort, req *tracker.ConnectRequest) error {
	// Anything but the protocol magic gets no reply at all.
	if req.ConnectionID != tracker.ProtocolID {
		metricDropCounter.Inc("bad_magic")
		return nil
	}
	resp := &tracker.ConnectResponse{
		TransactionID: req.TransactionID,
		ConnectionID:  s.svcCtx.Connections.Issue(src),
	}
	logx.Debugf("Issued connection id to %s", src)
	return s.send(resp, src)
}

func (s *Server) handleAnnounce(src netip.AddrPort, req *tracker.AnnounceRequest) error {
	if !s.svcCtx.Connections.Validate(src, req.ConnectionID) {
		metricDropCounter.Inc("unauthorized")
		return nil
	}
	// The observed source address wins over the client-supplied IP.
	leechers, seeders := s.svcCtx.Swarms.Announce(req.InfoHash, src, req.Event)
	peers := s.svcCtx.Swarms.SamplePeers(req.InfoHash, s.peerLimit(req.NumWant))
	resp := &tracker.AnnounceResponse{
		TransactionID: req.TransactionID,
		Interval:      int32(s.svcCtx.Config.AnnounceInterval),
		Leechers:      leechers,
		Seeders:       seeders,
		Peers:         make([]tracker.PeerEntry, 0, len(peers)),
	}
	for _, p := range peers {
		resp.Peers = append(resp.Peers, tracker.PeerEntry{
			IP:   p.Addr().As4(),
			Port: p.Port(),
		})
	}
	return s.send(resp, src)
}

func (s *Server) handleScrape(src netip.AddrPort, req *tracker.ScrapeRequest) error {
	if !s.svcCtx.Connections.Validate(src, req.ConnectionID) {
		metricDropCounter.Inc("unauthorized")
		return nil
	}
	resp := &tracker.ScrapeResponse{
		TransactionID: req.TransactionID,
		Stats:         make([]tracker.SwarmStats, 0, len(req.InfoHashes)),
	}
	for _, hash := range req.InfoHashes {
		resp.Stats = append(resp.Stats, s.svcCtx.Swarms.Scrape(hash))
	}
	return s.send(resp, src)
}

// peerLimit bounds an announce peer sample so the response always fits
// the write buffer. Negative num_want means no preference.
func (s *Server) peerLimit(numWant int32) int {
	max := (s.svcCtx.Config.MaxPacketSize - tracker.AnnounceResponseHeaderLen) / tracker.PeerEntryLen
	if numWant >= 0 && int(numWant) < max {
		return int(numWant)
	}
	return max
}

func (s *Server) send(resp response, src netip.AddrPort) error {
	buf := resp.AppendTo(s.writeBuf[:0])
	n, err := s.conn.WriteToUDPAddrPort(buf, src)
	if err != nil {
		return errors.Trace(err)
	}
	if n < len(buf) {
		return errors.Errorf("short write: %d of %d bytes to %s", n, len(buf), src)
	}
	return nil
}

package svc

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/metric"
)

var metricSwarmGauge metric.GaugeVec

func init() {
	metricSwarmGauge = metric.NewGaugeVec(&metric.GaugeVecOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "swarm_totals",
		Labels:    []string{"type"},
	})
}

// Stats periodically reports registry totals. It only reads.
type Stats struct {
	ctx    context.Context
	cancel context.CancelFunc
	ticker *time.Ticker
	svcCtx *ServiceContext
}

func NewStats(svcCtx *ServiceContext) *Stats {
	ret := &Stats{
		ticker: time.NewTicker(time.Duration(svcCtx.Config.StatsIntervalSeconds) * time.Second),
		svcCtx: svcCtx,
	}
	ret.ctx, ret.cancel = context.WithCancel(context.Background())
	return ret
}

func (s *Stats) Start() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.ticker.C:
			s.stats()
		}
	}
}

func (s *Stats) stats() {
	swarms, peers, seeders, leechers := s.svcCtx.Swarms.Stats()
	metricSwarmGauge.Set(float64(swarms), "swarms")
	metricSwarmGauge.Set(float64(peers), "peers")
	metricSwarmGauge.Set(float64(seeders), "seeders")
	metricSwarmGauge.Set(float64(leechers), "leechers")
	logx.Infof("Tracking %d swarms with %d peers (%d seeders / %d leechers)", swarms, peers, seeders, leechers)
}

func (s *Stats) Stop() {
	s.ticker.Stop()
	s.cancel()
}

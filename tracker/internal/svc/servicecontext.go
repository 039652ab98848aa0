package svc

import (
	"math/rand"

	"github.com/zeromicro/go-zero/core/logx"

	"udp-tracker/tracker/internal/config"
	"udp-tracker/tracker/internal/registry"
)

type ServiceContext struct {
	Config      config.Config
	Connections *registry.ConnectionRegistry
	Swarms      *registry.SwarmRegistry
	Server      *Server
	Stats       *Stats
}

func NewServiceContext(c config.Config) *ServiceContext {
	svcCtx := &ServiceContext{
		Config:      c,
		Connections: registry.NewConnectionRegistry(rand.Uint64),
		Swarms:      registry.NewSwarmRegistry(),
	}
	srv, err := NewServer(svcCtx)
	if err != nil {
		logx.Errorf("Failed to create server. %v", err)
		panic(err)
	}
	svcCtx.Server = srv
	svcCtx.Stats = NewStats(svcCtx)
	return svcCtx
}

package config

import (
	"time"

	"github.com/zeromicro/go-zero/core/proc"
	"github.com/zeromicro/go-zero/core/service"
)

type Config struct {
	service.ServiceConf
	Listen               string `json:",default=:6969"`
	AnnounceInterval     int    `json:",default=900"`
	MaxPacketSize        int    `json:",default=2048"`
	StatsIntervalSeconds int    `json:",default=30"`
	ForceQuitSeconds     int    `json:",default=20"`
}

func (c *Config) MustSetUp() {
	c.ServiceConf.MustSetUp()
	proc.SetTimeToForceQuit(time.Duration(c.ForceQuitSeconds) * time.Second)
}

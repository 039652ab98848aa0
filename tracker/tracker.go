package main

import (
	"flag"

	"github.com/sirupsen/logrus"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/service"

	"udp-tracker/tracker/internal/config"
	"udp-tracker/tracker/internal/svc"
)

var configFile = flag.String("f", "etc/tracker.yaml", "the config file")

func main() {
	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c)
	c.MustSetUp()
	ctx := svc.NewServiceContext(c)

	group := service.NewServiceGroup()
	group.Add(ctx.Server)
	group.Add(ctx.Stats)
	defer group.Stop()

	logrus.Infof("Starting tracker...")
	group.Start()
}

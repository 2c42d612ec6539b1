package main

import (
	"context"
	"io"
	"os"
	"time"

	"horizon-finance/biz/dal"
	"horizon-finance/biz/dal/audit"
	"horizon-finance/biz/dal/kafka"
	"horizon-finance/biz/dal/pg"
	"horizon-finance/biz/dal/redis"
	"horizon-finance/biz/engine"
	"horizon-finance/biz/handler"
	"horizon-finance/biz/market"
	"horizon-finance/biz/router"
	"horizon-finance/biz/service"
	"horizon-finance/biz/util"
	"horizon-finance/conf"
	wsserver "horizon-finance/server"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultLedgerTopic = "ledger_events"

func main() {
	_ = godotenv.Load()
	c := conf.GetConf()

	h := server.New(
		server.WithHostPorts(c.Hertz.Address),
		server.WithExitWaitTime(5*time.Second),
	)
	// websocket 连接需要 hijack
	h.NoHijackConnPool = true
	setupLogger(h, c.Hertz)

	dal.Init()

	notifyPool, err := engine.NewBroadcastPool(c.Hertz.NotifyPoolSize)
	if err != nil {
		hlog.Fatalf("init notify pool failed: %v", err)
	}
	wsPool, err := engine.NewBroadcastPool(c.Hertz.NotifyPoolSize)
	if err != nil {
		hlog.Fatalf("init ws pool failed: %v", err)
	}

	client, err := market.NewClient(c.Market.CoinGeckoURL, c.Market.DolarAPIURL, c.Market.Timeout())
	if err != nil {
		hlog.Fatalf("init market client failed: %v", err)
	}
	gateway := market.NewCachedGateway(client, redis.Client,
		time.Duration(c.Market.PriceTTL)*time.Second,
		time.Duration(c.Market.QuoteTTL)*time.Second)

	topic := c.Kafka.Topics["ledger"]
	if topic == "" {
		topic = defaultLedgerTopic
	}
	hub := wsserver.NewHub(wsPool)
	auditLog := audit.New(c.Audit)
	notifiers := engine.Notifiers{
		kafka.NewLedgerPublisher(kafka.GetWriter(topic)),
		auditLog,
		hub,
	}

	store := pg.NewLedgerStore(pg.GormDB)
	ledger := engine.New(store, gateway, engine.WithNotifier(notifiers), engine.WithPool(notifyPool))
	portfolios := service.NewPortfolioService(store, gateway)

	router.RegisterMiddleware(h, c.Hertz)
	router.Register(&h.Engine.RouterGroup, &handler.Handlers{
		Ledger:     ledger,
		Portfolios: portfolios,
		Advisor:    service.NewAdvisorService(portfolios),
		History:    service.NewTransactionService(store),
		Accounts:   service.NewAccountService(store, c.Demo.ExternalID),
		Market:     gateway,
		Ping:       pg.Ping,
	}, hub.Handle)

	registerService(h, c)

	h.OnShutdown = append(h.OnShutdown, func(ctx context.Context) {
		notifyPool.Release()
		wsPool.Release()
		_ = auditLog.Sync()
		dal.Close()
	})
	h.Spin()
}

// setupLogger hlog 同时输出到标准输出和滚动文件
func setupLogger(h *server.Hertz, c conf.Hertz) {
	hlog.SetLevel(conf.LogLevel())
	if c.LogFileName == "" {
		return
	}
	asyncWriter := &zapcore.BufferedWriteSyncer{
		WS: zapcore.AddSync(&lumberjack.Logger{
			Filename:   c.LogFileName,
			MaxSize:    c.LogMaxSize,
			MaxBackups: c.LogMaxBackups,
			MaxAge:     c.LogMaxAge,
		}),
		FlushInterval: time.Minute,
	}
	hlog.SetOutput(io.MultiWriter(os.Stdout, asyncWriter))
	h.OnShutdown = append(h.OnShutdown, func(ctx context.Context) {
		_ = asyncWriter.Sync()
	})
}

// registerService 启动后注册到 Consul，退出时注销。未配置注册中心时跳过
func registerService(h *server.Hertz, c *conf.Config) {
	if len(c.Registry.RegistryAddress) == 0 || c.Registry.ServiceID == "" {
		return
	}
	h.OnRun = append(h.OnRun, func(ctx context.Context) error {
		helper, err := service.NewConsulHelperWithAddrs(c.Registry.RegistryAddress, c.Registry.Username, c.Registry.Password)
		if err != nil {
			hlog.Warnf("consul unavailable, skip registration: %v", err)
			return nil
		}
		host, port, err := util.SplitAddress(c.Hertz.Address)
		if err != nil {
			return err
		}
		if err := helper.RegisterService(c.Registry.ServiceID, c.Hertz.Service, host, port); err != nil {
			hlog.Warnf("consul register failed: %v", err)
			return nil
		}
		hlog.Infof("registered %s at %s:%d", c.Registry.ServiceID, host, port)
		h.OnShutdown = append(h.OnShutdown, func(ctx context.Context) {
			if err := helper.DeregisterService(c.Registry.ServiceID); err != nil {
				hlog.Warnf("consul deregister failed: %v", err)
			}
		})
		return nil
	})
}

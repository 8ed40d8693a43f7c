package main

import (
	"context"
	"os"

	"github.com/foresightmkt/foresight/internal/config"
	"github.com/foresightmkt/foresight/internal/contracts"
	"github.com/foresightmkt/foresight/internal/handlers/cli"
	"github.com/foresightmkt/foresight/internal/infra/blockchain/ethereum"
	"github.com/foresightmkt/foresight/internal/infra/storage/redis"
	"github.com/foresightmkt/foresight/internal/market"
	"github.com/foresightmkt/foresight/internal/notify"
	"github.com/foresightmkt/foresight/internal/pkg/logger"
	"github.com/foresightmkt/foresight/internal/pkg/telemetry"
	transporthttp "github.com/foresightmkt/foresight/internal/pkg/transport/http"
	"github.com/foresightmkt/foresight/internal/pkg/transport/jsonrpc"
	"github.com/foresightmkt/foresight/internal/trade"
	"github.com/foresightmkt/foresight/internal/txflow"

	"github.com/ethereum/go-ethereum/common"
)

const serviceName = "foresight"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Init()
		logger.Fatal(ctx, "failed to load configuration", "error", err)
	}

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, serviceName)
		if err != nil {
			logger.Init()
			logger.Fatal(ctx, "failed to initialize telemetry", "error", err)
		}
		defer shutdown(ctx)
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		panic(err)
	}
	defer logger.Sync()

	conn := jsonrpc.NewClient(transporthttp.NewClient().StandardClient(), cfg.RPCEndpoint)

	chain, err := ethereum.NewClient(conn, cfg.PrivateKey, cfg.ChainID)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize the chain client", "error", err)
	}

	gateway := contracts.NewGateway(
		common.HexToAddress(cfg.PredictionMarketAddress),
		common.HexToAddress(cfg.AMMAddress),
		common.HexToAddress(cfg.CollateralAddress),
	)

	flow := txflow.New(chain, chain)

	notices := notify.New(notify.WithExplorerBaseURL(cfg.ExplorerBaseURL))
	flow.Subscribe(func(ev txflow.Event) {
		notices.HandleEvent(ctx, ev)
	})

	planner := trade.NewPlanner(flow, gateway)

	marketOpts := make([]market.Option, 0, 1)
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal(ctx, "failed to connect to redis", "error", err)
		}
		defer redisClient.Close()

		marketOpts = append(marketOpts, market.WithPoolDirectory(redis.NewPoolDirectory(redisClient, cfg.ChainID)))
	}

	markets := market.New(chain, gateway, planner, flow, chain.Account(), marketOpts...)

	err = cli.Run(ctx, cli.Services{
		Market:  markets,
		Flow:    flow,
		Notices: notices,
		Planner: planner,
	})
	if err != nil {
		logger.Error(ctx, "command failed", "error", err)
		os.Exit(1)
	}
}

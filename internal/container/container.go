package container

import (
	"context"
	"fmt"
	"io"
	"os"

	"shopee/catalog/internal/client"
	"shopee/catalog/internal/config"
	"shopee/catalog/internal/proxy"
	"shopee/catalog/internal/repository"
	"shopee/catalog/internal/service"
	"shopee/catalog/internal/sink"
	"shopee/catalog/internal/state"
	"shopee/catalog/internal/upload"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config  *config.Config
	Client  client.ShopeeClient
	Store   state.Store
	Sinks   []sink.Sink
	Service *service.Service

	// Out receives the run report
	Out io.Writer

	logger log.FieldLogger
	db     *pgxpool.Pool
	redis  *redis.Client
}

// New creates a new container with all dependencies initialized. Optional
// backends that cannot be reached are logged and left out rather than
// failing startup.
func New(ctx context.Context, cfg *config.Config, logger log.FieldLogger) (*Container, error) {
	container := &Container{
		Config: cfg,
		Out:    os.Stdout,
		logger: logger,
	}

	proxySupplier := proxy.NewSupplier(ctx, logger, cfg.Shopee.Proxies, cfg.Shopee.LandingURL)
	if len(cfg.Shopee.Proxies) > 0 && proxySupplier.Len() == 0 {
		return nil, fmt.Errorf("none of the %d configured proxies is working", len(cfg.Shopee.Proxies))
	}

	shopeeClient := client.NewShopeeClient(cfg.Shopee, proxySupplier, logger)
	container.Client = shopeeClient

	container.Sinks = container.buildSinks(ctx)
	container.Store = container.buildStore(ctx)

	var uploader upload.Uploader
	if cfg.Upload.Enabled {
		uploader = upload.NewSFTP(cfg.Upload, logger)
	}

	extractor := service.NewExtractor(shopeeClient, cfg.Shopee.PageSize, cfg.Shopee.PageDelay, logger)
	container.Service = service.NewService(
		shopeeClient,
		extractor,
		container.Sinks,
		uploader,
		container.Store,
		logger,
	)

	return container, nil
}

func (c *Container) buildSinks(ctx context.Context) []sink.Sink {
	sinks := make([]sink.Sink, 0, 3)

	if c.Config.Output.CSVPath != "" {
		sinks = append(sinks, sink.NewCSV(c.Config.Output.CSVPath, c.logger))
	}
	if c.Config.Output.XLSXPath != "" {
		sinks = append(sinks, sink.NewXLSX(c.Config.Output.XLSXPath, c.Config.Output.XLSXSheet, c.logger))
	}

	if c.Config.Database.Enabled {
		db, err := pgxpool.New(ctx, c.Config.Database.DSN())
		if err != nil {
			c.logger.Errorf("❌ Failed to configure Postgres: %v", err)
			sinks = append(sinks, sink.Failed("postgres", c.Config.Database.Table, fmt.Errorf("failed to configure Postgres: %w", err)))
		} else {
			c.db = db
			repo := repository.NewCategoryRepository(db)
			sinks = append(sinks, sink.NewPostgres(repo, c.Config.Database.Table, c.Config.Database.IfExists, c.logger))
		}
	}

	return sinks
}

func (c *Container) buildStore(ctx context.Context) state.Store {
	if !c.Config.Redis.Enabled {
		return state.NewNopStore()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.Database,
	})

	// Test connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		c.logger.Warnf("⚠️ Failed to connect to Redis, run history disabled: %v", err)
		rdb.Close()
		return state.NewNopStore()
	}

	c.logger.Info("✅ Connected to Redis successfully")
	c.redis = rdb
	return state.NewRedisStore(rdb, c.Config.Redis.KeyPrefix)
}

// Run executes one extraction and reports whether it succeeded
func (c *Container) Run(ctx context.Context) bool {
	rep := c.Service.Run(ctx)
	rep.Render(c.Out)
	return rep.Succeeded()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	c.logger.Debug("Shutting down container...")

	if c.Client != nil {
		if err := c.Client.Close(); err != nil {
			c.logger.Warnf("Failed to close HTTP client: %v", err)
		}
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Warnf("Failed to close Redis client: %v", err)
		}
	}

	c.logger.Debug("Container shut down successfully")
	return nil
}

// Package app is the composition root. It builds every store, service and
// background runner from a config.Config and hands the CLI a ready
// Application.
//
//	cfg, _ := config.Load()
//	a, err := app.New(ctx, cfg)
//	defer a.Close(ctx)
//	http.ListenAndServe(":"+cfg.AppPort, a.Handler())
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gql "github.com/graphql-go/graphql"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/controllers"
	appgraphql "github.com/fakush/CoderHouse-Backend-EntregaFinal/app/graphql"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/jobs"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/listeners"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/repositories"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/routes"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/services"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/config"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/internal/kernel"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/auth"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/bind"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/cache"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/database"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/event"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/mail"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/middleware"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/mq"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/notification"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/obs"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/queue"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/router"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/schedule"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/storage"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/workerpool"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/ws"
)

// ServiceName labels traces, metrics and logs.
const ServiceName = "shop"

const (
	eventPoolSize = 8
	queueBuffer   = 1024
	sweepInterval = time.Minute
)

// Runner is a long-lived background loop that returns when ctx ends.
type Runner struct {
	Name string
	Run  func(ctx context.Context)
}

// Option overrides a collaborator New would otherwise build from config.
type Option func(*options)

type options struct {
	db     *gorm.DB
	mailer mail.Sender
	disk   storage.Disk
	now    func() time.Time
}

// WithDB uses an already migrated connection.
func WithDB(db *gorm.DB) Option { return func(o *options) { o.db = db } }

// WithMailer replaces the SMTP mailer.
func WithMailer(m mail.Sender) Option { return func(o *options) { o.mailer = m } }

// WithDisk replaces the configured storage disk.
func WithDisk(d storage.Disk) Option { return func(o *options) { o.disk = d } }

// WithClock sets the time source of the chat service.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// Application holds the wired object graph.
type Application struct {
	Config *config.Config

	DB      *gorm.DB
	Redis   *redis.Client
	Cache   cache.Store
	Disk    storage.Disk
	Pool    *workerpool.Pool
	Bus     *event.Bus
	Queue   *queue.Manager
	Hub     *ws.Hub
	Limiter *middleware.Limiter
	Issuer  *auth.Issuer

	Users    *repositories.UserRepository
	Auth     *services.AuthService
	Catalog  *services.CatalogService
	Carts    *services.CartService
	Orders   *services.OrderService
	Chat     *services.ChatService
	Images   *services.ImageService
	Schema   gql.Schema
	Schedule *schedule.Scheduler

	redisQueue *queue.RedisDriver
	memCache   *cache.MemoryStore
	closers    []func(context.Context) error
}

// New wires the application. On error every resource opened so far is
// released.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *Application, err error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	a := &Application{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	bind.SetMaxBodyBytes(cfg.MaxBodyBytes)

	shutdownTracer, err := obs.InitTracer(ctx, ServiceName, cfg.AppEnv, cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		a.onClose(shutdownTracer)
	}

	if err := a.openDB(cfg, o.db); err != nil {
		return nil, err
	}
	a.openCache(ctx, cfg)

	disk := o.disk
	if disk == nil {
		disk, err = storage.New(ctx, storage.Options{
			Driver:     cfg.StorageDisk,
			LocalRoot:  cfg.StorageLocalRoot,
			BaseURL:    storageURL(cfg),
			S3Bucket:   cfg.S3Bucket,
			S3Region:   cfg.S3Region,
			S3Key:      cfg.S3Key,
			S3Secret:   cfg.S3Secret,
			S3Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("app: storage: %w", err)
		}
	}
	a.Disk = disk

	a.Pool = workerpool.New(eventPoolSize)
	a.onClose(func(context.Context) error { a.Pool.Shutdown(); return nil })
	a.Bus = event.NewBus(a.Pool)
	a.Hub = ws.NewHub()
	a.Limiter = middleware.NewLimiter(cfg.RateLimit, cfg.RateWindow)
	a.Issuer = auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL, auth.WithDenylist(auth.NewDenylist(a.Cache)))

	a.openQueue(cfg)

	users := repositories.NewUserRepository(a.DB)
	carts := repositories.NewCartRepository(a.DB)
	orders := repositories.NewOrderRepository(a.DB)

	a.Users = users
	a.Auth = services.NewAuthService(users, a.Issuer)
	a.Catalog = services.NewCatalogService(repositories.NewProductRepository(a.DB), a.Cache, cfg.CatalogCacheTTL)
	a.Carts = services.NewCartService(carts, a.Catalog, cfg.CartStockPolicy)
	a.Orders = services.NewOrderService(orders, users, a.Bus)
	a.Images = services.NewImageService(a.Disk, a.Catalog, cfg.MaxUploadBytes)
	responder := services.NewResponder(services.DefaultRules(a.Catalog, a.Orders, a.Carts)...)
	a.Chat = services.NewChatService(repositories.NewChatRepository(a.DB), responder, a.Bus, o.now)

	a.Schema, err = appgraphql.NewSchema(a.Catalog)
	if err != nil {
		return nil, fmt.Errorf("app: graphql schema: %w", err)
	}

	mailer := o.mailer
	if mailer == nil {
		mailer = newMailer(cfg)
	}
	dispatcher := notification.NewDispatcher(mailer, cfg.SlackWebhookURL)
	jobs.Register(a.Queue, dispatcher, cfg.AdminEmail)

	deps := listeners.Deps{
		Queue:    a.Queue,
		Products: a.Catalog,
		Pusher:   a.Hub,
		Slack:    dispatcher.SlackConfigured(),
	}
	if cfg.AMQPURL != "" {
		pub, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("event publishing disabled", "error", err)
		} else {
			deps.Publisher = pub
			a.onClose(func(context.Context) error { return pub.Close() })
		}
	}
	listeners.Register(a.Bus, deps)

	a.Schedule = schedule.New()
	a.Schedule.Every("limiter.sweep", cfg.RateWindow, func(context.Context) error {
		a.Limiter.Sweep()
		return nil
	})
	if a.memCache != nil {
		a.Schedule.Every("cache.sweep", sweepInterval, func(context.Context) error {
			a.memCache.Sweep()
			return nil
		})
	}
	return a, nil
}

func (a *Application) openDB(cfg *config.Config, db *gorm.DB) error {
	if db != nil {
		a.DB = db
		return nil
	}
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	a.DB = db
	a.onClose(func(context.Context) error { return database.Close(db) })
	return nil
}

// openCache prefers Redis and falls back to the in-process store when Redis
// is not configured or not reachable.
func (a *Application) openCache(ctx context.Context, cfg *config.Config) {
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err == nil {
			a.Redis = rdb
			a.Cache = cache.NewRedisStore(rdb, ServiceName+":")
			a.onClose(func(context.Context) error { return rdb.Close() })
			return
		}
		logger.Warn("redis unreachable, using the memory cache", "addr", cfg.RedisAddr, "error", err)
	}
	a.memCache = cache.NewMemoryStore()
	a.Cache = a.memCache
}

func (a *Application) openQueue(cfg *config.Config) {
	var driver queue.Driver
	if cfg.QueueDriver == "redis" && a.Redis != nil {
		a.redisQueue = queue.NewRedisDriver(a.Redis)
		driver = a.redisQueue
	} else {
		if cfg.QueueDriver == "redis" {
			logger.Warn("QUEUE_DRIVER=redis without a reachable Redis, using the memory queue")
		}
		driver = queue.NewMemoryDriver(queueBuffer)
	}
	a.Queue = queue.NewManager(driver,
		queue.WithMaxRetry(cfg.QueueMaxRetry),
		queue.WithFailedStore(a.DB),
	)
}

func newMailer(cfg *config.Config) mail.Sender {
	if cfg.MailUsername == "" {
		logger.Warn("MAIL_USERNAME not set, mail goes to the log")
		return mail.LogSender{}
	}
	return mail.NewMailer(mail.SMTP{
		Host:     cfg.MailHost,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		From:     cfg.MailFrom,
		FromName: cfg.MailFromName,
	})
}

func storageURL(cfg *config.Config) string {
	if cfg.StorageDisk == "s3" {
		return cfg.S3URL
	}
	return cfg.StorageURL
}

// Routes registers the application endpoints on r.
func (a *Application) Routes(r *router.Router) {
	deps := routes.Deps{
		Auth:     controllers.NewAuthController(a.Auth),
		Products: controllers.NewProductController(a.Catalog, a.Images),
		Carts:    controllers.NewCartController(a.Carts),
		Orders:   controllers.NewOrderController(a.Orders),
		Verifier: a.Auth,
		Schema:   a.Schema,
	}
	chat := controllers.NewChatController(a.Chat, a.Auth, a.Hub)
	deps.Chat = chat
	deps.ChatWS = a.Hub.Handler(chat)
	if local, ok := a.Disk.(*storage.LocalDisk); ok {
		deps.Files = http.FileServer(http.Dir(local.Root()))
	}
	routes.RegisterAPI(r, deps)
}

// Router returns the fully assembled router.
func (a *Application) Router() *router.Router {
	return kernel.NewHTTPKernel(kernel.Options{
		Service: ServiceName,
		Limiter: a.Limiter,
		Check:   a.Ping,
		Routes:  []func(*router.Router){a.Routes},
	})
}

// Handler returns the HTTP handler.
func (a *Application) Handler() http.Handler { return a.Router().Handler() }

// Ping checks the database.
func (a *Application) Ping(ctx context.Context) error { return database.Ping(ctx, a.DB) }

// Runners are the loops serve keeps alive next to the listeners. Queue
// workers are included only when withWorkers is set.
func (a *Application) Runners(withWorkers bool) []Runner {
	runners := []Runner{
		{Name: "ws.hub", Run: a.Hub.Run},
		{Name: "scheduler", Run: a.Schedule.Start},
	}
	if withWorkers {
		runners = append(runners, a.WorkerRunners(a.Config.QueueWorkers)...)
	}
	return runners
}

// WorkerRunners are the queue workers plus, on Redis, the delayed-job pump.
func (a *Application) WorkerRunners(n int) []Runner {
	runners := []Runner{{Name: "queue.workers", Run: func(ctx context.Context) { a.Queue.Run(ctx, n) }}}
	if a.redisQueue != nil {
		runners = append(runners, Runner{Name: "queue.delayed", Run: a.redisQueue.PromoteDelayed})
	}
	return runners
}

func (a *Application) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

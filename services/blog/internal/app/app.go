// Package app assembles the blog service from configuration: storage,
// event publishing, rate limiting and the HTTP and gRPC surfaces.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/example/blog-platform/internal/platform/auth"
	"github.com/example/blog-platform/internal/platform/db"
	"github.com/example/blog-platform/internal/platform/events"
	"github.com/example/blog-platform/internal/platform/httpserver"
	"github.com/example/blog-platform/internal/platform/natsconn"
	"github.com/example/blog-platform/services/blog/internal/articles"
	"github.com/example/blog-platform/services/blog/internal/comments"
	"github.com/example/blog-platform/services/blog/internal/config"
	"github.com/example/blog-platform/services/blog/internal/grpcapi"
	"github.com/example/blog-platform/services/blog/internal/handlers"
	"github.com/example/blog-platform/services/blog/internal/moderation"
	"github.com/example/blog-platform/services/blog/internal/ratelimit"
	"github.com/example/blog-platform/services/blog/internal/store"
	"github.com/example/blog-platform/services/blog/internal/web"
)

type App struct {
	Log        *zap.Logger
	Store      store.Store
	Comments   *comments.Service
	Moderation *moderation.Service
	Articles   *articles.Service
	Pages      *web.Pages
	Verifier   auth.JWTVerifier

	commentLimiter ratelimit.Limiter
	reportLimiter  ratelimit.Limiter
	limitOpts      ratelimit.Options

	pool  *pgxpool.Pool
	nc    *nats.Conn
	redis rueidis.Client
}

// Option adjusts an App before its services are built.
type Option func(*App)

// WithStore skips the DATABASE_URL lookup and uses st.
func WithStore(st store.Store) Option {
	return func(a *App) { a.Store = st }
}

// New connects the configured backends. Postgres is used when DATABASE_URL
// is set and the in-memory store otherwise. NATS and Redis are optional:
// without them events are dropped and rate limits are per process.
func New(ctx context.Context, cfg config.BlogConfig, log *zap.Logger, opts ...Option) (*App, error) {
	a := &App{Log: log, Verifier: auth.JWTVerifier{Secret: cfg.JWTSecret}}
	for _, o := range opts {
		o(a)
	}

	if a.Store == nil {
		st, err := a.openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.Store = st
	}

	publisher := a.connectEvents(cfg)
	a.commentLimiter, a.reportLimiter = a.limiters(cfg)
	a.limitOpts = ratelimit.Options{TrustedProxies: cfg.TrustedProxies}

	a.Comments = comments.NewService(a.Store, log)
	a.Moderation = moderation.NewService(a.Store, log, moderation.WithEvents(publisher))
	a.Articles = articles.NewService(a.Store, log)

	pages, err := web.New(a.Comments, a.Moderation, a.Articles, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Pages = pages
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg config.BlogConfig) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		if cfg.Production {
			return nil, errors.New("DATABASE_URL is required in production")
		}
		a.Log.Warn("DATABASE_URL not set, using in-memory store (development only)")
		return store.NewInMemoryStore(), nil
	}
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.pool = pool
	a.Log.Info("using postgres store")
	return store.NewPostgresStore(pool), nil
}

// connectEvents returns a nil publisher when NATS is not configured or not
// reachable. Moderation never fails because of events.
func (a *App) connectEvents(cfg config.BlogConfig) *events.Publisher {
	if cfg.NATSURL == "" {
		return nil
	}
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Name: "blog"})
	if err != nil {
		a.Log.Error("nats connect", zap.Error(err))
		return nil
	}
	js, err := nc.JetStream()
	if err != nil {
		a.Log.Error("jetstream context", zap.Error(err))
		nc.Close()
		return nil
	}
	if err := natsconn.EnsureStream(js, events.Stream, events.SubjectAll); err != nil {
		a.Log.Error("ensure stream", zap.String("stream", events.Stream), zap.Error(err))
		nc.Close()
		return nil
	}
	a.nc = nc
	return events.New(js, a.Log.Named("events"))
}

func (a *App) limiters(cfg config.BlogConfig) (ratelimit.Limiter, ratelimit.Limiter) {
	commentLimit, commentWindow := limitOrDefault(cfg.CommentRateLimit, cfg.CommentRateWindow, 30)
	reportLimit, reportWindow := limitOrDefault(cfg.ReportRateLimit, cfg.ReportRateWindow, 10)
	if cfg.RedisAddr != "" {
		client, err := rueidis.NewClient(rueidis.ClientOption{InitAddress: []string{cfg.RedisAddr}, DisableCache: true})
		if err == nil {
			a.redis = client
			return ratelimit.NewRedisLimiter(client, "blog:rl:comment:", commentLimit, commentWindow),
				ratelimit.NewRedisLimiter(client, "blog:rl:report:", reportLimit, reportWindow)
		}
		a.Log.Error("redis connect, falling back to in-process rate limits", zap.Error(err))
	}
	return ratelimit.NewMemoryLimiter(commentLimit, commentWindow),
		ratelimit.NewMemoryLimiter(reportLimit, reportWindow)
}

// limitOrDefault fills in unset limits so a zero config never blocks every write.
func limitOrDefault(limit int, window time.Duration, def int) (int, time.Duration) {
	if limit <= 0 {
		limit = def
	}
	if window <= 0 {
		window = time.Minute
	}
	return limit, window
}

// Migrate applies the embedded schema. It needs a Postgres-backed App.
func (a *App) Migrate(ctx context.Context) error {
	if a.pool == nil {
		return errors.New("migrate requires DATABASE_URL")
	}
	return db.Migrate(ctx, a.pool, store.Schema)
}

// Ready reports whether the database answers.
func (a *App) Ready() error {
	if a.pool == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return a.pool.Ping(ctx)
}

// Router builds the HTTP surface: the JSON API under /v1 and the HTML thread pages.
func (a *App) Router() chi.Router {
	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: a.Ready, Logger: a.Log})

	commentLimit := ratelimit.Middleware(a.commentLimiter, a.Log, a.limitOpts)
	reportLimit := ratelimit.Middleware(a.reportLimiter, a.Log, a.limitOpts)

	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(a.Verifier))
		r.Use(handlers.TrackUser(a.Store, a.Log))

		r.Route("/v1", func(r chi.Router) {
			r.Get("/articles", handlers.ListArticles(a.Articles))
			r.Get("/articles/{article_id}", handlers.GetArticle(a.Articles))
			r.Get("/articles/{article_id}/comments", handlers.ArticleThread(a.Comments))
			r.Get("/comments/{comment_id}", handlers.GetComment(a.Comments))
			r.Get("/comments/{comment_id}/replies", handlers.GetReplies(a.Comments, a.Pages))

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireUser(a.Verifier))
				r.Post("/articles", handlers.CreateArticle(a.Articles))
				r.Put("/articles/{article_id}", handlers.UpdateArticle(a.Articles))
				r.Delete("/articles/{article_id}", handlers.DeleteArticle(a.Articles))
				r.With(commentLimit).Post("/articles/{article_id}/comments", handlers.CreateComment(a.Comments))
				r.Put("/comments/{comment_id}", handlers.EditComment(a.Comments))
				r.Delete("/comments/{comment_id}", handlers.DeleteComment(a.Comments))
				r.With(reportLimit).Post("/comments/{comment_id}/reports", handlers.ReportComment(a.Moderation))
				r.Get("/comments/{comment_id}/reported", handlers.HasReported(a.Moderation))
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Get("/reports", handlers.ListReports(a.Moderation))
				r.Get("/reports/{report_id}", handlers.GetReport(a.Moderation))
				r.Post("/reports/{report_id}/review", handlers.ReviewReport(a.Moderation))
				r.Post("/comments/{comment_id}/block", handlers.BlockComment(a.Moderation))
				r.Post("/comments/{comment_id}/unblock", handlers.UnblockComment(a.Moderation))
			})
		})

		a.Pages.Routes(r, commentLimit, reportLimit)
	})
	return r
}

// GRPCServer returns a server with the moderation API registered.
func (a *App) GRPCServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcapi.UnaryLogger(a.Log.Named("grpc"))))
	grpcapi.Register(srv, &grpcapi.Server{Comments: a.Comments, Moderation: a.Moderation, Verifier: a.Verifier})
	return srv
}

func (a *App) Close() {
	if a.nc != nil {
		_ = a.nc.Drain()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

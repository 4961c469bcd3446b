package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "github.com/peatiscoding/cadence-sub000/internal/common/api"
	"github.com/peatiscoding/cadence-sub000/internal/config"
	"github.com/peatiscoding/cadence-sub000/internal/database"
	"github.com/peatiscoding/cadence-sub000/internal/features/approval"
	"github.com/peatiscoding/cadence-sub000/internal/features/auth"
	"github.com/peatiscoding/cadence-sub000/internal/features/card"
	"github.com/peatiscoding/cadence-sub000/internal/features/digest"
	"github.com/peatiscoding/cadence-sub000/internal/features/email"
	"github.com/peatiscoding/cadence-sub000/internal/features/lov"
	"github.com/peatiscoding/cadence-sub000/internal/features/stats"
	"github.com/peatiscoding/cadence-sub000/internal/features/system"
	"github.com/peatiscoding/cadence-sub000/internal/features/transition"
	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
	"github.com/peatiscoding/cadence-sub000/internal/logger"
	"github.com/peatiscoding/cadence-sub000/internal/middleware"
	"github.com/peatiscoding/cadence-sub000/pkg/utils"

	_ "github.com/peatiscoding/cadence-sub000/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"reason":  err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	utils.SetSecret(cfg.JWTSecret)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle,
	workflowRepo workflow.Repository,
	cardRepo card.Repository,
	statsRepo stats.Repository,
	userRepo auth.UserRepository,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := workflowRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure workflow indexes: %v", err)
				}
				if err := cardRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure card indexes: %v", err)
				}
				if err := statsRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure stats indexes: %v", err)
				}
				if err := userRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure user indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

// @title           Cadence Workflow API
// @version         1.0
// @description     Configurable workflow engine: cards, statuses, approvals and actions.

// @host            localhost:8080
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			workflow.NewRepository,
			card.NewRepository,
			lov.NewRepository,
			stats.NewRepository,
			auth.NewUserRepository,

			// Initialize Service
			workflow.NewService,
			email.NewRegistry,
			lov.NewService,
			lov.NewValidator,
			system.NewActivityHub,
			stats.NewAggregator,
			card.NewService,
			approval.NewService,
			transition.NewExecutorRegistry,
			transition.NewRunner,
			transition.NewService,
			auth.NewService,
			digest.NewService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(r card.Repository) approval.CardStore { return r },
			func(v *lov.Validator) card.FieldValidator { return v },
			func(a stats.Aggregator) card.ActivityRecorder { return a },
			func(h *system.ActivityHub) stats.Publisher { return h },

			// Initialize Controller
			workflow.NewController,
			card.NewController,
			approval.NewController,
			transition.NewController,
			lov.NewController,
			stats.NewController,
			auth.NewController,

			// Initialize API Routes
			AsRoute(workflow.NewApi),
			AsRoute(card.NewApi),
			AsRoute(approval.NewApi),
			AsRoute(transition.NewApi),
			AsRoute(lov.NewApi),
			AsRoute(stats.NewApi),
			AsRoute(auth.NewApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
			AsRoute(system.NewWebSocketApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, digestService digest.Service) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return digestService.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return digestService.Stop()
					},
				})
			},
			InitializeIndexes,
		),
	)

	app.Run()
}

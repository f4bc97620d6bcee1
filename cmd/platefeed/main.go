package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/platefeed/platefeed/internal/config"
	"github.com/platefeed/platefeed/internal/infra/database"
	"github.com/platefeed/platefeed/internal/infra/repository"
	"github.com/platefeed/platefeed/internal/present/rest"
	"github.com/platefeed/platefeed/internal/present/rest/middleware"
	"github.com/platefeed/platefeed/internal/service"
	"github.com/platefeed/platefeed/internal/usecase"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		conf.Server.PostgresDsn = dsn
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		conf.Server.RedisAddr = addr
	}
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		conf.Server.ListenAddr = addr
	}

	if conf.Server.EnableTrace {
		cleanup, err := setupTraceProvider(conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("Failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer cleanup()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = database.MigratePostgres(db)
	if err != nil {
		slog.Error("Failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, os.Getenv("REDIS_PASSWORD"), conf.Server.RedisDB)

	userRepo := repository.NewUserRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	tagRepo := repository.NewTagRepository(db)
	ingredientRepo := repository.NewIngredientRepository(db)

	authService := service.NewAuthService(userRepo, rdb, conf.Auth.TokenTTL())
	imageService := service.NewImageService(conf.Media.Dir)
	pdfRenderer := service.NewPDFRenderer()

	userUsecase := usecase.NewUserUsecase(userRepo)
	recipeUsecase := usecase.NewRecipeUsecase(recipeRepo, tagRepo, ingredientRepo, imageService)
	relationUsecase := usecase.NewRelationUsecase(recipeRepo, userRepo)
	shoppingListUsecase := usecase.NewShoppingListUsecase(ingredientRepo, pdfRenderer)

	handler := rest.NewHandler(
		recipeUsecase,
		userUsecase,
		relationUsecase,
		shoppingListUsecase,
		tagRepo,
		ingredientRepo,
		authService,
		conf.Server.DefaultPageLimit,
	)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("platefeed"))
	}

	e.Static("/media", conf.Media.Dir)
	handler.RegisterRoutes(e, authMiddleware)

	e.Logger.Fatal(e.Start(conf.Server.ListenAddr))
}

func setupTraceProvider(endpoint string) (func(), error) {
	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("platefeed"),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			slog.Error("Failed to shut down trace provider", slog.String("error", err.Error()))
		}
	}, nil
}

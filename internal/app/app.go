package app

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stokhub/internal/api/http/handler"
	"stokhub/internal/api/http/route"
	"stokhub/internal/apperrors"
	"stokhub/internal/config"
	"stokhub/internal/hub"
	"stokhub/internal/model"
	"stokhub/internal/relay"
	"stokhub/internal/repository"
	"stokhub/internal/service"
	"stokhub/pkg/jwt"
	"stokhub/pkg/postgres"
	"stokhub/pkg/rabbitmq"
	"stokhub/pkg/redis"
	"stokhub/pkg/server"
)

type UserRepository interface {
	SelectUserByCode(ctx context.Context, ext repository.RepoExtension, userCode string) (*model.User, error)
	SelectUserByID(ctx context.Context, ext repository.RepoExtension, id int64) (*model.User, error)
}

type StokHareketRepository interface {
	SelectByID(ctx context.Context, ext repository.RepoExtension, id int64) (*model.StokHareket, error)
	SelectRecent(ctx context.Context, ext repository.RepoExtension, count int, subeIDs []int64) ([]model.StokHareket, error)
}

type AuthService interface {
	Login(ctx context.Context, userCode, password string) (*model.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.LoginResponse, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

type StokHareketService interface {
	GetByID(ctx context.Context, id int64) (*model.StokHareket, error)
	Recent(ctx context.Context, count int, admin bool, rawSubeIDs string) ([]model.StokHareket, error)
}

type HealthService interface {
	Check(ctx context.Context) service.HealthReport
}

type AuthHandler interface {
	Login(c *gin.Context)
	Refresh(c *gin.Context)
	Me(c *gin.Context)
}

type StokHareketHandler interface {
	GetByID(c *gin.Context)
	Recent(c *gin.Context)
}

type HealthHandler interface {
	Ping(c *gin.Context)
	ProtectedPing(c *gin.Context)
	Health(c *gin.Context)
}

type WSHandler interface {
	Connect(c *gin.Context)
}

type App struct {
	Cfg        *config.Config
	Log        *zap.Logger
	Handler    *Handler
	Service    *Service
	Security   *Security
	DB         postgres.Postgres
	RDB        redis.Redis
	Relay      *rabbitmq.Conn
	Hub        *hub.Hub
	Consumer   *relay.Consumer
	HTTPServer server.HTTPServer
}

type Repository struct {
	UserRepository        UserRepository
	StokHareketRepository StokHareketRepository
}

type Service struct {
	AuthService        AuthService
	StokHareketService StokHareketService
	HealthService      HealthService
}

type Handler struct {
	AuthHandler        AuthHandler
	StokHareketHandler StokHareketHandler
	HealthHandler      HealthHandler
	WSHandler          WSHandler
}

type Security struct {
	PrivateKey *ecdsa.PrivateKey
	PublicKey  *ecdsa.PublicKey
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := initDB(&cfg.Database)
	if err != nil {
		log.Error("Failed to initialize database", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := initRedis(&cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize redis", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	sec, err := initSecurity(log, cfg.Key)
	if err != nil {
		log.Error("Failed to initialize security", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize security: %w", err)
	}

	relayConn, err := initRelay(log, &cfg.Relay)
	if err != nil {
		log.Error("Failed to initialize relay", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize relay: %w", err)
	}

	pushHub := hub.New(log)
	log.Debug("Hub initialized")

	consumer := relay.NewConsumer(log, relayConn, pushHub)
	log.Debug("Relay consumer initialized")

	repo := initRepository(log, db)

	svc := initService(log, &cfg.HTTPServer.JWT, sec, repo, rdb, db, relayConn)

	hdl := initHandler(log, cfg, svc, pushHub)

	httpServer := initHTTPServer(log, cfg, sec.PublicKey, hdl)

	return &App{
		Cfg:        cfg,
		Log:        log,
		Handler:    hdl,
		Service:    svc,
		Security:   sec,
		DB:         db,
		RDB:        rdb,
		Relay:      relayConn,
		Hub:        pushHub,
		Consumer:   consumer,
		HTTPServer: httpServer,
	}, nil
}

func MustNew(cfg *config.Config, log *zap.Logger) *App {
	app, err := New(cfg, log)
	if err != nil {
		panic(err)
	}

	return app
}

func (a *App) Run(ctx context.Context) error {
	errs := make(chan error, 1)
	defer close(errs)

	go func() {
		if err := a.HTTPServer.Run(); err != nil {
			errs <- err
		}
	}()

	go func() {
		a.Consumer.Run(ctx)
	}()

	if err := <-errs; err != nil {
		return err
	}

	return nil
}

func (a *App) Shutdown() error {
	a.DB.Close()
	a.Log.Debug("Database closed")

	err := apperrors.ErrShutdown

	if rdbErr := a.RDB.Close(); rdbErr != nil {
		err = fmt.Errorf("%w, failed to close RDB: %w", err, rdbErr)
	}

	a.Log.Debug("Redis closed")

	if relayErr := a.Relay.Close(); relayErr != nil {
		err = fmt.Errorf("%w, failed to close relay: %w", err, relayErr)
	}

	a.Log.Debug("Relay closed")

	if srvErr := a.HTTPServer.Shutdown(); srvErr != nil {
		err = fmt.Errorf("%w, failed to shutdown http server: %w", err, srvErr)
	}

	a.Log.Debug("Http server shutdown")

	if !errors.Is(err, apperrors.ErrShutdown) {
		return err
	}

	return nil
}

func initDB(cfg *config.Database) (postgres.Postgres, error) {
	postgresCfg := &postgres.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Name:     cfg.Name,
		SSLMode:  cfg.SSLMode,
		MaxConns: cfg.MaxConns,
		MinConns: cfg.MinConns,
		Migration: postgres.Migration{
			Path:      cfg.Migration.Path,
			AutoApply: cfg.Migration.AutoApply,
		},
	}

	db, err := postgres.New(postgresCfg)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func initRedis(cfg *config.Redis) (redis.Redis, error) {
	redisCfg := &redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	rdb, err := redis.New(redisCfg)
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func initSecurity(log *zap.Logger, cfg config.Key) (*Security, error) {
	privateKey, err := jwt.LoadECDSAPrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}

	log.Debug("Private key loaded")

	publicKey, err := jwt.LoadECDSAPublicKey(cfg.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load public key: %w", err)
	}

	log.Debug("Public key loaded")

	return &Security{
		PrivateKey: privateKey,
		PublicKey:  publicKey,
	}, nil
}

func initRelay(log *zap.Logger, cfg *config.Relay) (*rabbitmq.Conn, error) {
	relayCfg := &rabbitmq.Config{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Username:       cfg.Username,
		Password:       cfg.Password,
		VirtualHost:    cfg.VirtualHost,
		ConnectTimeout: cfg.ConnectTimeout,
		RetryCount:     cfg.RetryCount,
		RetryDelay:     cfg.RetryDelay,
	}

	conn, err := rabbitmq.New(log, relayCfg, relay.DeclareTopology)
	if err != nil {
		return nil, err
	}

	log.Debug("Relay connection established")

	return conn, nil
}

func initRepository(log *zap.Logger, db postgres.Postgres) *Repository {
	userRepo := repository.NewUserRepository(db.Pool())
	log.Debug("User repository initialized")

	stokRepo := repository.NewStokHareketRepository(db.Pool())
	log.Debug("Stok hareket repository initialized")

	return &Repository{
		UserRepository:        userRepo,
		StokHareketRepository: stokRepo,
	}
}

func initService(
	log *zap.Logger,
	jwtCfg *config.JWT,
	sec *Security,
	repo *Repository,
	rdb redis.Redis,
	db postgres.Postgres,
	relayConn *rabbitmq.Conn,
) *Service {
	authSvc := service.NewAuthService(log, sec.PublicKey, sec.PrivateKey, repo.UserRepository, rdb, jwtCfg.AccessTokenTTL, jwtCfg.RefreshTokenTTL)
	log.Debug("Auth service initialized")

	stokSvc := service.NewStokHareketService(log, repo.StokHareketRepository)
	log.Debug("Stok hareket service initialized")

	healthSvc := service.NewHealthService(log, db, relayConn)
	log.Debug("Health service initialized")

	return &Service{
		AuthService:        authSvc,
		StokHareketService: stokSvc,
		HealthService:      healthSvc,
	}
}

func initHandler(log *zap.Logger, cfg *config.Config, svc *Service, pushHub *hub.Hub) *Handler {
	authHandler := handler.NewAuthHandler(log, svc.AuthService, cfg.HTTPServer.JWT.AccessTokenTTL, cfg.HTTPServer.JWT.RefreshTokenTTL)
	log.Debug("Auth handler initialized")

	stokHandler := handler.NewStokHareketHandler(log, svc.StokHareketService)
	log.Debug("Stok hareket handler initialized")

	healthHandler := handler.NewHealthHandler(log, svc.HealthService)
	log.Debug("Health handler initialized")

	wsHandler := handler.NewWSHandler(log, pushHub, cfg.HTTPServer.CORS.AllowAllOrigins)
	log.Debug("WebSocket handler initialized")

	return &Handler{
		AuthHandler:        authHandler,
		StokHareketHandler: stokHandler,
		HealthHandler:      healthHandler,
		WSHandler:          wsHandler,
	}
}

func initHTTPServer(log *zap.Logger, cfg *config.Config, publicKey *ecdsa.PublicKey, hdl *Handler) server.HTTPServer {
	router := route.SetupRouter(
		log,
		cfg,
		publicKey,
		hdl.HealthHandler,
		hdl.AuthHandler,
		hdl.StokHareketHandler,
		hdl.WSHandler,
	)

	httpServer := server.NewHTTPServer(
		server.WithAddr(cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		server.WithTimeout(cfg.HTTPServer.Timeout.Read, cfg.HTTPServer.Timeout.Write, cfg.HTTPServer.Timeout.Idle),
		server.WithHandler(router),
	)

	return httpServer
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"stockflow/config"
	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/database"
	"stockflow/internal/pkg/events"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/pkg/middleware"
	"stockflow/internal/pkg/notify"
	"stockflow/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"stockflow/internal/api/item"
	"stockflow/internal/api/request"
	"stockflow/internal/api/router"
	"stockflow/internal/api/stock"
	"stockflow/internal/api/transfer"
	"stockflow/internal/api/user"
	"stockflow/internal/api/warehouse"
	"stockflow/internal/repository/inventoryrepo"
	"stockflow/internal/repository/itemrepo"
	"stockflow/internal/repository/requestrepo"
	"stockflow/internal/repository/transferrepo"
	"stockflow/internal/repository/userrepo"
	"stockflow/internal/repository/warehouserepo"
	"stockflow/internal/service/itemservice"
	"stockflow/internal/service/policy"
	"stockflow/internal/service/requestservice"
	"stockflow/internal/service/stockservice"
	"stockflow/internal/service/sufficiency"
	"stockflow/internal/service/transferservice"
	"stockflow/internal/service/userservice"
	"stockflow/internal/service/warehouseservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço StockFlow...")

	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	// Se não existir, seguimos com as variáveis do ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache, filas e pub/sub (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	eventSink := events.NewRedisSink(cacheClient, cfg.EventChannel, log)
	notifier := notify.NewRedisNotifier(cacheClient, cfg.NotifyQueue, log)

	// C. Serviço de Tokens (JWT) e Política de Aprovação
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	pol := policy.New(cfg.AutoApproveMaxQty)
	log.Debug("Serviço de Tokens e Política de Aprovação inicializados.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Repository -> Service -> Handler)

	// A. Repositórios (Camada de Acesso a Dados)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	itemRepo := itemrepo.NewItemRepository(db, cfg.DBTimeout, log)
	warehouseRepo := warehouserepo.NewWarehouseRepository(db, cacheClient, cfg.DBTimeout, cfg.WarehouseCacheTTL, log)
	inventoryRepo := inventoryrepo.NewInventoryRepository(db, cfg.DBTimeout, log)
	requestRepo := requestrepo.NewRequestRepository(db, cfg.DBTimeout, log)
	transferRepo := transferrepo.NewTransferRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	// B. Serviços (Camada de Lógica de Negócio)
	resolver := sufficiency.NewResolver(inventoryRepo)
	userSvc := userservice.NewService(userRepo, warehouseRepo, tokenSvc, log)
	itemSvc := itemservice.NewService(itemRepo, log)
	warehouseSvc := warehouseservice.NewService(warehouseRepo, userRepo, log)
	stockSvc := stockservice.NewService(inventoryRepo, itemRepo, warehouseRepo, pol, eventSink, log)
	requestSvc := requestservice.NewService(requestRepo, resolver, inventoryRepo, itemRepo, warehouseRepo, pol, eventSink, notifier, log)
	transferSvc := transferservice.NewService(transferRepo, inventoryRepo, pol, eventSink, notifier, log)
	log.Debug("Serviços inicializados.", nil)

	// C. Handlers (Camada de Apresentação)
	handlers := router.Handlers{
		User:      user.NewHandler(userSvc, log),
		Item:      item.NewHandler(itemSvc, log),
		Warehouse: warehouse.NewHandler(warehouseSvc, log),
		Stock:     stock.NewHandler(stockSvc, log),
		Request:   request.NewHandler(requestSvc, log),
		Transfer:  transfer.NewHandler(transferSvc, log),
	}
	log.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	auth := middleware.NewAuthMiddleware(tokenSvc)
	r := router.NewRouter(handlers, auth)
	rateLimited := middleware.RateLimiter(cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)(r)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rateLimited,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor StockFlow ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}

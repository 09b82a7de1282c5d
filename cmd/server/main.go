package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkai-core-go/internal/config"
	"linkai-core-go/internal/handler"
	"linkai-core-go/internal/middleware"
	"linkai-core-go/internal/policy"
	"linkai-core-go/internal/repository"
	"linkai-core-go/internal/schema"
	"linkai-core-go/internal/service"
	"linkai-core-go/pkg/database"
	"linkai-core-go/pkg/kafka"
	"linkai-core-go/pkg/log"
	"linkai-core-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 加载配置与日志
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()
	config.Init(*configPath)
	log.Init(config.Conf.Log.Level, config.Conf.Log.Format, config.Conf.Log.OutputPath)
	defer log.Sync()

	// 2. 初始化数据库连接并注册行级访问控制插件。
	// 插件必须在任何业务查询之前挂载，保证没有绕过授权的访问路径。
	database.InitPostgres(config.Conf.Database.Postgres.DSN)
	database.InitRedis(
		config.Conf.Database.Redis.Addr,
		config.Conf.Database.Redis.Password,
		config.Conf.Database.Redis.DB,
	)

	policyStore := policy.NewStore(policy.Compile(schema.Registry(), 1))
	if err := database.DB.Use(policy.NewEnforcer(policyStore)); err != nil {
		log.Fatal("注册访问控制插件失败", err)
	}

	// 3. 迁移走系统上下文：建表、索引、播种与当前月分区
	sysCtx := policy.WithSystem(context.Background())
	migrateDB := database.DB.WithContext(sysCtx)
	if err := schema.Migrate(migrateDB, config.Conf.Index); err != nil {
		log.Fatal("数据库迁移失败", err)
	}
	if err := schema.SeedAdmin(migrateDB, config.Conf.Admin); err != nil {
		log.Fatal("初始化管理员失败", err)
	}
	partitions := schema.NewPartitionManager(database.DB)
	if err := partitions.EnsureCurrent(sysCtx); err != nil {
		log.Fatal("预创建当前月分区失败", err)
	}

	// 4. 初始化 Kafka 生产者
	kafka.InitProducer(config.Conf.Kafka)

	// 5. 组装仓储与服务
	jwtManager := token.NewJWTManager(
		config.Conf.JWT.Secret,
		config.Conf.JWT.AccessTokenExpireHours,
		config.Conf.JWT.RefreshTokenExpireDays,
	)

	tenantRepo := repository.NewTenantRepository(database.DB)
	userRepo := repository.NewUserRepository(database.DB)
	collectionRepo := repository.NewCollectionRepository(database.DB)
	documentRepo := repository.NewDocumentRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.DB)
	botRepo := repository.NewBotRepository(database.DB)
	linkRepo := repository.NewLinkRepository(database.DB)
	quotaRepo := repository.NewQuotaRepository(database.DB, database.RDB)
	analyticsRepo := repository.NewAnalyticsRepository(database.DB)
	searchRepo := repository.NewSearchRepository(database.DB)

	searchCountTTL := time.Duration(config.Conf.Quota.SearchCounterTTLHours) * time.Hour
	quotaService := service.NewQuotaService(quotaRepo, searchCountTTL)
	userService := service.NewUserService(database.DB, database.RDB, jwtManager, userRepo, tenantRepo)
	resourceService := service.NewResourceService(database.DB, quotaService, collectionRepo, documentRepo, botRepo, quotaRepo)
	eventService := service.NewEventService(partitions, analyticsRepo)
	searchService := service.NewSearchService(searchRepo, quotaService, eventService)
	conversationService := service.NewConversationService(database.DB, conversationRepo, quotaService)
	linkService := service.NewLinkService(linkRepo)
	adminService := service.NewAdminService(userRepo, tenantRepo, quotaRepo, quotaService, userService, analyticsRepo, policyStore)

	// 6. 启动 Kafka 消费者，异步用量事件与同步路径共用事件服务
	go kafka.StartConsumer(config.Conf.Kafka, eventService)

	// 7. 组装处理器与路由
	userHandler := handler.NewUserHandler(userService)
	resourceHandler := handler.NewResourceHandler(resourceService, conversationService)
	searchHandler := handler.NewSearchHandler(searchService)
	usageHandler := handler.NewUsageHandler(quotaService, quotaRepo)
	eventHandler := handler.NewEventHandler(eventService)
	conversationHandler := handler.NewConversationHandler(conversationService)
	linkHandler := handler.NewLinkHandler(linkService)
	publicHandler := handler.NewPublicHandler(linkService, resourceService)
	adminHandler := handler.NewAdminHandler(adminService)
	healthHandler := handler.NewHealthHandler()

	gin.SetMode(config.Conf.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	router.GET("/healthz", healthHandler.Check)

	v1 := router.Group("/api/v1")
	{
		// 无需登录的端点
		v1.POST("/register", userHandler.Register)
		v1.POST("/login", userHandler.Login)
		v1.POST("/token/refresh", userHandler.RefreshToken)

		public := v1.Group("/public", middleware.PublicAccess())
		{
			public.GET("/profiles/:userId", publicHandler.GetProfile)
			public.GET("/bots", publicHandler.ListPublicBots)
		}

		// 需要登录的端点
		authed := v1.Group("", middleware.AuthMiddleware(jwtManager, userService))
		{
			authed.POST("/logout", userHandler.Logout)
			authed.GET("/profile", userHandler.Profile)

			authed.POST("/resources", resourceHandler.CreateResource)
			authed.POST("/collections", resourceHandler.CreateCollection)
			authed.GET("/collections", resourceHandler.ListCollections)
			authed.GET("/collections/:collectionId/documents", resourceHandler.ListDocuments)
			authed.POST("/documents", resourceHandler.CreateDocument)
			authed.POST("/bots", resourceHandler.CreateBot)
			authed.GET("/bots", resourceHandler.ListMyBots)
			authed.PUT("/bots/:botId", resourceHandler.UpdateBot)
			authed.DELETE("/resources/:kind/:id", resourceHandler.DeleteResource)
			authed.POST("/resources/:kind/:id/restore", resourceHandler.RestoreResource)

			authed.POST("/conversations", conversationHandler.CreateConversation)
			authed.GET("/conversations", conversationHandler.ListConversations)
			authed.DELETE("/conversations/:conversationId", conversationHandler.DeleteConversation)
			authed.POST("/conversations/:conversationId/messages", conversationHandler.AppendMessage)
			authed.GET("/conversations/:conversationId/messages", conversationHandler.ListMessages)

			authed.POST("/search/similarity", searchHandler.SimilaritySearch)
			authed.POST("/search/messages", searchHandler.MessageSearch)
			authed.GET("/search/text", searchHandler.TextSearch)

			authed.POST("/events", eventHandler.RecordEvent)
			authed.GET("/usage", usageHandler.GetUsage)
			authed.GET("/models", usageHandler.ListModels)

			authed.PUT("/me/profile", linkHandler.UpsertProfile)
			authed.POST("/me/links", linkHandler.CreateLink)
			authed.PUT("/me/links/:linkId", linkHandler.UpdateLink)
			authed.DELETE("/me/links/:linkId", linkHandler.DeleteLink)
		}

		// 管理端：在认证之上叠加管理员校验与跨租户旁路
		admin := v1.Group("/admin", middleware.AuthMiddleware(jwtManager, userService), middleware.AdminAuthMiddleware())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/tenants/:tenantId/usage", adminHandler.TenantUsage)
			admin.PUT("/tenants/:tenantId/tier", adminHandler.SetTenantTier)
			admin.POST("/tenants/:tenantId/suspend", adminHandler.SuspendTenant)
			admin.PUT("/tier-features", adminHandler.SetTierFeature)
			admin.GET("/policy/version", adminHandler.PolicyVersion)
		}
	}

	// 8. 启动 HTTP 服务并优雅退出
	srv := &http.Server{
		Addr:    ":" + config.Conf.Server.Port,
		Handler: router,
	}
	go func() {
		log.Infof("服务启动，监听端口 %s", config.Conf.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("服务启动失败", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("收到退出信号，开始优雅关闭")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("服务关闭异常", err)
	}
	log.Info("服务已退出")
}

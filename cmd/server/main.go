package main

import (
	"flag"
	"log"
	"os"

	"k8s.io/klog/v2"

	"github.com/reqchat/backend/config"
	"github.com/reqchat/backend/internal/eventbus"
	"github.com/reqchat/backend/internal/handler"
	"github.com/reqchat/backend/internal/pkg/database"
	"github.com/reqchat/backend/internal/pkg/llm"
	"github.com/reqchat/backend/internal/repository"
	"github.com/reqchat/backend/internal/router"
	"github.com/reqchat/backend/internal/service"
	"github.com/reqchat/backend/internal/subscriber"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	initConfig := flag.String("init-config", "", "write the effective configuration to this path and exit")
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()
	if *initConfig != "" {
		// 不把 API Key 写入文件
		out := *cfg
		out.LLM.APIKey = ""
		if err := out.Save(*initConfig); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		log.Printf("Configuration written to %s", *initConfig)
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// 初始化数据库
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化 Repository
	conversationRepo := repository.NewConversationRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// 需求事件 -> 站内通知
	requirementBus := eventbus.NewRequirementEventBus()
	subscriber.NewRequirementEventSubscriber(notificationRepo).Register(requirementBus)

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	// 初始化 Service
	relayService := service.NewRelayService(cfg, llmClient)
	requirementService := service.NewRequirementService(requirementRepo, conversationRepo, requirementBus)
	notificationService := service.NewNotificationService(notificationRepo)

	// 初始化 Handler
	chatHandler := handler.NewChatHandler(relayService)
	requirementHandler := handler.NewRequirementHandler(requirementService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	// 设置路由
	r := router.Setup(cfg, chatHandler, requirementHandler, notificationHandler)

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

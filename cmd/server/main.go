// @title Property Valuation Records API
// @version 1.0
// @description Multi-tenant approval workflow for bank property valuation reports.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"fmt"
	"log"

	"propval/internal/config"
	"propval/internal/domain"
	"propval/internal/email/noop"
	"propval/internal/email/ses"
	"propval/internal/handler"
	"propval/internal/port"
	"propval/internal/repository/postgres"
	"propval/internal/router"
	"propval/internal/service"
	s3storage "propval/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	clientRepo := postgres.NewClientRepo(db)
	userRepo := postgres.NewUserRepo(db)
	attachmentRepo := postgres.NewAttachmentRepo(db)

	// Initialize email sender
	var emailSender port.EmailSender
	switch cfg.Email.Provider {
	case "ses":
		emailSender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		emailSender = noop.NewNoopSender()
	}

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// One record service per form variant, each bound to its own table.
	recordServices := make(map[domain.FormVariant]service.RecordService, len(domain.VariantTables))
	recordHandlers := make(map[domain.FormVariant]*handler.RecordHandler, len(domain.VariantTables))
	for variant := range domain.VariantTables {
		recordRepo, err := postgres.NewRecordRepo(db, variant)
		if err != nil {
			return fmt.Errorf("failed to initialize %s record repo: %w", variant, err)
		}
		svc := service.NewRecordService(recordRepo, userRepo, emailSender)
		recordServices[variant] = svc
		recordHandlers[variant] = handler.NewRecordHandler(svc)
	}

	// Initialize services
	authSvc := service.NewAuthService(userRepo, clientRepo, cfg.JWT)
	attachmentSvc := service.NewAttachmentService(attachmentRepo, s3Client, &cfg.S3, recordServices)
	userSvc := service.NewUserService(userRepo)
	clientSvc := service.NewClientService(clientRepo)

	// Initialize handlers
	authH := handler.NewAuthHandler(authSvc)
	attachmentH := handler.NewAttachmentHandler(attachmentSvc)
	userH := handler.NewUserHandler(userSvc)
	clientH := handler.NewClientHandler(clientSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, authSvc, authH, recordHandlers, attachmentH, userH, clientH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

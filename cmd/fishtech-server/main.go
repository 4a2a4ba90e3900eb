package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authhandler "github.com/fishtech/fishtech-backend/internal/auth/handler"
	"github.com/fishtech/fishtech-backend/internal/auth/jwt"
	authmw "github.com/fishtech/fishtech-backend/internal/auth/middleware"
	authrepo "github.com/fishtech/fishtech-backend/internal/auth/repository"
	authservice "github.com/fishtech/fishtech-backend/internal/auth/service"
	billingevents "github.com/fishtech/fishtech-backend/internal/billing/events"
	billinghandler "github.com/fishtech/fishtech-backend/internal/billing/handler"
	billingmw "github.com/fishtech/fishtech-backend/internal/billing/middleware"
	billingrepo "github.com/fishtech/fishtech-backend/internal/billing/repository"
	billingservice "github.com/fishtech/fishtech-backend/internal/billing/service"
	docevents "github.com/fishtech/fishtech-backend/internal/documents/events"
	dochandler "github.com/fishtech/fishtech-backend/internal/documents/handler"
	docrepo "github.com/fishtech/fishtech-backend/internal/documents/repository"
	docservice "github.com/fishtech/fishtech-backend/internal/documents/service"
	"github.com/fishtech/fishtech-backend/internal/documents/storage"
	haccpevents "github.com/fishtech/fishtech-backend/internal/haccp/events"
	haccphandler "github.com/fishtech/fishtech-backend/internal/haccp/handler"
	haccprepo "github.com/fishtech/fishtech-backend/internal/haccp/repository"
	haccpservice "github.com/fishtech/fishtech-backend/internal/haccp/service"
	"github.com/fishtech/fishtech-backend/internal/notifications"
	opsevents "github.com/fishtech/fishtech-backend/internal/operations/events"
	opshandler "github.com/fishtech/fishtech-backend/internal/operations/handler"
	opsrepo "github.com/fishtech/fishtech-backend/internal/operations/repository"
	opsservice "github.com/fishtech/fishtech-backend/internal/operations/service"
	"github.com/fishtech/fishtech-backend/pkg/config"
	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/mailer"
	"github.com/fishtech/fishtech-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("fishtech-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("fishtech-server", cfg.Server.Environment)
	log.Info().Msg("starting FishTech server")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// File archive storage
	fileStore, err := storage.NewDiskStore(cfg.Storage.MediaRoot)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize file store")
	}

	// Outbound mail
	mail := mailer.NewSendgrid(cfg.Mail, log)

	// Event publishers
	billingPublisher, err := billingevents.NewBillingEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create billing event publisher")
	}
	haccpPublisher, err := haccpevents.NewHaccpEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create haccp event publisher")
	}
	inspectionPublisher, err := opsevents.NewInspectionEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create inspection event publisher")
	}
	documentPublisher, err := docevents.NewDocumentEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create document event publisher")
	}

	// Repositories
	userRepo := authrepo.NewUserRepository(db)
	sessionRepo := authrepo.NewSessionRepository(db)
	tenantRepo := billingrepo.NewTenantRepository(db)
	companyRepo := billingrepo.NewCompanyRepository(db)
	haccpDocRepo := haccprepo.NewDocumentRepository(db)
	productTypeRepo := haccprepo.NewProductTypeRepository(db)
	certificateRepo := haccprepo.NewCertificateRepository(db)
	ownerRepo := haccprepo.NewOwnerRepository(db)
	zoneRepo := opsrepo.NewZoneRepository(db)
	sopRepo := opsrepo.NewSopRepository(db)
	inspectionRepo := opsrepo.NewInspectionRepository(db)
	configRepo := opsrepo.NewConfigRepository(db)
	customerRepo := docrepo.NewCustomerRepository(db)
	vendorRepo := docrepo.NewVendorRepository(db)
	tenantEmailRepo := docrepo.NewTenantEmailRepository(db)
	orderRepo := docrepo.NewOrderRepository(db)
	fileRepo := docrepo.NewFileRepository(db)

	// Services
	jwtManager := jwt.NewManager(&cfg.JWT)
	authService := authservice.NewAuthService(userRepo, sessionRepo, jwtManager, log)
	userService := authservice.NewUserService(userRepo, sessionRepo, log)
	billingService := billingservice.NewBillingService(tenantRepo, cfg.Stripe, log, billingPublisher)
	webhookService := billingservice.NewWebhookService(tenantRepo, cfg.Stripe, log, billingPublisher)
	haccpService := haccpservice.NewDocumentService(haccpDocRepo, db, log, haccpPublisher)
	inspectionService := opsservice.NewInspectionService(inspectionRepo, sopRepo, configRepo, log, inspectionPublisher)
	archiveService := docservice.NewArchiveService(fileRepo, fileStore, mail, log, documentPublisher)
	orderService := docservice.NewOrderService(orderRepo, customerRepo, vendorRepo, tenantEmailRepo, archiveService, log, documentPublisher)

	// Event consumers
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	alertConsumer, err := notifications.NewAlertConsumer(rmq, companyRepo, tenantEmailRepo, mail, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create alert consumer")
	}
	if err := alertConsumer.Start(consumerCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to start alert consumer")
	}

	// Handlers
	authHandler := authhandler.NewAuthHandler(authService, log)
	userHandler := authhandler.NewUserHandler(userService, log)
	billingHandler := billinghandler.NewBillingHandler(billingService, log)
	webhookHandler := billinghandler.NewWebhookHandler(webhookService, log)
	companyHandler := billinghandler.NewCompanyHandler(companyRepo, log)
	adminHandler := billinghandler.NewAdminHandler(tenantRepo, log)
	haccpDocHandler := haccphandler.NewDocumentHandler(haccpService, log)
	productTypeHandler := haccphandler.NewProductTypeHandler(productTypeRepo, log)
	certificateHandler := haccphandler.NewCertificateHandler(certificateRepo, ownerRepo, log)
	inspectionHandler := opshandler.NewInspectionHandler(inspectionService, inspectionRepo, log)
	configHandler := opshandler.NewConfigHandler(configRepo, log)
	sopHandler := opshandler.NewSopHandler(sopRepo, zoneRepo, log)
	customerHandler := dochandler.NewCustomerHandler(customerRepo, log)
	vendorHandler := dochandler.NewVendorHandler(vendorRepo, log)
	tenantEmailHandler := dochandler.NewTenantEmailHandler(tenantEmailRepo, log)
	orderHandler := dochandler.NewOrderHandler(orderService, orderRepo, log)
	fileHandler := dochandler.NewFileHandler(archiveService, orderService, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS - supports subdomain-based multi-tenancy
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "http://localhost:3000" || origin == "http://localhost:5173" {
				return true
			}
			// Tenant subdomains in development and production
			if strings.HasSuffix(origin, ".localhost:3000") {
				return true
			}
			return strings.HasSuffix(origin, ".fishtech.io") || origin == "https://fishtech.io"
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "fishtech-server",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// Stripe webhooks authenticate by signature, not by session
	r.Post("/webhooks/stripe", webhookHandler.HandleStripe)

	r.Route("/api", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(authmw.Authenticate(jwtManager))
			r.Use(httputil.RequireTenant)

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			// Billing stays reachable with an expired subscription so
			// tenants can pay their way back in
			r.Route("/billing", func(r chi.Router) {
				r.Post("/checkout", billingHandler.Checkout)
				r.Post("/portal", billingHandler.Portal)
				r.Get("/status", billingHandler.Status)
			})

			// Admin-only management
			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAdmin)

				r.Route("/users", func(r chi.Router) {
					r.Get("/", userHandler.List)
					r.Post("/", userHandler.Create)
					r.Put("/{userID}", userHandler.Update)
					r.Delete("/{userID}", userHandler.Delete)
				})

				r.Get("/admin/tenants", adminHandler.ListTenants)
			})

			// Domain endpoints require a live trial or subscription
			r.Group(func(r chi.Router) {
				r.Use(billingmw.RequireValidSubscription(tenantRepo))

				r.Route("/companies", func(r chi.Router) {
					r.Get("/", companyHandler.List)
					r.Post("/", companyHandler.Create)

					// Everything under a facility id first proves the
					// facility belongs to the caller's tenant.
					r.Route("/{companyID}", func(r chi.Router) {
						r.Use(billingmw.RequireCompany(companyRepo))

						r.Get("/", companyHandler.Get)
						r.Put("/", companyHandler.Update)
						r.Delete("/", companyHandler.Delete)

						// Per-facility operation schedule and signers
						r.Route("/operations", func(r chi.Router) {
							r.Get("/config", configHandler.Get)
							r.Put("/config/schedule", configHandler.SaveSchedule)
							r.Put("/config/signers", configHandler.SaveSigners)
							r.Get("/holidays", configHandler.ListHolidays)
							r.Post("/holidays/toggle", configHandler.ToggleHoliday)
						})

						// Per-facility plan ownership and certificates
						r.Route("/haccp", func(r chi.Router) {
							r.Get("/owner", certificateHandler.GetOwner)
							r.Put("/owner", certificateHandler.SetOwner)
							r.Delete("/owner", certificateHandler.ClearOwner)
							r.Get("/certificates/{year}", certificateHandler.StatusMap)
							r.Get("/certificates/{year}/{certificateType}", certificateHandler.Get)
							r.Put("/certificates/{year}/{certificateType}", certificateHandler.Save)
						})

						r.Get("/product-types", productTypeHandler.ListForCompany)
						r.Put("/product-types/{slug}", productTypeHandler.SetCompanyLink)
					})
				})

				r.Route("/haccp", func(r chi.Router) {
					r.Route("/documents", func(r chi.Router) {
						r.Get("/current", haccpDocHandler.Current)
						r.Get("/history", haccpDocHandler.History)
						r.Get("/years", haccpDocHandler.Years)
						r.Get("/versions/{version}", haccpDocHandler.GetVersion)
						r.Post("/", haccpDocHandler.Save)
						r.Post("/generate", haccpDocHandler.GenerateVersion)
						r.Delete("/versions/{version}/{documentType}", haccpDocHandler.Delete)
						r.Get("/sync/{documentType}", haccpDocHandler.SyncSource)
					})

					r.Route("/product-types", func(r chi.Router) {
						r.Get("/", productTypeHandler.List)
						r.Post("/", productTypeHandler.Create)
						r.Get("/inactive", productTypeHandler.ListInactive)
						r.Get("/master", productTypeHandler.ListMaster)
						r.Get("/completed", productTypeHandler.CompletedSummary)
						r.Delete("/{slug}", productTypeHandler.Delete)
						r.Post("/{slug}/restore", productTypeHandler.Restore)
					})
				})

				r.Route("/operations", func(r chi.Router) {
					r.Route("/inspections", func(r chi.Router) {
						r.Post("/start", inspectionHandler.Start)
						r.Get("/", inspectionHandler.Get)
						r.Put("/{inspectionID}/results", inspectionHandler.SaveResults)
						r.Post("/{inspectionID}/complete", inspectionHandler.Complete)
						r.Post("/{inspectionID}/verify", inspectionHandler.Verify)
					})

					r.Get("/audit", inspectionHandler.Audit)
					r.Get("/calendar", inspectionHandler.Calendar)
					r.Get("/deviations", inspectionHandler.Deviations)
					r.Put("/deviations/{resultID}/corrective-action", inspectionHandler.SaveCorrectiveAction)

					r.Route("/sops", func(r chi.Router) {
						r.Get("/", sopHandler.List)
						r.Post("/", sopHandler.Create)
						r.Put("/{sopDID}", sopHandler.Update)
						r.Delete("/{sopDID}", sopHandler.Delete)
					})

					r.Route("/zones", func(r chi.Router) {
						r.Get("/", sopHandler.ListZones)
						r.Post("/", sopHandler.CreateZone)
						r.Put("/{zoneID}", sopHandler.RenameZone)
						r.Delete("/{zoneID}", sopHandler.DeleteZone)
					})
				})

				r.Route("/customers", func(r chi.Router) {
					r.Get("/", customerHandler.List)
					r.Post("/", customerHandler.Create)
					r.Get("/search", customerHandler.Search)
					r.Get("/{customerID}", customerHandler.Get)
					r.Put("/{customerID}", customerHandler.Update)
					r.Delete("/{customerID}", customerHandler.Delete)
					r.Get("/{customerID}/emails", customerHandler.ListEmails)
					r.Post("/{customerID}/emails", customerHandler.AddEmail)
					r.Delete("/{customerID}/emails/{emailID}", customerHandler.DeleteEmail)
				})

				r.Route("/vendors", func(r chi.Router) {
					r.Get("/", vendorHandler.List)
					r.Post("/", vendorHandler.Create)
					r.Get("/search", vendorHandler.Search)
					r.Get("/{vendorID}", vendorHandler.Get)
					r.Put("/{vendorID}", vendorHandler.Update)
					r.Delete("/{vendorID}", vendorHandler.Delete)
					r.Get("/{vendorID}/emails", vendorHandler.ListEmails)
					r.Post("/{vendorID}/emails", vendorHandler.AddEmail)
					r.Delete("/{vendorID}/emails/{emailID}", vendorHandler.DeleteEmail)
				})

				r.Route("/settings/emails", func(r chi.Router) {
					r.Get("/", tenantEmailHandler.List)
					r.Post("/", tenantEmailHandler.Add)
					r.Delete("/{emailID}", tenantEmailHandler.Delete)
				})

				r.Route("/sales-orders", func(r chi.Router) {
					r.Get("/", orderHandler.SearchSales)
					r.Post("/", orderHandler.CreateSales)
					r.Get("/{soid}", orderHandler.GetSales)
					r.Put("/{soid}", orderHandler.UpdateSales)
					r.Patch("/{soid}/flags", orderHandler.SetSalesFlags)
					r.Delete("/{soid}", orderHandler.DeleteSales)
					r.Get("/{soid}/pdf", orderHandler.RenderPDF)
				})

				r.Route("/purchase-orders", func(r chi.Router) {
					r.Get("/", orderHandler.SearchPurchase)
					r.Post("/", orderHandler.CreatePurchase)
					r.Get("/{poid}", orderHandler.GetPurchase)
					r.Put("/{poid}", orderHandler.UpdatePurchase)
					r.Patch("/{poid}/flags", orderHandler.SetPurchaseFlags)
					r.Delete("/{poid}", orderHandler.DeletePurchase)
					r.Get("/{poid}/pdf", orderHandler.RenderPDF)
				})

				r.Route("/documents", func(r chi.Router) {
					r.Route("/{documentType}/{documentID}/files", func(r chi.Router) {
						r.Get("/", fileHandler.List)
						r.Post("/", fileHandler.Upload)
						r.Get("/zip", fileHandler.ZipRecord)
					})
					r.Get("/files/{fileID}", fileHandler.Download)
					r.Delete("/files/{fileID}", fileHandler.Delete)
					r.Post("/files/zip", fileHandler.ZipFiles)
					r.Post("/email", fileHandler.Email)
				})
			})
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

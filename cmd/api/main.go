package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-pos-api/internal/handler"
	"go-pos-api/internal/middleware"
	"go-pos-api/internal/model"
	"go-pos-api/internal/pricing"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/service"
	"go-pos-api/internal/ws"
	"go-pos-api/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
	db.AutoMigrate(
		&model.Category{}, &model.Product{}, &model.Variant{},
		&model.Customer{}, &model.Supplier{},
		&model.Sale{}, &model.SaleItem{}, &model.Refund{}, &model.RefundItem{},
		&model.InventoryAdjustment{}, &model.LoyaltyReward{},
		&model.User{}, &model.Privilege{}, &model.Role{},
	)

	// 3. Seed default privileges, roles, and admin user
	seedPrivilegesRolesAndAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	loyaltyRepo := repository.NewLoyaltyRepo(db)
	reportRepo := repository.NewReportRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	pricingCfg := pricing.ConfigFromEnv()
	cartValidator := service.NewCartValidator(productRepo, customerRepo)

	saleService := service.NewSaleService(cartValidator, productRepo, customerRepo,
		saleRepo, inventoryRepo, loyaltyRepo, pricingCfg, db, wsHub)
	invService := service.NewInventoryService(productRepo, supplierRepo, inventoryRepo, db, wsHub)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, db)
	customerService := service.NewCustomerService(customerRepo, loyaltyRepo)
	reportService := service.NewReportService(reportRepo)
	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)

	saleHandler := handler.NewSaleHandler(saleService)
	invHandler := handler.NewInventoryHandler(invService, supplierRepo)
	productHandler := handler.NewProductHandler(catalogService)
	customerHandler := handler.NewCustomerHandler(customerService)
	reportHandler := handler.NewReportHandler(reportService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "POS Counter API v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	// Auth Routes (No authentication required)
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat) // Heartbeat uses Auth but available to all authenticated

	// ============ PROTECTED ROUTES ============
	// All routes below require authentication
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Sale Routes
	protected.Post("/sales", middleware.RequirePrivilege("sale:create"), saleHandler.CreateSale)
	protected.Post("/sales/cart/validate", middleware.RequirePrivilege("sale:create"), saleHandler.ValidateCart)
	protected.Get("/sales", middleware.RequirePrivilege("sale:view"), saleHandler.GetSales)
	protected.Get("/sales/:id", middleware.RequirePrivilege("sale:view"), saleHandler.GetSale)
	protected.Post("/sales/:id/refund", middleware.RequirePrivilege("sale:refund"), saleHandler.RefundSale)
	protected.Get("/sales/:id/refunds", middleware.RequirePrivilege("sale:view"), saleHandler.GetSaleRefunds)

	// Catalog Routes
	protected.Get("/products", middleware.RequirePrivilege("product:view"), productHandler.GetProducts)
	protected.Get("/products/:id", middleware.RequirePrivilege("product:view"), productHandler.GetProduct)
	protected.Post("/products", middleware.RequirePrivilege("product:create"), productHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege("product:update"), productHandler.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequirePrivilege("product:delete"), productHandler.DeleteProduct)
	protected.Post("/products/:id/variants", middleware.RequirePrivilege("product:create"), productHandler.CreateVariant)
	protected.Get("/categories", middleware.RequirePrivilege("product:view"), productHandler.GetCategories)
	protected.Post("/categories", middleware.RequirePrivilege("category:manage"), productHandler.CreateCategory)

	// Customer Routes
	protected.Get("/customers", middleware.RequirePrivilege("customer:view"), customerHandler.GetCustomers)
	protected.Get("/customers/:id", middleware.RequirePrivilege("customer:view"), customerHandler.GetCustomer)
	protected.Get("/customers/:id/loyalty", middleware.RequirePrivilege("customer:view"), customerHandler.GetLoyaltyHistory)
	protected.Post("/customers", middleware.RequirePrivilege("customer:manage"), customerHandler.CreateCustomer)
	protected.Put("/customers/:id", middleware.RequirePrivilege("customer:manage"), customerHandler.UpdateCustomer)
	protected.Delete("/customers/:id", middleware.RequirePrivilege("customer:manage"), customerHandler.DeleteCustomer)

	// Inventory Routes (ledger is append-only; stock moves only through these flows)
	protected.Get("/inventory/adjustments", middleware.RequirePrivilege("inventory:view"), invHandler.GetAdjustments)
	protected.Post("/inventory/adjustments", middleware.RequirePrivilege("inventory:adjust"), invHandler.AdjustStock)
	protected.Post("/inventory/purchases", middleware.RequirePrivilege("inventory:purchase"), invHandler.ReceivePurchase)
	protected.Get("/suppliers", middleware.RequirePrivilege("inventory:view"), invHandler.GetSuppliers)
	protected.Post("/suppliers", middleware.RequirePrivilege("supplier:manage"), invHandler.CreateSupplier)

	// Report Routes
	reports := protected.Group("/reports", middleware.RequirePrivilege("report:view"))
	reports.Get("/summary", reportHandler.GetSalesSummary)
	reports.Get("/sales-by-day", reportHandler.GetSalesByDay)
	reports.Get("/top-products", reportHandler.GetTopProducts)
	reports.Get("/inventory-valuation", reportHandler.GetInventoryValuation)
	reports.Get("/low-stock", reportHandler.GetLowStock)

	// User Management Routes (with privilege checks)
	protected.Get("/users", userHandler.GetUsers)
	protected.Get("/users/:id", userHandler.GetUser)
	protected.Post("/users", middleware.RequirePrivilege("user:create"), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequirePrivilege("user:update"), userHandler.UpdateUser)
	protected.Delete("/users/:id", middleware.RequirePrivilege("user:delete"), userHandler.DeleteUser)
	protected.Put("/users/:id/privileges", middleware.RequirePrivilege("user:update_privilege"), userHandler.UpdateUserPrivileges)

	// Role Routes
	protected.Get("/roles", roleHandler.GetRoles)

	// Privileges Route (list all available privileges)
	protected.Get("/privileges", func(c *fiber.Ctx) error {
		privileges, err := privilegeRepo.FindAll()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch privileges"})
		}
		return c.JSON(privileges)
	})

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedPrivilegesRolesAndAdmin creates default privileges, roles, and admin user if they don't exist
func seedPrivilegesRolesAndAdmin(db *gorm.DB) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 1. Seed privileges first
	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed privileges: %v", err)
	}

	// 2. Seed roles
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed roles: %v", err)
	}

	// 3. Assign privileges to roles
	allPrivileges, _ := privilegeRepo.FindAll()

	// ADMIN gets ALL privileges
	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err == nil && len(adminRole.Privileges) == 0 {
		db.Model(&adminRole).Association("Privileges").Replace(allPrivileges)
		log.Println("✅ ADMIN role assigned all privileges")
	}

	// MANAGER gets everything except user administration
	managerRole, err := roleRepo.FindByCode(model.RoleManager)
	if err == nil && len(managerRole.Privileges) == 0 {
		excluded := map[string]bool{}
		for _, code := range model.ManagerExcluded {
			excluded[code] = true
		}
		managerPrivileges := []model.Privilege{}
		for _, p := range allPrivileges {
			if !excluded[p.Code] {
				managerPrivileges = append(managerPrivileges, p)
			}
		}
		db.Model(&managerRole).Association("Privileges").Replace(managerPrivileges)
		log.Println("✅ MANAGER role assigned store privileges")
	}

	// CASHIER gets the sale-floor subset only
	cashierRole, err := roleRepo.FindByCode(model.RoleCashier)
	if err == nil && len(cashierRole.Privileges) == 0 {
		allowed := map[string]bool{}
		for _, code := range model.CashierPrivileges {
			allowed[code] = true
		}
		cashierPrivileges := []model.Privilege{}
		for _, p := range allPrivileges {
			if allowed[p.Code] {
				cashierPrivileges = append(cashierPrivileges, p)
			}
		}
		db.Model(&cashierRole).Association("Privileges").Replace(cashierPrivileges)
		log.Println("✅ CASHIER role assigned sale privileges")
	}

	// 4. Create default admin user with ADMIN role
	_, err = userRepo.FindByEmail("admin@example.com")
	if err != nil {
		adminRole, _ := roleRepo.FindByCode(model.RoleAdmin)

		admin := &model.User{
			Email:       "admin@example.com",
			FullName:    "Administrator",
			PhoneNumber: "",
			RoleID:      &adminRole.ID,
			IsActive:    true,
			Privileges:  adminRole.Privileges,
		}
		admin.CreatedBy = "system"
		admin.UpdatedBy = "system"

		if err := admin.SetPassword("admin123"); err != nil {
			log.Printf("Warning: Failed to hash admin password: %v", err)
			return
		}

		if err := userRepo.Create(admin); err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Println("✅ Admin user created: admin@example.com / admin123 (ADMIN)")
		}
	}
}

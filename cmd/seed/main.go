// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"procura/internal/core/id"
	"procura/internal/core/security"
	"procura/internal/infrastructure/storage/postgres"
	"procura/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect to database
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := seedRolesAndPermissions(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed roles and permissions", "error", err)
	}

	if _, err := seedAdminUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if err := seedFeatureFlags(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed feature flags", "error", err)
	}

	// Seed demo data if requested
	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// permissionSeed describes one permission row. Resource and action are
// derived from the code by splitting at the last colon.
type permissionSeed struct {
	code string
	name string
}

var permissionSeeds = []permissionSeed{
	{"catalog:unit:read", "Read units"},
	{"catalog:unit:create", "Create units"},
	{"catalog:unit:update", "Update units"},
	{"catalog:unit:delete", "Delete units"},
	{"catalog:product:read", "Read products"},
	{"catalog:product:create", "Create products"},
	{"catalog:product:update", "Update products"},
	{"catalog:product:delete", "Delete products"},
	{"catalog:customer:read", "Read customers"},
	{"catalog:customer:create", "Create customers"},
	{"catalog:customer:update", "Update customers"},
	{"catalog:customer:delete", "Delete customers"},
	{"catalog:supplier:read", "Read suppliers"},
	{"catalog:supplier:create", "Create suppliers"},
	{"catalog:supplier:update", "Update suppliers"},
	{"catalog:supplier:delete", "Delete suppliers"},
	{"document:customer_order:read", "Read customer orders"},
	{"document:customer_order:create", "Create customer orders"},
	{"document:customer_order:update", "Update customer orders"},
	{"document:customer_order:delete", "Delete customer orders"},
	{"document:customer_order:transition", "Transition customer orders"},
	{"document:purchase_order:read", "Read purchase orders"},
	{"document:purchase_order:cancel", "Cancel purchase orders"},
	{"document:purchase_order:send", "Send purchase orders"},
	{"planning:execute", "Run distribution planning"},
	{"planning:read", "Read distribution plans"},
	{"report:procurement:read", "Read procurement reports"},
	{"report:journal:read", "Read order journal"},
	{"dashboard:read", "Read dashboard"},
	{"audit:read", "Read audit history"},
	{"notification:read", "Read notifications"},
}

// roleSeeds lists the built-in roles. Grants reference permission codes;
// the admin role holds every permission on top of the is_admin bypass so
// role-based clients see the full set.
var roleSeeds = []struct {
	code   string
	name   string
	grants []string
}{
	{
		code: "admin",
		name: "Administrator",
	},
	{
		code: "planner",
		name: "Planner",
		grants: []string{
			"catalog:unit:read", "catalog:unit:create", "catalog:unit:update", "catalog:unit:delete",
			"catalog:product:read", "catalog:product:create", "catalog:product:update", "catalog:product:delete",
			"catalog:customer:read", "catalog:customer:create", "catalog:customer:update", "catalog:customer:delete",
			"catalog:supplier:read", "catalog:supplier:create", "catalog:supplier:update", "catalog:supplier:delete",
			"document:customer_order:read", "document:customer_order:create", "document:customer_order:update",
			"document:customer_order:delete", "document:customer_order:transition",
			"document:purchase_order:read", "document:purchase_order:cancel", "document:purchase_order:send",
			"planning:execute", "planning:read",
			"report:procurement:read", "report:journal:read",
			"dashboard:read", "notification:read",
		},
	},
	{
		code: "customer",
		name: "Customer",
		grants: []string{
			"catalog:unit:read", "catalog:product:read",
			"document:customer_order:read", "document:customer_order:create",
			"document:customer_order:update", "document:customer_order:transition",
			"notification:read",
		},
	},
	{
		code: "supplier",
		name: "Supplier",
		grants: []string{
			"document:purchase_order:read",
			"notification:read",
		},
	},
	{
		code: "viewer",
		name: "Viewer",
		grants: []string{
			"catalog:unit:read", "catalog:product:read",
			"catalog:customer:read", "catalog:supplier:read",
			"document:customer_order:read", "document:purchase_order:read",
			"planning:read",
			"report:procurement:read", "report:journal:read",
			"dashboard:read", "notification:read",
		},
	},
}

func seedRolesAndPermissions(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	// Permissions
	permIDs := make(map[string]id.ID, len(permissionSeeds))
	for _, p := range permissionSeeds {
		resource, action := splitPermissionCode(p.code)
		permID := id.New()
		tag, err := pool.Exec(ctx, `
			INSERT INTO permissions (id, code, name, description, resource, action, created_at)
			VALUES ($1, $2, $3, '', $4, $5, now())
			ON CONFLICT (code) DO NOTHING
		`, permID, p.code, p.name, resource, action)
		if err != nil {
			return fmt.Errorf("insert permission %s: %w", p.code, err)
		}
		if tag.RowsAffected() == 0 {
			if err := pool.QueryRow(ctx,
				`SELECT id FROM permissions WHERE code = $1`, p.code,
			).Scan(&permID); err != nil {
				return fmt.Errorf("fetch permission %s: %w", p.code, err)
			}
		}
		permIDs[p.code] = permID
	}

	// Roles and grants
	for _, r := range roleSeeds {
		roleID := id.New()
		tag, err := pool.Exec(ctx, `
			INSERT INTO roles (id, code, name, description, is_system, created_at, updated_at)
			VALUES ($1, $2, $3, '', true, now(), now())
			ON CONFLICT (code) DO NOTHING
		`, roleID, r.code, r.name)
		if err != nil {
			return fmt.Errorf("insert role %s: %w", r.code, err)
		}
		if tag.RowsAffected() == 0 {
			if err := pool.QueryRow(ctx,
				`SELECT id FROM roles WHERE code = $1`, r.code,
			).Scan(&roleID); err != nil {
				return fmt.Errorf("fetch role %s: %w", r.code, err)
			}
		}

		grants := r.grants
		if r.code == "admin" {
			grants = make([]string, 0, len(permissionSeeds))
			for _, p := range permissionSeeds {
				grants = append(grants, p.code)
			}
		}

		for _, code := range grants {
			permID, ok := permIDs[code]
			if !ok {
				return fmt.Errorf("role %s references unknown permission %s", r.code, code)
			}
			if _, err := pool.Exec(ctx, `
				INSERT INTO role_permissions (role_id, permission_id, created_at)
				VALUES ($1, $2, now())
				ON CONFLICT (role_id, permission_id) DO NOTHING
			`, roleID, permID); err != nil {
				return fmt.Errorf("grant %s to %s: %w", code, r.code, err)
			}
		}
	}

	log.Infow("roles and permissions seeded",
		"roles", len(roleSeeds),
		"permissions", len(permissionSeeds),
	)
	return nil
}

func splitPermissionCode(code string) (resource, action string) {
	idx := strings.LastIndex(code, ":")
	if idx < 0 {
		return code, ""
	}
	return code[:idx], code[idx+1:]
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@procura.io"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	// Check if admin already exists
	var existingID id.ID
	err := pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1 AND deleted_at IS NULL`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return existingID, nil
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check admin exists: %w", err)
	}

	// Hash password
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	now := time.Now()

	// Create admin user
	_, err = pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name,
			is_active, is_admin, email_verified, email_verified_at, version
		)
		VALUES ($1, $2, $3, 'System', 'Admin', true, true, true, $4, 1)
	`, userID, adminEmail, string(passwordHash), now)
	if err != nil {
		return id.Nil(), fmt.Errorf("insert admin user: %w", err)
	}

	// Assign admin role
	var adminRoleID id.ID
	err = pool.QueryRow(ctx,
		`SELECT id FROM roles WHERE code = 'admin'`,
	).Scan(&adminRoleID)
	if err != nil {
		log.Warnw("admin role not found, skipping role assignment", "error", err)
	} else {
		_, err = pool.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id, granted_by)
			VALUES ($1, $2, NULL)
			ON CONFLICT (user_id, role_id) DO NOTHING
		`, userID, adminRoleID)
		if err != nil {
			log.Warnw("failed to assign admin role", "error", err)
		}
	}

	log.Infow("admin user created",
		"email", adminEmail,
		"user_id", userID,
	)

	return userID, nil
}

func seedFeatureFlags(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	flags := []struct {
		name        string
		description string
		enabled     bool
	}{
		{security.FlagEmailNotifications, "Send email notifications for order events", true},
		{security.FlagSMSNotifications, "Send SMS notifications for order events", false},
		{security.FlagAutoRedistribute, "Redistribute rejected purchase orders automatically", true},
		{security.FlagAdvancedReports, "Enable capacity utilization and performance analytics", true},
	}

	for _, f := range flags {
		_, err := pool.Exec(ctx, `
			INSERT INTO sys_feature_flags (id, flag_name, description, is_enabled)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (flag_name) DO NOTHING
		`, id.New(), f.name, f.description, f.enabled)
		if err != nil {
			return fmt.Errorf("insert feature flag %s: %w", f.name, err)
		}
	}

	log.Infow("feature flags seeded", "count", len(flags))
	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	log.Info("seeding demo data...")

	// 1. Units
	type unitSeed struct {
		code      string
		name      string
		symbol    string
		precision int
	}

	units := []unitSeed{
		{"PCS", "Piece", "pcs", 0},
		{"KG", "Kilogram", "kg", 3},
		{"L", "Litre", "l", 2},
		{"M", "Metre", "m", 2},
		{"BOX", "Box", "box", 0},
	}

	unitIDs := make(map[string]id.ID)

	for _, u := range units {
		uid := id.New()
		tag, err := pool.Exec(ctx, `
			INSERT INTO cat_units (id, code, name, symbol, precision, version, deletion_mark, attributes)
			VALUES ($1, $2, $3, $4, $5, 1, false, '{}')
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, uid, u.code, u.name, u.symbol, u.precision)
		if err != nil {
			log.Warnw("failed to seed unit", "name", u.name, "error", err)
			continue
		}
		if tag.RowsAffected() == 0 {
			err = pool.QueryRow(ctx, `
				SELECT id FROM cat_units WHERE code = $1 AND deletion_mark = FALSE
			`, u.code).Scan(&uid)
			if err != nil {
				log.Warnw("failed to fetch existing unit id", "code", u.code, "error", err)
				continue
			}
		}
		unitIDs[u.code] = uid
	}

	// 2. Products
	type productSeed struct {
		code     string
		name     string
		sku      string
		category string
		unitCode string
		leadDays int
	}

	products := []productSeed{
		{"PRD-00001", "Hex bolt M8x40", "BOLT-M8-40", "component", "PCS", 5},
		{"PRD-00002", "Steel sheet 2mm", "SHEET-2MM", "raw", "KG", 10},
		{"PRD-00003", "Ball bearing 6204", "BRG-6204", "component", "PCS", 7},
		{"PRD-00004", "Gearbox housing", "GBX-HSG", "assembly", "PCS", 21},
		{"PRD-00005", "Hydraulic oil HLP 46", "OIL-HLP46", "raw", "L", 3},
		{"PRD-00006", "Conveyor roller 89mm", "ROLLER-89", "finished", "PCS", 14},
	}

	productIDs := make(map[string]id.ID)

	for _, p := range products {
		prodID := id.New()
		var unitIDValue interface{}
		if uid, ok := unitIDs[p.unitCode]; ok {
			unitIDValue = uid.String()
		}
		tag, err := pool.Exec(ctx, `
			INSERT INTO cat_products (id, code, name, sku, category, unit_id, default_lead_time_days, active, version, deletion_mark, attributes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, true, 1, false, '{}')
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, prodID, p.code, p.name, p.sku, p.category, unitIDValue, p.leadDays)
		if err != nil {
			log.Warnw("failed to seed product", "name", p.name, "error", err)
			continue
		}
		if tag.RowsAffected() == 0 {
			err = pool.QueryRow(ctx, `
				SELECT id FROM cat_products WHERE code = $1 AND deletion_mark = FALSE
			`, p.code).Scan(&prodID)
			if err != nil {
				log.Warnw("failed to fetch existing product id", "code", p.code, "error", err)
				continue
			}
		}
		productIDs[p.sku] = prodID
	}

	// 3. Customers
	customers := []struct {
		code    string
		name    string
		email   string
		contact string
	}{
		{"CUS-001", "Northwind Machines", "orders@northwind-machines.example", "Paula Verne"},
		{"CUS-002", "Baltic Conveyors", "purchasing@baltic-conveyors.example", "Jonas Kairys"},
		{"CUS-003", "Delta Assembly Works", "supply@delta-assembly.example", "Mina Okafor"},
	}

	for _, c := range customers {
		_, err := pool.Exec(ctx, `
			INSERT INTO cat_customers (id, code, name, email, contact_person, active, version, deletion_mark, attributes)
			VALUES ($1, $2, $3, $4, $5, true, 1, false, '{}')
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, id.New(), c.code, c.name, c.email, c.contact)
		if err != nil {
			log.Warnw("failed to seed customer", "name", c.name, "error", err)
		}
	}

	// 4. Suppliers
	type supplierSeed struct {
		code      string
		name      string
		email     string
		contact   string
		preferred bool
	}

	suppliers := []supplierSeed{
		{"SUP-001", "Apex Metalworks", "sales@apex-metalworks.example", "Ruth Calloway", true},
		{"SUP-002", "Borealis Components", "orders@borealis-components.example", "Einar Strand", false},
		{"SUP-003", "Crown Fasteners", "sales@crown-fasteners.example", "Dmitri Volkov", false},
		{"SUP-004", "Dorne Industrial", "contact@dorne-industrial.example", "Alma Reyes", false},
	}

	supplierIDs := make(map[string]id.ID)

	for _, s := range suppliers {
		supID := id.New()
		tag, err := pool.Exec(ctx, `
			INSERT INTO cat_suppliers (id, code, name, email, contact_person, preferred, active, version, deletion_mark, attributes)
			VALUES ($1, $2, $3, $4, $5, $6, true, 1, false, '{}')
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, supID, s.code, s.name, s.email, s.contact, s.preferred)
		if err != nil {
			log.Warnw("failed to seed supplier", "name", s.name, "error", err)
			continue
		}
		if tag.RowsAffected() == 0 {
			err = pool.QueryRow(ctx, `
				SELECT id FROM cat_suppliers WHERE code = $1 AND deletion_mark = FALSE
			`, s.code).Scan(&supID)
			if err != nil {
				log.Warnw("failed to fetch existing supplier id", "code", s.code, "error", err)
				continue
			}
		}
		supplierIDs[s.code] = supID
	}

	// 5. Supplier capabilities
	// Quality score and on-time rate are 0..1 fractions; unit price is in
	// minor currency units.
	type capabilitySeed struct {
		supplierCode string
		productSKU   string
		capacity     int64
		quality      string
		onTime       string
		leadDays     int
		minAlloc     int64
		unitPrice    int64
	}

	capabilities := []capabilitySeed{
		{"SUP-001", "BOLT-M8-40", 50000, "0.98", "0.97", 4, 1000, 12},
		{"SUP-001", "SHEET-2MM", 20000, "0.95", "0.93", 8, 500, 310},
		{"SUP-001", "GBX-HSG", 400, "0.97", "0.90", 18, 10, 84500},
		{"SUP-002", "BRG-6204", 12000, "0.96", "0.95", 6, 200, 450},
		{"SUP-002", "ROLLER-89", 3000, "0.92", "0.91", 12, 50, 2700},
		{"SUP-003", "BOLT-M8-40", 80000, "0.93", "0.99", 5, 5000, 10},
		{"SUP-003", "BRG-6204", 8000, "0.90", "0.88", 9, 500, 420},
		{"SUP-004", "SHEET-2MM", 35000, "0.91", "0.85", 11, 1000, 290},
		{"SUP-004", "OIL-HLP46", 15000, "0.99", "0.96", 2, 200, 610},
		{"SUP-004", "ROLLER-89", 1500, "0.94", "0.92", 15, 25, 2500},
	}

	seeded := 0
	for _, c := range capabilities {
		supID, okSup := supplierIDs[c.supplierCode]
		prodID, okProd := productIDs[c.productSKU]
		if !okSup || !okProd {
			continue
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO cat_supplier_capabilities (
				id, supplier_id, product_id, max_monthly_capacity,
				quality_score, on_time_rate, lead_time_days,
				min_allocation, unit_price, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (supplier_id, product_id) DO NOTHING
		`, id.New(), supID, prodID, c.capacity, c.quality, c.onTime, c.leadDays, c.minAlloc, c.unitPrice)
		if err != nil {
			log.Warnw("failed to seed capability",
				"supplier", c.supplierCode, "product", c.productSKU, "error", err)
			continue
		}
		seeded++
	}

	log.Infow("demo data seeded successfully", "capabilities", seeded)
	return nil
}

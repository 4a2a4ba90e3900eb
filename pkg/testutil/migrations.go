package testutil

// Test schema definitions. These mirror the production migrations in
// migrations/ and exist so integration tests can build a database from
// scratch without running the migration tooling. Keep both in sync.

// BaseMigrations returns the identity and billing tables shared by all domains.
func BaseMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			subdomain VARCHAR(100) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			subscription_status VARCHAR(50) NOT NULL DEFAULT 'trialing',
			trial_ends_at TIMESTAMPTZ,
			subscription_ends_at TIMESTAMPTZ,
			stripe_customer_id VARCHAR(255),
			stripe_subscription_id VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT tenants_subdomain_key UNIQUE (subdomain)
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(150) NOT NULL,
			email VARCHAR(255),
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			password_hash VARCHAR(255) NOT NULL,
			is_platform_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT users_username_key UNIQUE (username)
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			refresh_token_hash VARCHAR(64) NOT NULL,
			user_agent TEXT,
			ip_address TEXT,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_used_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			revoked_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS tenant_users (
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (tenant_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS companies (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			address TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT companies_tenant_name UNIQUE (tenant_id, name)
		)`,
	}
}

// HaccpMigrations returns the HACCP plan document tables.
func HaccpMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS haccp_product_types (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			slug VARCHAR(100) NOT NULL,
			name VARCHAR(255) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT haccp_product_types_tenant_slug UNIQUE (tenant_id, slug)
		)`,

		`CREATE TABLE IF NOT EXISTS haccp_documents (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			company_id UUID REFERENCES companies(id) ON DELETE CASCADE,
			product_type VARCHAR(100) NOT NULL,
			document_type VARCHAR(50) NOT NULL,
			year INT NOT NULL,
			version INT NOT NULL DEFAULT 1,
			status VARCHAR(20) NOT NULL DEFAULT 'not_started',
			document_data JSONB NOT NULL DEFAULT '{}',
			originated_date DATE,
			originated_by VARCHAR(255),
			approved_date DATE,
			approved_by VARCHAR(255),
			approval_signature TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT haccp_documents_set_version
				UNIQUE NULLS NOT DISTINCT (tenant_id, company_id, product_type, document_type, year, version)
		)`,

		`CREATE TABLE IF NOT EXISTS company_product_types (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			product_type VARCHAR(100) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			CONSTRAINT company_product_types_key UNIQUE (company_id, product_type)
		)`,

		`CREATE TABLE IF NOT EXISTS company_certificates (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			year INT NOT NULL,
			certificate_type VARCHAR(50) NOT NULL,
			issued_date DATE,
			signer_name VARCHAR(255),
			signature TEXT,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT company_certificates_key UNIQUE (company_id, year, certificate_type)
		)`,

		`CREATE TABLE IF NOT EXISTS company_haccp_owners (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			CONSTRAINT company_haccp_owners_company UNIQUE (company_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_haccp_documents_set
			ON haccp_documents(tenant_id, company_id, product_type, year, version)`,
	}
}

// OperationsMigrations returns the daily inspection scheduler tables.
func OperationsMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS zones (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS sops (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			sop_did INT NOT NULL,
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			zone_id UUID REFERENCES zones(id),
			description TEXT NOT NULL,
			is_pre_op BOOLEAN NOT NULL DEFAULT FALSE,
			is_mid_day BOOLEAN NOT NULL DEFAULT FALSE,
			is_post_op BOOLEAN NOT NULL DEFAULT FALSE,
			input_required BOOLEAN NOT NULL DEFAULT FALSE,
			image_required BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ,
			CONSTRAINT sops_tenant_did UNIQUE (tenant_id, sop_did)
		)`,

		`CREATE TABLE IF NOT EXISTS sop_parents (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			date DATE NOT NULL,
			shift VARCHAR(20) NOT NULL,
			time TIME,
			inspector_id UUID REFERENCES users(id),
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			inspector_name VARCHAR(255),
			inspector_signature TEXT,
			completed_at TIMESTAMPTZ,
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			verifier_name VARCHAR(255),
			verifier_signature TEXT,
			verified_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT sop_parents_company_date_shift UNIQUE (tenant_id, company_id, date, shift)
		)`,

		`CREATE TABLE IF NOT EXISTS sop_children (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			parent_id UUID NOT NULL REFERENCES sop_parents(id) ON DELETE CASCADE,
			sop_did INT NOT NULL,
			passed BOOLEAN,
			notes TEXT,
			deviation_reason TEXT,
			corrective_action TEXT,
			image_path TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT sop_children_parent_did UNIQUE (parent_id, sop_did)
		)`,

		`CREATE TABLE IF NOT EXISTS company_operation_configs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			monday BOOLEAN NOT NULL DEFAULT TRUE,
			tuesday BOOLEAN NOT NULL DEFAULT TRUE,
			wednesday BOOLEAN NOT NULL DEFAULT TRUE,
			thursday BOOLEAN NOT NULL DEFAULT TRUE,
			friday BOOLEAN NOT NULL DEFAULT TRUE,
			saturday BOOLEAN NOT NULL DEFAULT FALSE,
			sunday BOOLEAN NOT NULL DEFAULT FALSE,
			start_date DATE,
			monitor_id UUID REFERENCES users(id),
			verifier_id UUID REFERENCES users(id),
			monitor_signature TEXT,
			verifier_signature TEXT,
			CONSTRAINT company_operation_configs_company UNIQUE (company_id)
		)`,

		`CREATE TABLE IF NOT EXISTS company_holidays (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			date DATE NOT NULL,
			CONSTRAINT company_holidays_key UNIQUE (company_id, date)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sop_parents_lookup
			ON sop_parents(tenant_id, company_id, date, shift)`,
	}
}

// DocumentsMigrations returns the document archive and business record tables.
func DocumentsMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			customer_id VARCHAR(100) NOT NULL,
			name VARCHAR(255) NOT NULL,
			contact VARCHAR(255),
			email VARCHAR(255),
			phone VARCHAR(50),
			city VARCHAR(100),
			state VARCHAR(100),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT customers_tenant_code UNIQUE (tenant_id, customer_id)
		)`,

		`CREATE TABLE IF NOT EXISTS customer_emails (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			customer_id UUID NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
			email VARCHAR(255) NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS vendors (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			vendor_id VARCHAR(100) NOT NULL,
			name VARCHAR(255) NOT NULL,
			contact VARCHAR(255),
			email VARCHAR(255),
			phone VARCHAR(50),
			city VARCHAR(100),
			state VARCHAR(100),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT vendors_tenant_code UNIQUE (tenant_id, vendor_id)
		)`,

		`CREATE TABLE IF NOT EXISTS vendor_emails (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			vendor_id UUID NOT NULL REFERENCES vendors(id) ON DELETE CASCADE,
			email VARCHAR(255) NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS tenant_emails (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			email VARCHAR(255) NOT NULL,
			CONSTRAINT tenant_emails_key UNIQUE (tenant_id, email)
		)`,

		`CREATE TABLE IF NOT EXISTS sales_orders (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			soid VARCHAR(100) NOT NULL,
			company_id UUID REFERENCES companies(id),
			customer_id UUID REFERENCES customers(id),
			customer_po VARCHAR(100),
			dispatch_date DATE,
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			is_closed BOOLEAN NOT NULL DEFAULT FALSE,
			total_amount DECIMAL(12,2),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT sales_orders_tenant_soid UNIQUE (tenant_id, soid)
		)`,

		`CREATE TABLE IF NOT EXISTS purchase_orders (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			poid VARCHAR(100) NOT NULL,
			company_id UUID REFERENCES companies(id),
			vendor_id UUID REFERENCES vendors(id),
			order_date DATE,
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			is_closed BOOLEAN NOT NULL DEFAULT FALSE,
			total_amount DECIMAL(12,2),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT purchase_orders_tenant_poid UNIQUE (tenant_id, poid)
		)`,

		`CREATE TABLE IF NOT EXISTS document_files (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			document_type VARCHAR(50) NOT NULL,
			document_id VARCHAR(100) NOT NULL,
			filename VARCHAR(255) NOT NULL,
			file_path TEXT NOT NULL,
			file_type VARCHAR(10) NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT document_files_key UNIQUE (tenant_id, document_type, document_id, filename)
		)`,
	}
}

// tenantScopedTables lists every table carrying a tenant_id column, in an
// order safe for bulk deletion (children before parents).
var tenantScopedTables = []string{
	"document_files",
	"purchase_orders",
	"sales_orders",
	"tenant_emails",
	"vendor_emails",
	"vendors",
	"customer_emails",
	"customers",
	"company_holidays",
	"company_operation_configs",
	"sop_children",
	"sop_parents",
	"sops",
	"zones",
	"company_haccp_owners",
	"company_certificates",
	"company_product_types",
	"haccp_documents",
	"haccp_product_types",
	"companies",
	"tenant_users",
}

// RLSMigrations returns the row-level security policies that backstop the
// explicit tenant_id predicates in repositories. The policy permits rows of
// the tenant named by app.current_tenant, and everything when the setting is
// absent so that fixtures and migrations can run outside a tenant scope.
func RLSMigrations() []string {
	stmts := make([]string, 0, len(tenantScopedTables)*2)
	for _, table := range tenantScopedTables {
		stmts = append(stmts,
			"ALTER TABLE "+table+" ENABLE ROW LEVEL SECURITY",
			"CREATE POLICY "+table+"_tenant_isolation ON "+table+
				` USING (
					NULLIF(current_setting('app.current_tenant', true), '') IS NULL
					OR tenant_id = current_setting('app.current_tenant', true)::uuid
				)`,
		)
	}
	return stmts
}

// AllMigrations returns the complete schema in dependency order.
func AllMigrations() []string {
	stmts := make([]string, 0)
	stmts = append(stmts, BaseMigrations()...)
	stmts = append(stmts, HaccpMigrations()...)
	stmts = append(stmts, OperationsMigrations()...)
	stmts = append(stmts, DocumentsMigrations()...)
	stmts = append(stmts, RLSMigrations()...)
	return stmts
}

package postgresql

// migrations returns the schema migrations for the PostgreSQL backend,
// keyed by version.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS organizations (
				id UUID PRIMARY KEY,
				name VARCHAR(120) NOT NULL,
				owner_id TEXT NOT NULL,
				managers JSONB NOT NULL DEFAULT '[]',
				members JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS departments (
				id UUID PRIMARY KEY,
				organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
				name VARCHAR(120) NOT NULL,
				color VARCHAR(6) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE UNIQUE INDEX IF NOT EXISTS departments_org_name_key
				ON departments (organization_id, LOWER(TRIM(name)));

			CREATE TABLE IF NOT EXISTS roles (
				id UUID PRIMARY KEY,
				department_id UUID NOT NULL REFERENCES departments(id) ON DELETE CASCADE,
				name VARCHAR(120) NOT NULL,
				color VARCHAR(6) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE UNIQUE INDEX IF NOT EXISTS roles_department_name_key
				ON roles (department_id, LOWER(TRIM(name)));

			CREATE TABLE IF NOT EXISTS processes (
				id UUID PRIMARY KEY,
				organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
				title VARCHAR(120) NOT NULL,
				steps JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS processes_organization_idx
				ON processes (organization_id, updated_at DESC);
		`,
	}
}

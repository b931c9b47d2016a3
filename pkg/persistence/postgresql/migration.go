package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create memories table (append-only)
			CREATE TABLE memories (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				agent_type VARCHAR(255) NOT NULL,
				kind VARCHAR(50) NOT NULL,
				content JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_memories_scope ON memories(tenant_id, agent_type, created_at DESC);

			-- Create policies table
			CREATE TABLE policies (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				agent_type VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				active BOOLEAN NOT NULL DEFAULT false,
				priority INT NOT NULL DEFAULT 0,
				conditions JSONB NOT NULL DEFAULT '[]',
				actions JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_policies_tenant ON policies(tenant_id);
			CREATE INDEX idx_policies_scope ON policies(tenant_id, agent_type, active);

			-- Create tasks table
			CREATE TABLE tasks (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				agent_type VARCHAR(255) NOT NULL,
				goal TEXT NOT NULL,
				input JSONB,
				status VARCHAR(50) NOT NULL CHECK (status IN ('running', 'completed', 'error')),
				result JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_tasks_tenant ON tasks(tenant_id);
			CREATE INDEX idx_tasks_status ON tasks(status);

			-- Create workflows table
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				agent_type VARCHAR(255) NOT NULL,
				goal TEXT NOT NULL,
				plan JSONB NOT NULL DEFAULT '[]',
				current_step INT NOT NULL DEFAULT 0,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'in_progress', 'completed')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_tenant ON workflows(tenant_id);
			CREATE INDEX idx_workflows_status ON workflows(status);

			-- Create logs table (append-only)
			CREATE TABLE logs (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				agent_type VARCHAR(255) NOT NULL,
				workflow_id UUID,
				event_type VARCHAR(50) NOT NULL,
				detail JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_logs_tenant ON logs(tenant_id, created_at DESC);
			CREATE INDEX idx_logs_workflow ON logs(workflow_id);
		`,
	}
}

package model

// WorkspaceConnectionID identifies a linked Slack workspace
type WorkspaceConnectionID string

// WorkspaceConnection holds the credentials of a Slack workspace linked by one user
type WorkspaceConnection struct {
	ID            WorkspaceConnectionID
	OwnerUserID   UserID
	WorkspaceID   string
	WorkspaceName string
	AccessToken   string `masq:"secret"`
	Scope         string
}

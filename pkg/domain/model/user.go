package model

// UserID identifies an application user
type UserID string

// User is the owner identity known to the application. SlackUserID is the single
// authoritative source of the owner's linked Slack identity.
type User struct {
	ID          UserID
	Name        string
	Email       string
	SlackUserID string
}

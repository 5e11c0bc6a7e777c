package usecase

import "github.com/secmon-lab/reactask/pkg/domain/model"

// Ownership is the outcome of comparing a reaction's actor with the webhook owner
type Ownership int

const (
	// OwnershipUnset means the owner has no linked Slack user id
	OwnershipUnset Ownership = iota
	// OwnershipMismatch means someone other than the owner reacted
	OwnershipMismatch
	// OwnershipMatch means the owner reacted
	OwnershipMatch
)

func (o Ownership) String() string {
	switch o {
	case OwnershipUnset:
		return "unset"
	case OwnershipMismatch:
		return "mismatch"
	case OwnershipMatch:
		return "match"
	default:
		return "unknown"
	}
}

// CheckOwnership compares actor with the owner's Slack user id
func CheckOwnership(owner *model.User, actor string) Ownership {
	if owner == nil || owner.SlackUserID == "" {
		return OwnershipUnset
	}
	if owner.SlackUserID != actor {
		return OwnershipMismatch
	}
	return OwnershipMatch
}

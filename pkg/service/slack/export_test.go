package slack

// IsNotFound is exported for testing Slack error classification
var IsNotFound = isNotFound

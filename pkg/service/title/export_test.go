package title

var (
	CleanTitle      = cleanTitle
	BuildUserPrompt = buildUserPrompt
)

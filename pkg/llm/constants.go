package llm

// Role constants for the message pipeline.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Part Type constants define the supported message part formats.
const (
	PartTypeText  = "text"      // Plain text content
	PartTypeImage = "image_url" // Image attached as a data URL
)

// Dialect names. The URL suffix selects one of these at client construction.
const (
	DialectChat      = "chat"
	DialectLegacy    = "legacy"
	DialectResponses = "responses"
)

package domain

// ToolCategory groups tools by the kind of side effect they produce.
// Categories map one-to-one onto ActionType for audit classification.
type ToolCategory string

const (
	CategoryBooking      ToolCategory = "booking"
	CategoryNotification ToolCategory = "notification"
	CategoryTicket       ToolCategory = "ticket"
	CategorySearch       ToolCategory = "search"
	CategoryAPICall      ToolCategory = "api_call"
)

// ActionType returns the audit ActionType for this category.
func (c ToolCategory) ActionType() ActionType {
	return ActionType(c)
}

// ParamSpec declares one parameter a tool accepts.
type ParamSpec struct {
	Type        string `json:"type"` // "string", "number", "bool", "object"
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// ToolDefinition is registry metadata for one invocable action. Definitions
// are registered once at startup and never mutated at runtime.
type ToolDefinition struct {
	Name        string               `json:"name"`
	Category    ToolCategory         `json:"category"`
	Description string               `json:"description"`
	Provider    string               `json:"provider"` // "calendar", "mailer", "slack", "openai", "knowledge"
	Parameters  map[string]ParamSpec `json:"parameters"`
	OutputType  string               `json:"output_type"`
	Compensable bool                 `json:"compensable"`

	// CompensationTool names the tool that undoes this one. Empty for
	// irreversible tools (a sent email cannot be unsent).
	CompensationTool string `json:"compensation_tool,omitempty"`
}

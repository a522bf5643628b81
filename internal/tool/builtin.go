package tool

import "github.com/caldera-ai/concierge/internal/domain"

// Builtin returns the closed set of tool definitions shipped with the
// platform. Provider names here must match the adapters wired into the
// dispatcher at startup.
func Builtin() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        "calendar.create_booking",
			Category:    domain.CategoryBooking,
			Description: "Create a calendar booking with the tenant's booking service",
			Provider:    "calendar",
			Parameters: map[string]domain.ParamSpec{
				"date":       {Type: "string", Required: true, Description: "Booking date, YYYY-MM-DD"},
				"time":       {Type: "string", Required: false, Description: "Booking time, HH:MM"},
				"party_size": {Type: "number", Required: false},
				"notes":      {Type: "string", Required: false},
			},
			OutputType:       "booking",
			Compensable:      true,
			CompensationTool: "calendar.cancel_booking",
		},
		{
			Name:        "calendar.cancel_booking",
			Category:    domain.CategoryBooking,
			Description: "Cancel an existing calendar booking",
			Provider:    "calendar",
			Parameters: map[string]domain.ParamSpec{
				"booking_id": {Type: "string", Required: true},
				"reason":     {Type: "string", Required: false},
			},
			OutputType: "booking",
		},
		{
			Name:        "email.send",
			Category:    domain.CategoryNotification,
			Description: "Send an email through the tenant's mail service",
			Provider:    "mailer",
			Parameters: map[string]domain.ParamSpec{
				"to":      {Type: "string", Required: true},
				"subject": {Type: "string", Required: true},
				"body":    {Type: "string", Required: true},
			},
			OutputType: "message",
		},
		{
			Name:        "message.send",
			Category:    domain.CategoryNotification,
			Description: "Post a message to the tenant's messaging workspace",
			Provider:    "slack",
			Parameters: map[string]domain.ParamSpec{
				"channel": {Type: "string", Required: true},
				"text":    {Type: "string", Required: true},
			},
			OutputType: "message",
		},
		{
			Name:        "ticket.open",
			Category:    domain.CategoryTicket,
			Description: "Open a support ticket via the tenant's helpdesk inbox",
			Provider:    "mailer",
			Parameters: map[string]domain.ParamSpec{
				"subject": {Type: "string", Required: true},
				"body":    {Type: "string", Required: true},
			},
			OutputType: "ticket",
		},
		{
			Name:        "audio.transcribe",
			Category:    domain.CategoryAPICall,
			Description: "Transcribe a voice message to text",
			Provider:    "openai",
			Parameters: map[string]domain.ParamSpec{
				"audio_url": {Type: "string", Required: true},
			},
			OutputType: "transcript",
		},
		{
			Name:        "image.analyze",
			Category:    domain.CategoryAPICall,
			Description: "Describe the contents of an image",
			Provider:    "openai",
			Parameters: map[string]domain.ParamSpec{
				"image_url": {Type: "string", Required: true},
				"prompt":    {Type: "string", Required: false},
			},
			OutputType: "analysis",
		},
		{
			Name:        "knowledge.search",
			Category:    domain.CategorySearch,
			Description: "Search the tenant's knowledge base",
			Provider:    "knowledge",
			Parameters: map[string]domain.ParamSpec{
				"query": {Type: "string", Required: true},
				"limit": {Type: "number", Required: false},
			},
			OutputType: "documents",
		},
	}
}

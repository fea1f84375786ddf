package notification

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes {{field}} placeholders from the payload. A field the
// payload does not carry renders as an empty string, not an error.
func Render(template string, payload map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		field := strings.Trim(match, "{}")
		return payload[field]
	})
}

// messageTemplate pairs the title and body for one notification type
type messageTemplate struct {
	title string
	body  string
}

var templates = map[Type]messageTemplate{
	TypeShiftOffered: {
		title: "Shift offered: {{position}}",
		body:  "You've been offered a {{position}} shift at {{restaurant}} on {{date}} from {{startTime}} to {{endTime}}.",
	},
	TypeShiftCancelled: {
		title: "Shift cancelled",
		body:  "Your {{position}} shift at {{restaurant}} on {{date}} was cancelled. {{reason}}",
	},
	TypeShiftReminder: {
		title: "Upcoming shift reminder",
		body:  "Your {{position}} shift at {{restaurant}} starts at {{startTime}}.",
	},
	TypeClaimSubmitted: {
		title: "New claim on {{position}}",
		body:  "{{workerName}} claimed the {{position}} shift on {{date}}. Review it in the schedule.",
	},
	TypeClaimApproved: {
		title: "You got the shift!",
		body:  "Your claim for the {{position}} shift at {{restaurant}} on {{date}} was approved.",
	},
	TypeClaimRejected: {
		title: "Shift claim update",
		body:  "Your claim for the {{position}} shift on {{date}} was not approved. {{reason}}",
	},
	TypeSwapRequested: {
		title: "Shift swap request",
		body:  "{{workerName}} wants to swap their {{position}} shift on {{date}}. {{message}}",
	},
	TypeSwapAccepted: {
		title: "Swap accepted",
		body:  "Your swap for the {{position}} shift on {{date}} was accepted by {{workerName}}.",
	},
	TypeSwapRejected: {
		title: "Swap declined",
		body:  "Your swap request for the {{position}} shift on {{date}} was declined.",
	},
}

// RenderMessage produces the title and body for an intent. Unknown types get
// a generic message so a new event type never silently drops.
func RenderMessage(intent Intent) (title, body string) {
	tmpl, ok := templates[intent.Type]
	if !ok {
		return string(intent.Type), Render("Update for {{position}} on {{date}}.", intent.Payload)
	}
	return Render(tmpl.title, intent.Payload), Render(tmpl.body, intent.Payload)
}

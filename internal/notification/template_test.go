package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		payload  map[string]string
		expected string
	}{
		{
			name:     "substitutes fields",
			template: "Shift at {{restaurant}} on {{date}}",
			payload:  map[string]string{"restaurant": "Harbor Grill", "date": "March 10"},
			expected: "Shift at Harbor Grill on March 10",
		},
		{
			name:     "missing field renders empty",
			template: "Hello {{name}}, shift {{when}}",
			payload:  map[string]string{"name": "Sam"},
			expected: "Hello Sam, shift ",
		},
		{
			name:     "nil payload",
			template: "Reminder: {{position}}",
			payload:  nil,
			expected: "Reminder: ",
		},
		{
			name:     "no placeholders",
			template: "Plain message",
			payload:  map[string]string{"unused": "x"},
			expected: "Plain message",
		},
		{
			name:     "repeated placeholder",
			template: "{{x}} and {{x}}",
			payload:  map[string]string{"x": "twice"},
			expected: "twice and twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.template, tt.payload))
		})
	}
}

func TestRenderMessage(t *testing.T) {
	intent := NewIntent("user-1", TypeClaimApproved, UrgencyHigh, "shift-1", map[string]string{
		"position":   "server",
		"restaurant": "Harbor Grill",
		"date":       "March 12",
	})

	title, body := RenderMessage(intent)
	assert.Equal(t, "You got the shift!", title)
	assert.Contains(t, body, "server")
	assert.Contains(t, body, "Harbor Grill")
}

func TestRenderMessage_UnknownType(t *testing.T) {
	intent := NewIntent("user-1", Type("SOMETHING_NEW"), UrgencyNormal, "e-1", nil)

	title, _ := RenderMessage(intent)
	assert.Equal(t, "SOMETHING_NEW", title)
}

package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWelcome(t *testing.T) {
	msg, err := Render("user_welcome.tmpl", map[string]any{
		"firstName":       "Ada",
		"userID":          42,
		"activationToken": "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Welcome to your music lessons!", msg.Subject)
	assert.Contains(t, msg.PlainBody, "Your user ID number is 42.")
	assert.Contains(t, msg.PlainBody, `{"token": "ABCDEFGHIJKLMNOPQRSTUVWXYZ"}`)
	assert.Contains(t, msg.HTMLBody, "<p>Hi Ada,</p>")
}

func TestRenderAssignmentEscapesHTML(t *testing.T) {
	msg, err := Render("assignment_created.tmpl", map[string]any{
		"firstName":   "Sam",
		"teacherName": "Jo",
		"title":       "Scales <b>daily</b>",
		"priority":    "high",
		"dueDate":     "",
		"description": "Ten minutes a day.",
	})
	require.NoError(t, err)

	assert.Equal(t, "New assignment: Scales &lt;b&gt;daily&lt;/b&gt;", msg.Subject)
	assert.NotContains(t, msg.PlainBody, "Due:")
	assert.Contains(t, msg.HTMLBody, "Priority: high")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render("missing.tmpl", nil)
	assert.Error(t, err)
}

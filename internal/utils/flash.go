package utils

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/Deepee26/TMS/internal/constants"
)

// FlashMessage is a one-shot message stored in the session and cleared the
// first time it is surfaced.
type FlashMessage struct {
	Kind    string `json:"kind"` // "success" or "error"
	Message string `json:"message"`
}

// AddFlash appends a message to the session. Save errors are ignored here;
// losing a flash message must not fail the action that produced it.
func AddFlash(c *gin.Context, kind, message string) {
	session := sessions.Default(c)
	session.AddFlash(kind+"|"+message, constants.SessionKeyFlash)
	_ = session.Save()
}

// ConsumeFlashes returns all pending messages and clears them.
func ConsumeFlashes(c *gin.Context) []FlashMessage {
	session := sessions.Default(c)
	raw := session.Flashes(constants.SessionKeyFlash)
	if len(raw) > 0 {
		_ = session.Save()
	}

	messages := make([]FlashMessage, 0, len(raw))
	for _, r := range raw {
		s, ok := r.(string)
		if !ok {
			continue
		}
		kind, msg := "success", s
		for i := 0; i < len(s); i++ {
			if s[i] == '|' {
				kind, msg = s[:i], s[i+1:]
				break
			}
		}
		messages = append(messages, FlashMessage{Kind: kind, Message: msg})
	}
	return messages
}

// Package flash carries one-shot user messages across a redirect in a
// signed session cookie.
package flash

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const sessionName = "flash"

// Level is the severity of a message, used as its CSS class
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

// Message is a single flash message
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

func init() {
	gob.Register(Message{})
}

// NewStore returns a cookie store signing flash sessions with secret.
// The cookie lives until the browser closes.
func NewStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Middleware makes store available to Add and Pop
func Middleware(store sessions.Store) echo.MiddlewareFunc {
	return session.Middleware(store)
}

// Add queues a message for the next rendered page
func Add(c echo.Context, level Level, text string) {
	sess := get(c)
	if sess == nil {
		return
	}
	sess.AddFlash(Message{Level: level, Text: text})
	_ = sess.Save(c.Request(), c.Response())
}

// Pop returns every queued message and clears them
func Pop(c echo.Context) []Message {
	sess := get(c)
	if sess == nil {
		return nil
	}
	values := sess.Flashes()
	if len(values) == 0 {
		return nil
	}

	msgs := make([]Message, 0, len(values))
	for _, v := range values {
		if m, ok := v.(Message); ok {
			msgs = append(msgs, m)
		}
	}
	_ = sess.Save(c.Request(), c.Response())
	return msgs
}

// get loads the flash session. A cookie failing verification yields a new
// empty session; nil means no store was installed.
func get(c echo.Context) *sessions.Session {
	sess, _ := session.Get(sessionName, c)
	return sess
}

package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

const (
	cartCookie = "cart_session"
	userCookie = "sess"
)

func (s *Server) sign(payload []byte) string {
	h := hmac.New(sha256.New, s.key)
	h.Write(payload)
	sig := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	return sig + "." + base64.RawURLEncoding.EncodeToString(payload)
}

func (s *Server) verify(value string) []byte {
	var sig, payload []byte
	for i := 0; i < len(value); i++ {
		if value[i] == '.' {
			sig, _ = base64.RawURLEncoding.DecodeString(value[:i])
			payload, _ = base64.RawURLEncoding.DecodeString(value[i+1:])
			break
		}
	}
	if payload == nil {
		return nil
	}
	h := hmac.New(sha256.New, s.key)
	h.Write(payload)
	if !hmac.Equal(sig, h.Sum(nil)) {
		return nil
	}
	return payload
}

// cartSession returns the caller's anonymous session key. When none exists a
// new one is minted and set as a signed cookie; repeated calls on the same
// request chain reuse the existing key.
func (s *Server) cartSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(cartCookie); err == nil && c.Value != "" {
		if payload := s.verify(c.Value); payload != nil {
			return string(payload)
		}
	}
	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookie,
		Value:    s.sign([]byte(sid)),
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

// peekCartSession reads the session key without creating one.
func (s *Server) peekCartSession(r *http.Request) string {
	c, err := r.Cookie(cartCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	if payload := s.verify(c.Value); payload != nil {
		return string(payload)
	}
	return ""
}

type sessionUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Staff bool      `json:"staff"`
}

func (s *Server) writeUserSession(w http.ResponseWriter, u *sessionUser) {
	if u == nil {
		http.SetCookie(w, &http.Cookie{Name: userCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
		return
	}
	b, _ := json.Marshal(u)
	http.SetCookie(w, &http.Cookie{
		Name:     userCookie,
		Value:    s.sign(b),
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) readUserSession(r *http.Request) *sessionUser {
	c, err := r.Cookie(userCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	payload := s.verify(c.Value)
	if payload == nil {
		return nil
	}
	var u sessionUser
	if err := json.Unmarshal(payload, &u); err != nil {
		return nil
	}
	if u.Email == "" || u.ID == uuid.Nil {
		return nil
	}
	return &u
}

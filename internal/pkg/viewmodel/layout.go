package viewmodel

import "github.com/gofiber/fiber/v2"

// Layout is what the page chrome needs on every request.
type Layout struct {
	Page          string
	SiteTitle     string
	FromProtected bool
	IsError       bool
	Msg           fiber.Map
	Username      string
	IsAdmin       bool
	CSRF          string
	IsDev         bool
}

// Title is the document title, e.g. "Gallery | PixelProof"
func (l Layout) Title() string {
	if l.Page == "" {
		return l.SiteTitle
	}
	return l.Page + " | " + l.SiteTitle
}

// FlashType returns the type of the flash message, if any
func (l Layout) FlashType() string {
	if l.Msg == nil {
		return ""
	}
	if t, ok := l.Msg["type"].(string); ok {
		return t
	}
	return ""
}

// FlashMessage returns the text of the flash message, if any
func (l Layout) FlashMessage() string {
	if l.Msg == nil {
		return ""
	}
	if m, ok := l.Msg["message"].(string); ok {
		return m
	}
	return ""
}

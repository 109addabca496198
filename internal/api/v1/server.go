// Package apiv1 is the JSON API of the client gallery. The routes and wire
// types follow public/docs/v1/openapi.yml.
package apiv1

import (
	"github.com/gofiber/fiber/v2"
)

// Pong defines model for Pong.
type Pong struct {
	Ping string `json:"ping"`
}

// Error defines model for Error.
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// LoginRequest defines model for LoginRequest.
type LoginRequest struct {
	Code string `json:"code"`
}

// SortRequest defines model for SortRequest.
type SortRequest struct {
	Sort string `json:"sort"`
}

// PageRequest defines model for PageRequest.
type PageRequest struct {
	Page int `json:"page"`
}

// PhotoRequest defines model for PhotoRequest.
type PhotoRequest struct {
	ID string `json:"id"`
}

// KeyRequest defines model for KeyRequest.
type KeyRequest struct {
	Key string `json:"key"`
}

// DraftRequest defines model for DraftRequest.
type DraftRequest struct {
	ClientName string `json:"client_name"`
	Notes      string `json:"notes"`
}

// SubmitRequest defines model for SubmitRequest.
type SubmitRequest struct {
	ClientName string `json:"client_name"`
	Notes      string `json:"notes"`
	AIMessage  string `json:"ai_message"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /ping)
	GetPing(c *fiber.Ctx) error
	// (POST /gallery/login)
	PostGalleryLogin(c *fiber.Ctx) error
	// (POST /gallery/logout)
	PostGalleryLogout(c *fiber.Ctx) error
	// (GET /gallery)
	GetGallery(c *fiber.Ctx) error
	// (PUT /gallery/sort)
	PutGallerySort(c *fiber.Ctx) error
	// (PUT /gallery/page)
	PutGalleryPage(c *fiber.Ctx) error
	// (POST /gallery/selection/toggle)
	PostGallerySelectionToggle(c *fiber.Ctx) error
	// (POST /gallery/selection/all)
	PostGallerySelectionAll(c *fiber.Ctx) error
	// (DELETE /gallery/selection)
	DeleteGallerySelection(c *fiber.Ctx) error
	// (POST /gallery/lightbox/key)
	PostGalleryLightboxKey(c *fiber.Ctx) error
	// (POST /gallery/lightbox/{action})
	PostGalleryLightboxAction(c *fiber.Ctx, action string) error
	// (GET /gallery/review)
	GetGalleryReview(c *fiber.Ctx) error
	// (POST /gallery/draft)
	PostGalleryDraft(c *fiber.Ctx) error
	// (POST /gallery/submit)
	PostGallerySubmit(c *fiber.Ctx) error
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// MiddlewareFunc is a middleware applied to every route.
type MiddlewareFunc fiber.Handler

func (siw *ServerInterfaceWrapper) GetPing(c *fiber.Ctx) error {
	return siw.Handler.GetPing(c)
}

func (siw *ServerInterfaceWrapper) PostGalleryLogin(c *fiber.Ctx) error {
	return siw.Handler.PostGalleryLogin(c)
}

func (siw *ServerInterfaceWrapper) PostGalleryLogout(c *fiber.Ctx) error {
	return siw.Handler.PostGalleryLogout(c)
}

func (siw *ServerInterfaceWrapper) GetGallery(c *fiber.Ctx) error {
	return siw.Handler.GetGallery(c)
}

func (siw *ServerInterfaceWrapper) PutGallerySort(c *fiber.Ctx) error {
	return siw.Handler.PutGallerySort(c)
}

func (siw *ServerInterfaceWrapper) PutGalleryPage(c *fiber.Ctx) error {
	return siw.Handler.PutGalleryPage(c)
}

func (siw *ServerInterfaceWrapper) PostGallerySelectionToggle(c *fiber.Ctx) error {
	return siw.Handler.PostGallerySelectionToggle(c)
}

func (siw *ServerInterfaceWrapper) PostGallerySelectionAll(c *fiber.Ctx) error {
	return siw.Handler.PostGallerySelectionAll(c)
}

func (siw *ServerInterfaceWrapper) DeleteGallerySelection(c *fiber.Ctx) error {
	return siw.Handler.DeleteGallerySelection(c)
}

func (siw *ServerInterfaceWrapper) PostGalleryLightboxKey(c *fiber.Ctx) error {
	return siw.Handler.PostGalleryLightboxKey(c)
}

// PostGalleryLightboxAction operation middleware
func (siw *ServerInterfaceWrapper) PostGalleryLightboxAction(c *fiber.Ctx) error {
	action := c.Params("action")
	if action == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid format for parameter action")
	}
	return siw.Handler.PostGalleryLightboxAction(c, action)
}

func (siw *ServerInterfaceWrapper) GetGalleryReview(c *fiber.Ctx) error {
	return siw.Handler.GetGalleryReview(c)
}

func (siw *ServerInterfaceWrapper) PostGalleryDraft(c *fiber.Ctx) error {
	return siw.Handler.PostGalleryDraft(c)
}

func (siw *ServerInterfaceWrapper) PostGallerySubmit(c *fiber.Ctx) error {
	return siw.Handler.PostGallerySubmit(c)
}

// FiberServerOptions provides options for the Fiber server.
type FiberServerOptions struct {
	BaseURL     string
	Middlewares []MiddlewareFunc
}

// RegisterHandlers creates http.Handler with routing matching OpenAPI spec.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	RegisterHandlersWithOptions(router, si, FiberServerOptions{})
}

// RegisterHandlersWithOptions creates http.Handler with additional options
func RegisterHandlersWithOptions(router fiber.Router, si ServerInterface, options FiberServerOptions) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	for _, m := range options.Middlewares {
		router.Use(fiber.Handler(m))
	}

	router.Get(options.BaseURL+"/ping", wrapper.GetPing)
	router.Post(options.BaseURL+"/gallery/login", wrapper.PostGalleryLogin)
	router.Post(options.BaseURL+"/gallery/logout", wrapper.PostGalleryLogout)
	router.Get(options.BaseURL+"/gallery", wrapper.GetGallery)
	router.Put(options.BaseURL+"/gallery/sort", wrapper.PutGallerySort)
	router.Put(options.BaseURL+"/gallery/page", wrapper.PutGalleryPage)
	router.Post(options.BaseURL+"/gallery/selection/toggle", wrapper.PostGallerySelectionToggle)
	router.Post(options.BaseURL+"/gallery/selection/all", wrapper.PostGallerySelectionAll)
	router.Delete(options.BaseURL+"/gallery/selection", wrapper.DeleteGallerySelection)
	router.Post(options.BaseURL+"/gallery/lightbox/key", wrapper.PostGalleryLightboxKey)
	router.Post(options.BaseURL+"/gallery/lightbox/:action", wrapper.PostGalleryLightboxAction)
	router.Get(options.BaseURL+"/gallery/review", wrapper.GetGalleryReview)
	router.Post(options.BaseURL+"/gallery/draft", wrapper.PostGalleryDraft)
	router.Post(options.BaseURL+"/gallery/submit", wrapper.PostGallerySubmit)
}

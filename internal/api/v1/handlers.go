package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/ManuelReschke/PixelProof/app/controllers"
)

// APIServer implements the ServerInterface
type APIServer struct{}

var _ ServerInterface = (*APIServer)(nil)

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// bindJSON parses a JSON body. Other content types are refused so plain
// cross-site form posts cannot drive the gallery.
func bindJSON(c *fiber.Ctx, out interface{}) (bool, error) {
	if !c.Is("json") {
		return false, c.Status(fiber.StatusUnsupportedMediaType).JSON(Error{
			Error:   "unsupported_media_type",
			Message: "Content-Type must be application/json",
		})
	}
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(Error{
			Error:   "invalid_body",
			Message: "Invalid JSON body",
		})
	}
	return true, nil
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (s *APIServer) PostGalleryLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	return controllers.APIGalleryLogin(c, req.Code)
}

func (s *APIServer) PostGalleryLogout(c *fiber.Ctx) error {
	return controllers.APIGalleryLogout(c)
}

func (s *APIServer) GetGallery(c *fiber.Ctx) error {
	return controllers.APIGalleryState(c)
}

func (s *APIServer) PutGallerySort(c *fiber.Ctx) error {
	var req SortRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	return controllers.APIGallerySort(c, req.Sort)
}

func (s *APIServer) PutGalleryPage(c *fiber.Ctx) error {
	var req PageRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	return controllers.APIGalleryPage(c, req.Page)
}

func (s *APIServer) PostGallerySelectionToggle(c *fiber.Ctx) error {
	var req PhotoRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	return controllers.APIGalleryToggle(c, req.ID)
}

func (s *APIServer) PostGallerySelectionAll(c *fiber.Ctx) error {
	return controllers.APIGallerySelectAll(c)
}

func (s *APIServer) DeleteGallerySelection(c *fiber.Ctx) error {
	return controllers.APIGalleryDeselectAll(c)
}

func (s *APIServer) PostGalleryLightboxKey(c *fiber.Ctx) error {
	var req KeyRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	return controllers.APIGalleryKey(c, req.Key)
}

// PostGalleryLightboxAction runs open, next, prev, close or toggle. Only
// open reads a body.
func (s *APIServer) PostGalleryLightboxAction(c *fiber.Ctx, action string) error {
	var req PhotoRequest
	if action == "open" {
		if ok, err := bindJSON(c, &req); !ok {
			return err
		}
	}
	return controllers.APIGalleryLightbox(c, action, req.ID)
}

func (s *APIServer) GetGalleryReview(c *fiber.Ctx) error {
	return controllers.APIGalleryReview(c)
}

func (s *APIServer) PostGalleryDraft(c *fiber.Ctx) error {
	var req DraftRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	return controllers.APIGalleryDraft(c, req.ClientName, req.Notes)
}

func (s *APIServer) PostGallerySubmit(c *fiber.Ctx) error {
	var req SubmitRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	return controllers.APIGallerySubmit(c, req.ClientName, req.Notes, req.AIMessage)
}

package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/internal/pkg/draft"
	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
	"github.com/ManuelReschke/PixelProof/internal/pkg/submission"
	"github.com/ManuelReschke/PixelProof/internal/pkg/viewmodel"
)

const draftInputMessage = "Please enter your name and notes to create a draft."

func renderReview(c *fiber.Ctx, s *gallery.Session, form viewmodel.Review) error {
	event, _ := s.Event()
	form.Event = event
	form.Photos = s.Review()
	s.TakeEffects()
	return render(c, "gallery/review", "Review selection", layoutPublic, fiber.Map{
		"Review": form,
	})
}

// HandleReview lists the selected photos in the current sort order.
func HandleReview(c *fiber.Ctx) error {
	s, err := currentGallery(c)
	if err != nil {
		return err
	}
	if _, ok := s.Event(); !ok {
		return c.Redirect(pathStart, fiber.StatusSeeOther)
	}
	s.LeaveGallery()
	return renderReview(c, s, viewmodel.Review{})
}

// HandleReviewDraft fills the message field with a generated draft.
func HandleReviewDraft(c *fiber.Ctx) error {
	s, err := currentGallery(c)
	if err != nil {
		return err
	}
	if _, ok := s.Event(); !ok {
		return c.Redirect(pathStart, fiber.StatusSeeOther)
	}

	form := viewmodel.Review{
		ClientName: c.FormValue("client_name"),
		Notes:      c.FormValue("notes"),
		AIMessage:  c.FormValue("ai_message"),
	}
	text, err := draftMessage(c.UserContext(), s, form.ClientName, form.Notes)
	if errors.Is(err, draft.ErrMissingInput) {
		form.Error = draftInputMessage
		return renderReview(c, s, form)
	}
	form.AIMessage = text
	return renderReview(c, s, form)
}

// HandleReviewSubmit sends the selection and shows the delivery options.
func HandleReviewSubmit(c *fiber.Ctx) error {
	s, err := currentGallery(c)
	if err != nil {
		return err
	}
	if _, ok := s.Event(); !ok {
		return c.Redirect(pathStart, fiber.StatusSeeOther)
	}

	form := viewmodel.Review{
		ClientName: c.FormValue("client_name"),
		Notes:      c.FormValue("notes"),
		AIMessage:  c.FormValue("ai_message"),
	}
	receipt, photos, err := submitSelection(c.UserContext(), s, form.ClientName, form.Notes, form.AIMessage)
	if err != nil {
		form.Error = submission.UserMessage(err)
		c.Status(fiber.StatusUnprocessableEntity)
		return renderReview(c, s, form)
	}

	return render(c, "gallery/submitted", "Thank you", layoutPublic, fiber.Map{
		"Delivery": delivery(receipt, form.ClientName, form.Notes, photos),
	})
}

func delivery(receipt *submission.Receipt, clientName, notes string, photos []gallery.Photo) viewmodel.Delivery {
	number := models.GetAppSettings().GetWhatsAppNumber()
	return viewmodel.Delivery{
		Reference:     receipt.Reference,
		PhotoCount:    receipt.PhotoCount,
		ClipboardText: submission.ClipboardText(photos),
		WhatsAppURL:   submission.WhatsAppURL(number, submission.WhatsAppMessage(clientName, photos, notes)),
	}
}

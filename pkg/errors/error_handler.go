package errors

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"media-ingest/pkg/errors/i18n"
)

func HandleError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	if ue, ok := err.(*UploadError); ok {
		// Orijinal hatayı logla (debug için)
		if ue.Err != nil {
			log.Printf("Upload error [%s]: %v", ue.Code, ue.Err)
		}

		// Status kodu Kind üzerinden seçilir
		var status int
		switch ue.Kind {
		case KindValidation:
			status = fiber.StatusBadRequest
		case KindSession:
			if ue.Code == "session_expired" {
				status = fiber.StatusGone
			} else {
				status = fiber.StatusConflict
			}
		case KindState:
			status = fiber.StatusConflict
		case KindResource:
			status = fiber.StatusServiceUnavailable
		case KindProcessing:
			status = fiber.StatusUnprocessableEntity
		default:
			status = fiber.StatusInternalServerError
		}
		if ue.Code == "not_found" || ue.Code == "session_not_found" {
			status = fiber.StatusNotFound
		}

		// Client'a sadece Code + Message gönder; locale yüklüyse mesaj çevrilir
		message := ue.Message
		if translated := i18n.T(ue.Code); translated != ue.Code {
			message = translated
		}
		return c.Status(status).JSON(fiber.Map{
			"error":   ue.Code,
			"message": message,
		})
	}

	// Yakalanmayan hatalar için fallback
	log.Printf("Unexpected error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "internal_error",
		"message": "Sunucu hatası",
	})
}

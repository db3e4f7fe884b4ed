package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/mechanic-shop-api/config"
	"github.com/kendall-kelly/mechanic-shop-api/models"
	"github.com/kendall-kelly/mechanic-shop-api/services"
	"github.com/kendall-kelly/mechanic-shop-api/utils"
)

// UploadTicketPhoto handles POST /api/v1/service-tickets/:ticket_id/photo
// (admin only). Mechanics document vehicle condition before work starts; the
// photo lands in S3 and its key is stored on the ticket. A new upload
// replaces the previous photo.
func UploadTicketPhoto(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "ticket_id")
	if !ok {
		return
	}

	db := config.GetDB()
	var ticket models.ServiceTicket
	if err := db.First(&ticket, ticketID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Invalid service ticket ID",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Form field 'photo' is required",
			},
		})
		return
	}

	photoService := services.GetPhotoService()
	if photoService == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_ERROR",
				"message": "Photo storage is not configured",
			},
		})
		return
	}

	s3Key, err := photoService.UploadPhoto(ticketID, fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_ERROR",
				"message": "Failed to upload photo",
			},
		})
		return
	}

	oldKey := ticket.PhotoS3Key
	if err := db.Model(&ticket).Update("photo_s3_key", s3Key).Error; err != nil {
		// The DB row is the source of truth; drop the orphaned object
		if deleteErr := photoService.DeletePhoto(s3Key); deleteErr != nil {
			respondDatabaseError(c, "Failed to store photo reference")
			return
		}
		respondDatabaseError(c, "Failed to store photo reference")
		return
	}

	if oldKey != nil && *oldKey != s3Key {
		// Best effort: a stale object in the bucket is not worth failing over
		_ = photoService.DeletePhoto(*oldKey)
	}

	attachPhotoURL(&ticket)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    ticket,
	})
}

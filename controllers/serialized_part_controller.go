package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/mechanic-shop-api/config"
	"github.com/kendall-kelly/mechanic-shop-api/models"
	"gorm.io/gorm"
)

// CreateSerializedPartRequest represents the request body for registering one
// physical part unit. A unit enters the system as on-hand stock; installing
// it on a ticket goes through the ticket's add-part operation.
type CreateSerializedPartRequest struct {
	DescID uint `json:"desc_id" binding:"required"`
}

// UpdateSerializedPartRequest represents the request body for updating a
// serialized part. Only the catalog reference can be patched here; the ticket
// slot is owned by the install/remove operations.
type UpdateSerializedPartRequest struct {
	DescID *uint `json:"desc_id" binding:"omitempty"`
}

// CreateSerializedPart handles POST /api/v1/serialized-parts
func CreateSerializedPart(c *gin.Context) {
	var req CreateSerializedPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	var part models.SerializedPart
	var description models.PartDescription
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&description, req.DescID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid part description ID",
				},
			})
			return errHandled
		}

		part = models.SerializedPart{DescID: req.DescID}
		return tx.Create(&part).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to create serialized part")
		}
		return
	}

	part.Description = &description

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": fmt.Sprintf("Added new %s %s to inventory", description.Brand, description.PartName),
		"data":    part,
	})
}

// GetSerializedParts handles GET /api/v1/serialized-parts
func GetSerializedParts(c *gin.Context) {
	db := config.GetDB()

	var parts []models.SerializedPart
	if err := paginate(c, db.Preload("Description")).Find(&parts).Error; err != nil {
		respondDatabaseError(c, "Failed to list serialized parts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    parts,
	})
}

// GetSerializedPart handles GET /api/v1/serialized-parts/:part_id
func GetSerializedPart(c *gin.Context) {
	partID, ok := parseIDParam(c, "part_id")
	if !ok {
		return
	}

	db := config.GetDB()
	var part models.SerializedPart
	if err := db.Preload("Description").First(&part, partID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Invalid serialized part ID",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    part,
	})
}

// UpdateSerializedPart handles PUT /api/v1/serialized-parts/:part_id
func UpdateSerializedPart(c *gin.Context) {
	partID, ok := parseIDParam(c, "part_id")
	if !ok {
		return
	}

	var req UpdateSerializedPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	var part models.SerializedPart
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&part, partID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid serialized part ID",
				},
			})
			return errHandled
		}

		if req.DescID == nil {
			return nil
		}

		var description models.PartDescription
		if err := tx.First(&description, *req.DescID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid part description ID",
				},
			})
			return errHandled
		}

		return tx.Model(&part).Update("desc_id", *req.DescID).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to update serialized part")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    part,
	})
}

// DeleteSerializedPart handles DELETE /api/v1/serialized-parts/:part_id
func DeleteSerializedPart(c *gin.Context) {
	partID, ok := parseIDParam(c, "part_id")
	if !ok {
		return
	}

	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		var part models.SerializedPart
		if err := tx.First(&part, partID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid serialized part ID",
				},
			})
			return errHandled
		}

		return tx.Delete(&part).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to delete serialized part")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Serialized part deleted successfully",
	})
}

// GetStock handles GET /api/v1/serialized-parts/stock/:description_id.
// The on-hand quantity is the number of units under the description whose
// ticket slot is empty.
func GetStock(c *gin.Context) {
	descriptionID, ok := parseIDParam(c, "description_id")
	if !ok {
		return
	}

	db := config.GetDB()
	var description models.PartDescription
	if err := db.First(&description, descriptionID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Invalid part description ID",
			},
		})
		return
	}

	var count int64
	if err := db.Model(&models.SerializedPart{}).
		Where("desc_id = ? AND ticket_id IS NULL", descriptionID).
		Count(&count).Error; err != nil {
		respondDatabaseError(c, "Failed to count stock")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"item":     description.PartName,
			"brand":    description.Brand,
			"quantity": count,
		},
	})
}

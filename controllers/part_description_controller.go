package controllers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/mechanic-shop-api/config"
	"github.com/kendall-kelly/mechanic-shop-api/models"
	"gorm.io/gorm"
)

// CreatePartDescriptionRequest represents the request body for creating a
// part description
type CreatePartDescriptionRequest struct {
	PartName string  `json:"part_name" binding:"required"`
	Brand    string  `json:"brand" binding:"required"`
	Price    float64 `json:"price" binding:"required,gte=0"`
}

// UpdatePartDescriptionRequest represents the request body for updating a
// part description. All fields are optional; absent fields are left unchanged.
type UpdatePartDescriptionRequest struct {
	PartName string   `json:"part_name" binding:"omitempty"`
	Brand    string   `json:"brand" binding:"omitempty"`
	Price    *float64 `json:"price" binding:"omitempty,gte=0"`
}

// CreatePartDescription handles POST /api/v1/part-descriptions
func CreatePartDescription(c *gin.Context) {
	var req CreatePartDescriptionRequest
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

	description := models.PartDescription{
		PartName: req.PartName,
		Brand:    req.Brand,
		Price:    req.Price,
	}

	db := config.GetDB()
	if err := db.Create(&description).Error; err != nil {
		respondDatabaseError(c, "Failed to create part description")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    description,
	})
}

// GetPartDescriptions handles GET /api/v1/part-descriptions
func GetPartDescriptions(c *gin.Context) {
	db := config.GetDB()

	var descriptions []models.PartDescription
	if err := paginate(c, db).Find(&descriptions).Error; err != nil {
		respondDatabaseError(c, "Failed to list part descriptions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    descriptions,
	})
}

// GetPartDescription handles GET /api/v1/part-descriptions/:description_id
func GetPartDescription(c *gin.Context) {
	descriptionID, ok := parseIDParam(c, "description_id")
	if !ok {
		return
	}

	db := config.GetDB()
	var description models.PartDescription
	if err := db.Preload("SerializedParts").First(&description, descriptionID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Invalid part description ID",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    description,
	})
}

// UpdatePartDescription handles PUT /api/v1/part-descriptions/:description_id
func UpdatePartDescription(c *gin.Context) {
	descriptionID, ok := parseIDParam(c, "description_id")
	if !ok {
		return
	}

	var req UpdatePartDescriptionRequest
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
	var description models.PartDescription
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&description, descriptionID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid part description ID",
				},
			})
			return errHandled
		}

		updates := make(map[string]interface{})
		if req.PartName != "" {
			updates["part_name"] = req.PartName
		}
		if req.Brand != "" {
			updates["brand"] = req.Brand
		}
		if req.Price != nil {
			updates["price"] = *req.Price
		}

		if len(updates) == 0 {
			return nil
		}

		return tx.Model(&description).Updates(updates).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to update part description")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    description,
	})
}

// DeletePartDescription handles DELETE /api/v1/part-descriptions/:description_id.
// The catalog entry owns its serialized units, so they go with it.
func DeletePartDescription(c *gin.Context) {
	descriptionID, ok := parseIDParam(c, "description_id")
	if !ok {
		return
	}

	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		var description models.PartDescription
		if err := tx.First(&description, descriptionID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid part description ID",
				},
			})
			return errHandled
		}

		if err := tx.Where("desc_id = ?", descriptionID).Delete(&models.SerializedPart{}).Error; err != nil {
			return err
		}

		return tx.Delete(&description).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to delete part description")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Part description deleted successfully",
	})
}

// partDescriptionRanking pairs a catalog entry with the number of distinct
// tickets its units are installed on
type partDescriptionRanking struct {
	models.PartDescription
	TicketCount int `json:"ticket_count"`
}

// GetMostValuablePartDescriptions handles GET /api/v1/part-descriptions/most-valuable.
// Descriptions are sorted by the count of distinct tickets carrying their
// units, descending; ties break on id ascending.
func GetMostValuablePartDescriptions(c *gin.Context) {
	db := config.GetDB()

	var descriptions []models.PartDescription
	if err := db.Order("id ASC").Find(&descriptions).Error; err != nil {
		respondDatabaseError(c, "Failed to list part descriptions")
		return
	}

	type countRow struct {
		DescID uint
		N      int
	}
	var counts []countRow
	if err := db.Model(&models.SerializedPart{}).
		Select("desc_id, COUNT(DISTINCT ticket_id) AS n").
		Where("ticket_id IS NOT NULL").
		Group("desc_id").
		Scan(&counts).Error; err != nil {
		respondDatabaseError(c, "Failed to count tickets")
		return
	}

	countByID := make(map[uint]int, len(counts))
	for _, row := range counts {
		countByID[row.DescID] = row.N
	}

	rankings := make([]partDescriptionRanking, 0, len(descriptions))
	for _, description := range descriptions {
		rankings = append(rankings, partDescriptionRanking{
			PartDescription: description,
			TicketCount:     countByID[description.ID],
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].TicketCount > rankings[j].TicketCount
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rankings,
	})
}

// SearchPartDescriptions handles GET /api/v1/part-descriptions/search?name=
// with substring matching on the part name
func SearchPartDescriptions(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Query parameter 'name' is required",
			},
		})
		return
	}

	db := config.GetDB()
	var descriptions []models.PartDescription
	if err := db.Where("part_name LIKE ?", "%"+name+"%").Find(&descriptions).Error; err != nil {
		respondDatabaseError(c, "Failed to search part descriptions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    descriptions,
	})
}

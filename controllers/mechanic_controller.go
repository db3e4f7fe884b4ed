package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/mechanic-shop-api/config"
	"github.com/kendall-kelly/mechanic-shop-api/middleware"
	"github.com/kendall-kelly/mechanic-shop-api/models"
	"gorm.io/gorm"
)

// CreateMechanicRequest represents the request body for creating a mechanic
type CreateMechanicRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Salary   float64 `json:"salary" binding:"required,gte=0"`
	Password string  `json:"password" binding:"required,min=6"`
}

// UpdateMechanicRequest represents the request body for updating a mechanic.
// All fields are optional; absent fields are left unchanged.
type UpdateMechanicRequest struct {
	Name     string   `json:"name" binding:"omitempty"`
	Email    string   `json:"email" binding:"omitempty,email"`
	Salary   *float64 `json:"salary" binding:"omitempty,gte=0"`
	Password string   `json:"password" binding:"omitempty,min=6"`
}

// LoginRequest represents the request body for mechanic login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateMechanic handles POST /api/v1/mechanics
func CreateMechanic(c *gin.Context) {
	var req CreateMechanicRequest
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

	mechanic := models.Mechanic{
		Name:   req.Name,
		Email:  req.Email,
		Salary: req.Salary,
	}
	if err := mechanic.SetPassword(req.Password); err != nil {
		respondDatabaseError(c, "Failed to hash password")
		return
	}

	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing models.Mechanic
		if err := tx.Where("email = ?", req.Email).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONFLICT",
					"message": "Email already taken",
				},
			})
			return errHandled
		}

		return tx.Create(&mechanic).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to create mechanic")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    mechanic,
	})
}

// GetMechanics handles GET /api/v1/mechanics
func GetMechanics(c *gin.Context) {
	db := config.GetDB()

	var mechanics []models.Mechanic
	if err := paginate(c, db).Find(&mechanics).Error; err != nil {
		respondDatabaseError(c, "Failed to list mechanics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mechanics,
	})
}

// GetMechanic handles GET /api/v1/mechanics/:mechanic_id
func GetMechanic(c *gin.Context) {
	mechanicID, ok := parseIDParam(c, "mechanic_id")
	if !ok {
		return
	}

	db := config.GetDB()
	var mechanic models.Mechanic
	if err := db.Preload("Tickets").First(&mechanic, mechanicID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Invalid mechanic ID",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mechanic,
	})
}

// UpdateMechanic handles PUT /api/v1/mechanics/:mechanic_id
func UpdateMechanic(c *gin.Context) {
	mechanicID, ok := parseIDParam(c, "mechanic_id")
	if !ok {
		return
	}

	var req UpdateMechanicRequest
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
	var mechanic models.Mechanic
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&mechanic, mechanicID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid mechanic ID",
				},
			})
			return errHandled
		}

		if req.Email != "" {
			var existing models.Mechanic
			if err := tx.Where("email = ? AND id != ?", req.Email, mechanicID).First(&existing).Error; err == nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "CONFLICT",
						"message": "Email already associated with another account",
					},
				})
				return errHandled
			}
		}

		updates := make(map[string]interface{})
		if req.Name != "" {
			updates["name"] = req.Name
		}
		if req.Email != "" {
			updates["email"] = req.Email
		}
		if req.Salary != nil {
			updates["salary"] = *req.Salary
		}
		if req.Password != "" {
			var rehashed models.Mechanic
			if err := rehashed.SetPassword(req.Password); err != nil {
				return err
			}
			updates["password_hash"] = rehashed.PasswordHash
		}

		if len(updates) == 0 {
			return nil
		}

		return tx.Model(&mechanic).Updates(updates).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to update mechanic")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mechanic,
	})
}

// DeleteMechanic handles DELETE /api/v1/mechanics/:mechanic_id.
// Tickets the mechanic worked on stay untouched; only the association rows go.
func DeleteMechanic(c *gin.Context) {
	mechanicID, ok := parseIDParam(c, "mechanic_id")
	if !ok {
		return
	}

	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		var mechanic models.Mechanic
		if err := tx.First(&mechanic, mechanicID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid mechanic ID",
				},
			})
			return errHandled
		}

		if err := tx.Model(&mechanic).Association("Tickets").Clear(); err != nil {
			return err
		}

		return tx.Delete(&mechanic).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to delete mechanic")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Mechanic deleted successfully",
	})
}

// Login handles POST /api/v1/mechanics/login - exchanges mechanic credentials
// for a bearer token carrying the mechanic (admin) role
func Login(c *gin.Context) {
	var req LoginRequest
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
	var mechanic models.Mechanic
	if err := db.Where("email = ?", req.Email).First(&mechanic).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_CREDENTIALS",
				"message": "Invalid email or password",
			},
		})
		return
	}

	if !mechanic.CheckPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_CREDENTIALS",
				"message": "Invalid email or password",
			},
		})
		return
	}

	cfg := config.GetConfig()
	token, err := middleware.EncodeToken(cfg.JWTSecret, mechanic.ID, middleware.RoleMechanic)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TOKEN_ERROR",
				"message": "Failed to issue token",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token":    token,
			"mechanic": mechanic,
		},
	})
}

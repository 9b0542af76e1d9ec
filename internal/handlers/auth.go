package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kaiac/backend/internal/config"
	"github.com/kaiac/backend/internal/database"
	"github.com/kaiac/backend/internal/middleware"
	"github.com/kaiac/backend/internal/models"
	"github.com/kaiac/backend/internal/services"
)

type AuthHandler struct {
	cfg       *config.Config
	db        *gorm.DB
	blacklist *database.TokenBlacklist
	alerts    *services.AlertService
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB, blacklist *database.TokenBlacklist, alerts *services.AlertService) *AuthHandler {
	return &AuthHandler{cfg: cfg, db: db, blacklist: blacklist, alerts: alerts}
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code"`
}

// Login authenticates a user and returns a JWT
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid credentials",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid credentials",
		})
	}

	if !user.IsActive {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User account is disabled",
		})
	}

	if user.TwoFactorEnabled {
		if req.TOTPCode == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success":      false,
				"message":      "Two-factor code required",
				"requires_2fa": true,
			})
		}
		if !totp.Validate(req.TOTPCode, user.TwoFactorSecret) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid two-factor code",
			})
		}
	}

	token, err := middleware.GenerateToken(&user, h.cfg)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to generate token",
		})
	}

	now := time.Now().UTC()
	h.db.Model(&user).Update("last_login_at", now)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"token": token,
			"user":  user,
		},
	})
}

// Logout revokes the current token until it expires
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tokenString, _ := c.Locals("token").(string)
	if tokenString != "" {
		until := time.Duration(h.cfg.JWTExpireHours) * time.Hour
		if token, _, err := jwt.NewParser().ParseUnverified(tokenString, &middleware.JWTClaims{}); err == nil {
			if claims, ok := token.Claims.(*middleware.JWTClaims); ok && claims.ExpiresAt != nil {
				until = time.Until(claims.ExpiresAt.Time)
			}
		}
		h.blacklist.Revoke(tokenString, until)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out",
	})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

// RegisterRequest represents a new account
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates a user account with its five alert settings rows
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Email == "" || len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Email and a password of at least 8 characters are required",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to hash password",
		})
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleCustomer,
		IsActive:     true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Email already registered",
		})
	}

	// Account setup creates the five category rows together
	if err := h.alerts.EnsureDefaults(user.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to initialize alert settings",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

// Enable2FA generates a TOTP secret for the authenticated user
func (h *AuthHandler) Enable2FA(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "KaiaC",
		AccountName: user.Email,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to generate 2FA secret",
		})
	}

	if err := h.db.Model(user).Update("two_factor_secret", key.Secret()).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to store 2FA secret",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"secret": key.Secret(),
			"url":    key.URL(),
		},
	})
}

// Verify2FA confirms the TOTP code and switches 2FA on
func (h *AuthHandler) Verify2FA(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	var freshUser models.User
	if err := h.db.First(&freshUser, user.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	if freshUser.TwoFactorSecret == "" || !totp.Validate(req.Code, freshUser.TwoFactorSecret) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid two-factor code",
		})
	}

	if err := h.db.Model(&freshUser).Update("two_factor_enabled", true).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to enable 2FA",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Two-factor authentication enabled",
	})
}

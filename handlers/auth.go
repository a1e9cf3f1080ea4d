package handlers

import (
	"errors"
	"net/http"
	"time"

	"dropline-api/auth"
	"dropline-api/middleware"
	"dropline-api/models"
	"dropline-api/store"

	"github.com/gin-gonic/gin"
)

type RegisterMerchantRequest struct {
	ShopName      string  `json:"shop_name" binding:"required"`
	Category      string  `json:"category" binding:"required"`
	City          string  `json:"city" binding:"required"`
	Address       string  `json:"address" binding:"required"`
	Email         string  `json:"email" binding:"required,email"`
	Phone         string  `json:"phone" binding:"required"`
	Password      string  `json:"password" binding:"required"`
	DeliveryNotes *string `json:"delivery_notes"`
	WorkingHours  *string `json:"working_hours"`
}

type RegisterCustomerRequest struct {
	FullName string `json:"full_name" binding:"required"`
	City     string `json:"city" binding:"required"`
	Address  string `json:"address" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterDriverRequest struct {
	FullName     string  `json:"full_name" binding:"required"`
	City         string  `json:"city" binding:"required"`
	VehicleType  string  `json:"vehicle_type" binding:"required"`
	VehiclePlate *string `json:"vehicle_plate"`
	Email        string  `json:"email" binding:"required,email"`
	Phone        string  `json:"phone" binding:"required"`
	NationalID   *string `json:"national_id"`
	Password     string  `json:"password" binding:"required"`
}

type LoginRequest struct {
	Role     models.Role `json:"role" binding:"required,oneof=merchant customer driver"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required"`
}

// RegisterMerchant creates a merchant account
func (h *Handler) RegisterMerchant(c *gin.Context) {
	var req RegisterMerchantRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Email = normalizeEmail(req.Email)

	h.register(c, models.RoleMerchant, req.Email, req.Password, func(hash string, now time.Time) models.Account {
		return &models.Merchant{
			Role:          models.RoleMerchant,
			ShopName:      req.ShopName,
			Category:      req.Category,
			City:          req.City,
			Address:       req.Address,
			Email:         req.Email,
			Phone:         req.Phone,
			PasswordHash:  hash,
			DeliveryNotes: req.DeliveryNotes,
			WorkingHours:  req.WorkingHours,
			CreatedAt:     now,
		}
	})
}

// RegisterCustomer creates a customer account
func (h *Handler) RegisterCustomer(c *gin.Context) {
	var req RegisterCustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Email = normalizeEmail(req.Email)

	h.register(c, models.RoleCustomer, req.Email, req.Password, func(hash string, now time.Time) models.Account {
		return &models.Customer{
			Role:         models.RoleCustomer,
			FullName:     req.FullName,
			City:         req.City,
			Address:      req.Address,
			Email:        req.Email,
			Phone:        req.Phone,
			PasswordHash: hash,
			CreatedAt:    now,
		}
	})
}

// RegisterDriver creates a driver account
func (h *Handler) RegisterDriver(c *gin.Context) {
	var req RegisterDriverRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Email = normalizeEmail(req.Email)

	h.register(c, models.RoleDriver, req.Email, req.Password, func(hash string, now time.Time) models.Account {
		return &models.Driver{
			Role:         models.RoleDriver,
			FullName:     req.FullName,
			City:         req.City,
			VehicleType:  req.VehicleType,
			VehiclePlate: req.VehiclePlate,
			Email:        req.Email,
			Phone:        req.Phone,
			NationalID:   req.NationalID,
			PasswordHash: hash,
			CreatedAt:    now,
		}
	})
}

// register runs the steps shared by every role: duplicate check, hashing and insert.
// The lookup and the insert are separate calls; the unique email index in the
// store rejects whichever of two racing inserts comes second.
func (h *Handler) register(c *gin.Context, role models.Role, email, password string,
	build func(passwordHash string, now time.Time) models.Account) {
	if !h.store.Available() {
		dbUnavailable(c)
		return
	}

	ctx, cancel := h.dbContext(c)
	defer cancel()

	collection := role.Collection()

	err := h.store.FindOne(ctx, collection, store.Filter{"email": email}, models.NewAccount(role))
	switch {
	case err == nil:
		detail(c, http.StatusBadRequest, "Email already registered")
		return
	case !errors.Is(err, store.ErrNotFound):
		h.storeFailure(c, "register lookup", err)
		return
	}

	hash, err := h.hasher.Hash(password)
	if err != nil {
		_ = c.Error(err)
		detail(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	id, err := h.store.InsertOne(ctx, collection, build(hash, time.Now().UTC()))
	if errors.Is(err, store.ErrDuplicate) {
		detail(c, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		h.storeFailure(c, "register insert", err)
		return
	}

	h.log.Info("auth: account registered", "role", role, "id", id, "request_id", middleware.GetRequestID(c))

	c.JSON(http.StatusOK, gin.H{
		"id":      id,
		"message": role.Label() + " registered",
	})
}

// Login authenticates an account of the given role. Unknown email and wrong
// password produce the same response.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Email = normalizeEmail(req.Email)

	if !h.store.Available() {
		dbUnavailable(c)
		return
	}

	ctx, cancel := h.dbContext(c)
	defer cancel()

	account := models.NewAccount(req.Role)
	err := h.store.FindOne(ctx, req.Role.Collection(), store.Filter{"email": req.Email}, account)
	if errors.Is(err, store.ErrNotFound) {
		detail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.storeFailure(c, "login lookup", err)
		return
	}

	if !h.hasher.Verify(account.AccountPasswordHash(), req.Password) {
		detail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	id := account.AccountID().Hex()
	accessToken, expiresAt, err := h.tokens.Issue(id, account.AccountEmail(), req.Role)
	if err != nil {
		_ = c.Error(err)
		detail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"token":        auth.LegacyToken(req.Email, req.Role),
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_at":   expiresAt.UTC().Format(time.RFC3339),
		"role":         req.Role,
		"profile": gin.H{
			"id":    id,
			"email": account.AccountEmail(),
		},
	})
}

// GetProfile returns the authenticated account's stored record
func (h *Handler) GetProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		detail(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	if !h.store.Available() {
		dbUnavailable(c)
		return
	}

	ctx, cancel := h.dbContext(c)
	defer cancel()

	account := models.NewAccount(claims.Role)
	filter := store.Filter{"_id": claims.Subject, "email": claims.Email}
	err := h.store.FindOne(ctx, claims.Role.Collection(), filter, account)
	if errors.Is(err, store.ErrNotFound) {
		detail(c, http.StatusNotFound, "Account not found")
		return
	}
	if err != nil {
		h.storeFailure(c, "profile lookup", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"role":    claims.Role,
		"profile": account,
	})
}

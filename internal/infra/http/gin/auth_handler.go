package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staybook/internal/domain/shared/clock"
	"staybook/internal/domain/user"
	"staybook/internal/infra/security"
)

// AuthHandler covers the thin registration surface; session and token
// management belong to the surrounding platform.
type AuthHandler struct {
	Users  user.Repository
	Hasher security.BcryptHasher
	Clock  clock.Clock
}

type registerRequest struct {
	Email    string   `json:"email" binding:"required"`
	Name     string   `json:"name" binding:"required"`
	Password string   `json:"password" binding:"required,min=8"`
	Roles    []string `json:"roles"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hash, err := h.Hasher.Hash(req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	roles := make([]user.Role, 0, len(req.Roles))
	for _, r := range req.Roles {
		roles = append(roles, user.Role(r))
	}
	u, err := user.NewUser(user.CreateParams{
		ID:           user.ID(uuid.NewString()),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    h.now(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Users.Save(c.Request.Context(), u); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": string(u.ID)})
}

func (h AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.Users.ByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := h.Hasher.Compare(u.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": string(u.ID), "name": u.Name})
}

func (h AuthHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

var _ AuthHTTP = AuthHandler{}

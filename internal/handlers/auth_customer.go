package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func issueToken(user models.User, auth AuthConfig) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":    user.ID.Hex(),
		"userId": user.ID.Hex(),
		"role":   user.Role,
		"email":  user.Email,
		"iat":    now.Unix(),
		"exp":    now.Add(auth.AccessTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(auth.Secret))
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":    user.ID.Hex(),
		"name":  user.Name,
		"email": user.Email,
		"phone": user.Phone,
		"role":  user.Role,
	}
}

func Register(users UserStore, auth AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/register"
		defer handlePanic(c, route)

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "password hashing failed")
			return
		}

		user := models.User{
			Name:         strings.TrimSpace(req.Name),
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:        strings.TrimSpace(req.Phone),
			PasswordHash: string(hash),
			Role:         models.RoleUser,
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := users.Create(ctx, &user); err != nil {
			respondAppError(c, route, err)
			return
		}

		token, err := issueToken(user, auth)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		logrus.WithFields(logrus.Fields{"route": route, "userId": user.ID.Hex()}).Info("user registered")
		c.JSON(http.StatusCreated, gin.H{"accessToken": token, "user": userResponse(user)})
	}
}

// Login authenticates a storefront account of any role.
func Login(users UserStore, auth AuthConfig) gin.HandlerFunc {
	return loginHandler("POST /auth/login", users, auth, "")
}

func loginHandler(route string, users UserStore, auth AuthConfig, requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || strings.TrimSpace(req.Password) == "" {
			respondWithError(c, http.StatusBadRequest, route, "email and password are required")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := users.ByEmail(ctx, email)
		if apperr.IsNotFound(err) {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		if requiredRole != "" && user.Role != requiredRole {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		token, err := issueToken(user, auth)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		logrus.WithFields(logrus.Fields{"route": route, "userId": user.ID.Hex()}).Info("login succeeded")
		c.JSON(http.StatusOK, gin.H{"accessToken": token, "user": userResponse(user)})
	}
}

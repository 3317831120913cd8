package handlers

import (
	"github.com/gin-gonic/gin"

	"storefront/internal/models"
)

// AdminLogin only accepts accounts with the admin role. Other accounts get
// the same answer as a wrong password.
func AdminLogin(users UserStore, auth AuthConfig) gin.HandlerFunc {
	return loginHandler("POST /admin/login", users, auth, models.RoleAdmin)
}

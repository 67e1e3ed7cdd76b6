package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/cybersafe-edu/assessment-service/internal/config"
	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
	"github.com/cybersafe-edu/assessment-service/internal/utils"
)

// CasdoorAuthMiddleware validates bearer tokens against Casdoor and
// resolves them to local user rows. The services only ever see the local
// numeric user ID.
type CasdoorAuthMiddleware struct {
	client   *casdoorsdk.Client
	userRepo repositories.UserRepository
	logger   utils.Logger
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userRepo repositories.UserRepository, logger utils.Logger) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &CasdoorAuthMiddleware{
		client:   client,
		userRepo: userRepo,
		logger:   logger,
	}
}

// AuthMiddleware authenticates the request and stores the resolved local
// user in the context.
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		claims, err := cam.client.ParseJwtToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid token",
				Details: err.Error(),
			})
			c.Abort()
			return
		}

		user, err := cam.resolveUser(c.Request.Context(), claims)
		if err != nil {
			cam.logger.Error("Failed to resolve user from token", "error", err)
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Failed to resolve user identity",
			})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)

		c.Next()
	}
}

// RequireRoleMiddleware restricts a route to the given roles. Admins pass
// every check.
func (cam *CasdoorAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: "User role not found in context",
			})
			c.Abort()
			return
		}

		role, ok := v.(models.UserRole)
		if !ok {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: "Invalid user role format",
			})
			c.Abort()
			return
		}

		for _, required := range requiredRoles {
			if role == required || role == models.RoleAdmin {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: fmt.Sprintf("Insufficient permissions, required role: %v", requiredRoles),
		})
		c.Abort()
	}
}

// resolveUser maps token claims to a local user row, provisioning a
// student account on first sight.
func (cam *CasdoorAuthMiddleware) resolveUser(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	externalID := claims.User.Id
	if externalID == "" {
		externalID = claims.Id
	}
	if externalID == "" {
		return nil, fmt.Errorf("token carries no subject")
	}

	user, err := cam.userRepo.GetByExternalID(ctx, nil, externalID)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user = &models.User{
		ExternalID: externalID,
		FullName:   claims.User.DisplayName,
		Email:      claims.User.Email,
		Role:       models.RoleStudent,
	}
	if user.FullName == "" {
		user.FullName = claims.User.Name
	}
	if err := cam.userRepo.Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}

	cam.logger.Info("Provisioned new user",
		"user_id", user.ID,
		"role", user.Role)

	return user, nil
}

// bearerToken extracts the bearer token, writing the 401 response itself
// when the header is missing or malformed.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Authorization header missing",
		})
		c.Abort()
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Invalid authorization header format",
		})
		c.Abort()
		return "", false
	}

	return parts[1], true
}

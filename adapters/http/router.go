package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/fittrack/pkg/auth"
	"github.com/khoahotran/fittrack/pkg/logger"
)

type RouterConfig struct {
	Onboarding    *OnboardingHandler
	Auth          *AuthHandler
	Profile       *ProfileHandler
	JWT           *auth.JWTService
	Logger        logger.Logger
	SessionCookie string
	SecureCookies bool
}

func NewRouter(rc RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(rc.Logger), ErrorMiddleware(rc.Logger))

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

	if rc.Onboarding != nil {
		wizard := router.Group("/onboarding")
		wizard.Use(SessionMiddleware(rc.SessionCookie, rc.SecureCookies))
		{
			wizard.GET("", rc.Onboarding.GetStep)
			wizard.GET("/:step", rc.Onboarding.GetStep)
			wizard.PATCH("/:step/fields", rc.Onboarding.UpdateFields)
			wizard.POST("/:step/next", rc.Onboarding.Next)
			wizard.POST("/:step/back", rc.Onboarding.Back)
		}
	}

	api := router.Group("/api")
	{
		if rc.Auth != nil {
			api.POST("/auth/login", rc.Auth.Login)
		}

		private := api.Group("/")
		private.Use(AuthMiddleware(rc.JWT, rc.Logger))
		{
			private.GET("/me", func(c *gin.Context) {
				userID, ok := GetUserIDFromGinContext(c)
				if !ok {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot get user id from context"})
					return
				}
				c.JSON(http.StatusOK, gin.H{"user_id": userID})
			})

			if rc.Profile != nil {
				private.GET("/profile", rc.Profile.GetProfile)
				private.PUT("/profile", rc.Profile.UpdateProfile)
				private.POST("/profile/avatar", rc.Profile.UploadAvatar)
				private.DELETE("/profile/avatar", rc.Profile.RemoveAvatar)
			}
		}
	}

	return router
}

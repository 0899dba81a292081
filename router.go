package main

import (
	"facetrack/handlers"
	"facetrack/utils"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName     = "facetrack"
	sessionExpirationTime = 86400 // 1 day
)

func newRouter(store sessions.Store, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	if debug {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "PUT", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	store.Options(sessions.Options{Path: "/", MaxAge: sessionExpirationTime, HttpOnly: true})
	router.Use(sessions.Sessions(sessionCookieName, store))
	if !debug {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/session/ws"})))
	}
	router.Use(utils.NoCache)

	// Tracking sessions
	router.POST("/session/create", handlers.SessionCreate)
	router.POST("/session/evaluate", handlers.SessionEvaluate)
	router.POST("/session/reset", handlers.SessionReset)
	router.POST("/session/delete", handlers.SessionDelete)
	router.GET("/session/status", handlers.SessionStatus)
	router.GET("/session/outcomes", handlers.SessionOutcomes)
	// Face detection on uploaded JPEG frames
	router.PUT("/session/frame", handlers.SessionFrame)
	// Streaming
	router.GET("/session/ws", handlers.SessionWebSocket)
	// Misc
	router.GET("/robots.txt", handlers.DisallowRobots)
	return router
}

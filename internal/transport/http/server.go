package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/config"
	"github.com/vovakirdan/roomchat/internal/core"
)

// NewServer builds the HTTP server exposing the REST API and the WebSocket streams.
// Streams are served from the plain mux: gin's writer refuses to hijack once
// the upgrade response has been flushed.
func NewServer(hub core.Hub, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	rooms := NewRoomHandlers(hub, logger)
	api := router.Group("/api")
	{
		api.POST("/rooms", rooms.CreateRoom)
		api.GET("/rooms", rooms.ListRooms)
		api.GET("/rooms/:id/messages", rooms.GetHistory)
	}

	ws := NewWSHandler(hub, cfg.MaxMessageBytes, logger)

	mux := stdhttp.NewServeMux()
	mux.HandleFunc("GET /ws/send", ws.SendMessages)
	mux.HandleFunc("GET /ws/rooms/{id}/join", ws.JoinRoom)
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

package server

import (
	"context"
	"net/http"

	"purple-sphinx/internal/catalog"
	"purple-sphinx/internal/config"
	"purple-sphinx/internal/quiz"
	"purple-sphinx/internal/room"

	"github.com/gin-gonic/gin"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// QuestionSource resolves question ids for start_question.
type QuestionSource interface {
	Question(ctx context.Context, id string) (quiz.Question, error)
}

type Server struct {
	store *catalog.Store
	rooms *room.Registry
	ws    *gateway
	cfg   config.Config
}

// New wires the room registry to the websocket gateway. The registry is
// owned by the server and closed with it.
func New(store *catalog.Store, cfg config.Config) *Server {
	if store == nil {
		store = catalog.New(nil)
	}
	registerValidators()
	ws := newGateway(store, cfg)
	rooms := room.NewRegistry(room.Options{
		Broadcaster:   ws,
		Archiver:      store,
		DeadlineGrace: cfg.DeadlineGrace,
	})
	ws.rooms = rooms
	return &Server{
		store: store,
		rooms: rooms,
		ws:    ws,
		cfg:   cfg,
	}
}

func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", s.handleHealth)
	router.GET("/version", s.handleVersion)
	router.GET("/", s.handleHome)
	router.GET("/join/:code", s.handleJoinView)
	router.GET("/rooms/:code/qr", s.handleRoomQR)
	router.GET("/ws", s.ws.handleWebsocket)

	api := router.Group("/api")
	api.POST("/rooms", s.handleCreateRoom)
	api.GET("/rooms/:code", s.handleRoomState)
	api.GET("/branding", s.handleBranding)

	admin := api.Group("/admin", s.requireAdmin())
	admin.GET("/rooms", s.handleAdminRooms)
	admin.DELETE("/rooms/:code", s.handleAdminCloseRoom)
	admin.GET("/questions", s.handleAdminQuestions)
	admin.POST("/questions", s.handleAdminSaveQuestion)
	admin.GET("/questions/:id", s.handleAdminQuestion)
	admin.PUT("/questions/:id", s.handleAdminSaveQuestion)
	admin.DELETE("/questions/:id", s.handleAdminDeleteQuestion)
	admin.GET("/question-sets", s.handleAdminSets)
	admin.POST("/question-sets", s.handleAdminSaveSet)
	admin.PUT("/question-sets/:id", s.handleAdminSaveSet)
	admin.DELETE("/question-sets/:id", s.handleAdminDeleteSet)
	admin.GET("/player-archive", s.handleAdminArchive)
	admin.DELETE("/player-archive/:id", s.handleAdminDeleteArchived)
	admin.PUT("/branding", s.handleAdminSaveBranding)

	return router
}

// Close stops every room and disconnects every websocket client.
func (s *Server) Close() {
	s.ws.closeAll()
	s.rooms.Close()
}

package server

import (
	"context"
	"ctchen222/tateti/internal/api/controller"
	"ctchen222/tateti/internal/api/response"
	"ctchen222/tateti/internal/api/service"
	"ctchen222/tateti/internal/bot"
	"ctchen222/tateti/internal/hub"
	"ctchen222/tateti/internal/hub/types"
	"ctchen222/tateti/internal/player"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

var (
	errInvalidToken = errors.New("invalid token")
	errNotGuestID   = errors.New("playerId must be a guest id, log in to play as a user")
)

// wsQuery is the query string of the game socket.
type wsQuery struct {
	Token      string `form:"token"`
	PlayerID   string `form:"playerId"`
	Difficulty string `form:"difficulty" binding:"omitempty,oneof=easy medium hard"`
}

type Server struct {
	hub              *hub.Hub
	userService      service.UserService
	userController   *controller.UserController
	playerController *controller.PlayerController
	upgrader         websocket.Upgrader
	engine           *gin.Engine
}

func NewServer(h *hub.Hub, userService service.UserService, userController *controller.UserController, playerController *controller.PlayerController) *Server {
	s := &Server{
		hub:              h,
		userService:      userService,
		userController:   userController,
		playerController: playerController,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.engine = s.routes()
	return s
}

// Engine returns the HTTP handler serving every route.
func (s *Server) Engine() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		response.SuccessResponse(c, gin.H{"status": "ok"})
	})
	r.GET("/ws", s.handleWebSocket)

	api := r.Group("/api")
	users := api.Group("/users")
	users.POST("/register", s.userController.Register)
	users.POST("/login", s.userController.Login)
	users.POST("/guest", s.userController.GuestLogin)

	players := api.Group("/players/:id")
	players.GET("/stats", s.playerController.Stats)
	players.GET("/games", s.playerController.Games)

	return r
}

// handleWebSocket authenticates the player, upgrades the connection and
// passes a registration request to the hub. It does not distinguish between
// new and reconnecting players.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.Path),
		attribute.String("http.method", c.Request.Method),
	))
	defer span.End()

	var query wsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		span.SetStatus(codes.Error, "Invalid query")
		response.BindErrorResponse(c, err)
		return
	}

	playerID, err := s.resolvePlayer(query)
	if err != nil {
		slog.WarnContext(ctx, "Rejected websocket player", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unauthorized player")
		msg := errNotGuestID.Error()
		if errors.Is(err, errInvalidToken) {
			msg = errInvalidToken.Error()
		}
		response.ErrorResponse(c, http.StatusUnauthorized, msg)
		return
	}
	span.SetAttributes(attribute.String("player.id", playerID), attribute.String("game.difficulty", query.Difficulty))

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	var difficulty bot.Difficulty
	if query.Difficulty != "" {
		difficulty = bot.ParseDifficulty(query.Difficulty)
	}

	req := &types.RegistrationRequest{
		Player:     player.NewPlayer(playerID, conn),
		Difficulty: difficulty,
		Ctx:        context.WithoutCancel(ctx),
	}
	if !s.hub.Register(req) {
		slog.WarnContext(ctx, "Hub is stopped, dropping connection", "player.id", playerID)
		conn.Close()
	}
}

// resolvePlayer picks the player id for a socket. A token wins over a
// playerId. A playerId must be a guest uuid, as handed out by the guest
// endpoint; account ids are only reachable with a token. Without either the
// player is a fresh guest.
func (s *Server) resolvePlayer(query wsQuery) (string, error) {
	if query.Token != "" {
		id, err := s.userService.ParseToken(query.Token)
		if err != nil {
			return "", fmt.Errorf("%w: %w", errInvalidToken, err)
		}
		return id, nil
	}
	if query.PlayerID == "" {
		return uuid.New().String(), nil
	}
	id, err := uuid.Parse(query.PlayerID)
	if err != nil {
		return "", fmt.Errorf("%w: %q", errNotGuestID, query.PlayerID)
	}
	return id.String(), nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "HTTP request",
			"http.method", c.Request.Method,
			"http.path", c.FullPath(),
			"http.status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

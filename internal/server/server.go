package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	billingdomain "github.com/Sasidhar-2001/HMS/internal/billing/domain"
	"github.com/Sasidhar-2001/HMS/internal/clock"
	"github.com/Sasidhar-2001/HMS/internal/config"
	feedomain "github.com/Sasidhar-2001/HMS/internal/fee/domain"
	occupancydomain "github.com/Sasidhar-2001/HMS/internal/occupancy/domain"
	"github.com/Sasidhar-2001/HMS/internal/observability/logger"
	"github.com/Sasidhar-2001/HMS/internal/observability/tracing"
	roomdomain "github.com/Sasidhar-2001/HMS/internal/room/domain"
	userdomain "github.com/Sasidhar-2001/HMS/internal/user/domain"
)

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(Run),
)

type Params struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	Clock      clock.Clock
	RoomSvc    roomdomain.Service
	OccSvc     occupancydomain.Service
	FeeSvc     feedomain.Service
	BillingSvc billingdomain.Service
}

type Server struct {
	cfg        config.Config
	log        *zap.Logger
	clock      clock.Clock
	roomSvc    roomdomain.Service
	occSvc     occupancydomain.Service
	feeSvc     feedomain.Service
	billingSvc billingdomain.Service
	payments   *rateLimiter
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:        p.Cfg,
		log:        p.Log.Named("server"),
		clock:      p.Clock,
		roomSvc:    p.RoomSvc,
		occSvc:     p.OccSvc,
		feeSvc:     p.FeeSvc,
		billingSvc: p.BillingSvc,
		payments:   newRateLimiter(p.Cfg.PaymentRateLimit, p.Cfg.PaymentRateWindow),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		tracing.GinMiddleware(),
		logger.GinMiddleware(logger.MiddlewareConfig{SkipPaths: []string{"/healthz"}}),
	)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api", s.authRequired())

	staff := requireRole(userdomain.RoleAdmin, userdomain.RoleWarden)

	rooms := api.Group("/rooms")
	rooms.GET("", s.ListRooms)
	rooms.GET("/available", s.ListAvailableRooms)
	rooms.GET("/:id", s.GetRoom)
	rooms.POST("", staff, s.CreateRoom)
	rooms.PATCH("/:id", staff, s.UpdateRoom)
	rooms.PATCH("/:id/status", staff, s.SetRoomStatus)
	rooms.DELETE("/:id", staff, s.DeactivateRoom)

	occupancies := api.Group("/occupancies", staff)
	occupancies.POST("", s.AssignStudent)
	occupancies.DELETE("", s.RemoveStudent)

	api.GET("/students/:id/room", s.GetStudentRoom)
	api.GET("/students/:id/occupancies", s.GetStudentOccupancies)

	fees := api.Group("/fees")
	fees.GET("", s.ListFees)
	fees.GET("/defaulters", staff, s.ListDefaulters)
	fees.GET("/stats", staff, s.GetFeeStats)
	fees.GET("/:id", s.GetFee)
	fees.POST("", staff, s.CreateFee)
	fees.PATCH("/:id", staff, s.UpdateFee)
	fees.POST("/:id/payments", s.paymentRateLimit(), s.AddPayment)
	fees.POST("/:id/waive", staff, s.WaiveFee)
	fees.POST("/:id/reminders", staff, s.AddReminder)

	billing := api.Group("/billing", staff)
	billing.POST("/rent", s.GenerateRent)
	billing.POST("/reminders", s.SendBulkReminders)

	return engine
}

// Run starts the HTTP listener under the fx lifecycle.
func Run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.Router(),
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func parseIDParam(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, newValidationError(name, "invalid_id", "invalid identifier")
	}
	return id, nil
}

func parseID(raw string, field string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, newValidationError(field, "invalid_id", "invalid identifier")
	}
	return id, nil
}

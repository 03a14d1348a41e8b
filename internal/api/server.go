package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/eventtix/eventtix-api/docs"
	v1 "github.com/eventtix/eventtix-api/internal/api/handler/v1"
	"github.com/eventtix/eventtix-api/internal/api/middleware"
	"github.com/eventtix/eventtix-api/internal/config"
	"github.com/eventtix/eventtix-api/internal/notifier"
	"github.com/eventtix/eventtix-api/internal/repository"
	"github.com/eventtix/eventtix-api/internal/repository/dao"
	"github.com/eventtix/eventtix-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	eventHandler := s.initEventHandler(db)
	registrationHandler := s.initRegistrationHandler(db)
	ticketHandler := s.initTicketHandler(db)
	s.MountHandlers(authHandler, userHandler, eventHandler, registrationHandler, ticketHandler)

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initEventHandler(db *gorm.DB) *v1.EventHandler {
	eventDAO := dao.NewEventDAO(db)
	repo := repository.NewEventRepository(eventDAO)
	svc := service.NewEventService(repo)
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewEventHandler(svc, uSvc)

	return handler
}

func (s *Server) initRegistrationHandler(db *gorm.DB) *v1.RegistrationHandler {
	registrationDAO := dao.NewRegistrationDAO(db)
	repo := repository.NewRegistrationRepository(registrationDAO)
	svc := service.NewRegistrationService(repo, notifier.NewLogNotifier())
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewRegistrationHandler(svc, uSvc)

	return handler
}

func (s *Server) initTicketHandler(db *gorm.DB) *v1.TicketHandler {
	ticketDAO := dao.NewTicketDAO(db)
	repo := repository.NewTicketRepository(ticketDAO)
	regRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	svc := service.NewTicketService(repo, regRepo, eventRepo, notifier.NewLogNotifier())
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewTicketHandler(svc, uSvc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	eventHandler *v1.EventHandler,
	registrationHandler *v1.RegistrationHandler,
	ticketHandler *v1.TicketHandler,
) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/signup", authHandler.HandleSignup)
		public.POST("/auth/login", authHandler.HandleLogin)
		// Self-check by code, no auth needed. Scanning is a separate,
		// authenticated operation.
		public.GET("/tickets/validate/:code", ticketHandler.HandleValidateTicket)
	}

	protected := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		protected.GET("/users/:userID", userHandler.HandleGetUser)

		protected.GET("/events", eventHandler.HandleGetEvents)
		protected.GET("/events/:eventID", eventHandler.HandleGetEvent)
		protected.GET("/events/:eventID/tickets", ticketHandler.HandleGetEventTickets)
		protected.POST("/events", eventHandler.HandleCreateEvent)
		protected.POST("/events/:eventID/approve", eventHandler.HandleApproveEvent)
		protected.POST("/events/:eventID/status", eventHandler.HandleUpdateEventStatus)

		protected.GET("/registrations", registrationHandler.HandleGetRegistrations)
		protected.GET("/registrations/:registrationID", registrationHandler.HandleGetRegistration)
		protected.POST("/registrations", registrationHandler.HandleCreateRegistration)
		protected.POST("/registrations/:registrationID/cancel", registrationHandler.HandleCancelRegistration)
		protected.DELETE("/registrations/:registrationID", registrationHandler.HandleDeleteRegistration)

		protected.GET("/tickets", ticketHandler.HandleGetTickets)
		protected.POST("/tickets", ticketHandler.HandleIssueTickets)
		protected.POST("/tickets/scan", ticketHandler.HandleScanTicket)
		protected.POST("/tickets/:ticketID/mark-used", ticketHandler.HandleMarkTicketUsed)
		protected.POST("/tickets/:ticketID/cancel", ticketHandler.HandleCancelTicket)
		protected.POST("/tickets/:ticketID/regenerate", ticketHandler.HandleRegenerateTicketCode)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Eventtix API"
	docs.SwaggerInfo.Description = "Event registration and ticket validation API."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

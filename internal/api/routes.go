package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"nutritrack/app/internal/ratelimit"
	"nutritrack/app/internal/realtime"
	"nutritrack/app/internal/service"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth         service.AuthService
	Profiles     service.ProfileService
	Connections  service.ConnectionService
	Messages     service.MessageService
	Notes        service.NoteService
	Appointments service.AppointmentService
	Nutrition    service.NutritionService
	Water        service.WaterService
	Activities   service.ActivityService
	Goals        service.GoalService
	Widget       service.WidgetService
}

// Limiters throttle the endpoints worth abusing. Nil fields disable limiting.
type Limiters struct {
	Auth    ratelimit.Limiter
	Message ratelimit.Limiter
}

func SetupRoutes(router *gin.Engine, svc Services, limiters Limiters, hub *realtime.Hub, log zerolog.Logger) {
	authLimiter, messageLimiter := limiters.Auth, limiters.Message
	if authLimiter == nil {
		authLimiter = ratelimit.Unlimited{}
	}
	if messageLimiter == nil {
		messageLimiter = ratelimit.Unlimited{}
	}

	authHandler := NewAuthHandler(svc.Auth, svc.Profiles)
	connectionHandler := NewConnectionHandler(svc.Connections)
	messageHandler := NewMessageHandler(svc.Messages, hub, log)
	noteHandler := NewNoteHandler(svc.Notes)
	appointmentHandler := NewAppointmentHandler(svc.Appointments)
	nutritionHandler := NewNutritionHandler(svc.Nutrition)
	trackingHandler := NewTrackingHandler(svc.Water, svc.Activities, svc.Goals, svc.Widget)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		authGroup.Use(RateLimit(authLimiter, "auth"))
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(svc.Auth))
	{
		protected.GET("/me", authHandler.GetMe)
		protected.PATCH("/me", authHandler.UpdateMe)

		// --- Connections & messages ---
		protected.GET("/connections", connectionHandler.ListConnections)
		protected.POST("/connections", ProfessionalOnly(), connectionHandler.CreateConnection)
		protected.PATCH("/connections/:id/status", connectionHandler.UpdateConnectionStatus)

		protected.GET("/connections/:id/messages", messageHandler.ListMessages)
		protected.POST("/connections/:id/messages", RateLimit(messageLimiter, "message"), messageHandler.SendMessage)
		protected.GET("/connections/:id/messages/stream", messageHandler.StreamMessages)
		protected.POST("/messages/:messageId/read", messageHandler.MarkAsRead)
		protected.GET("/messages/unread-count", messageHandler.UnreadCount)

		// --- Professional tools ---
		pro := protected.Group("")
		pro.Use(ProfessionalOnly())
		{
			pro.GET("/clients/:clientId/notes", noteHandler.ListNotes)
			pro.GET("/clients/:clientId/nutrition", nutritionHandler.ClientNutrition)
			pro.POST("/notes", noteHandler.CreateNote)
			pro.PATCH("/notes/:id", noteHandler.UpdateNote)
			pro.DELETE("/notes/:id", noteHandler.DeleteNote)

			pro.POST("/appointments", appointmentHandler.CreateAppointment)
			pro.PATCH("/appointments/:id/status", appointmentHandler.UpdateAppointmentStatus)
			pro.DELETE("/appointments/:id", appointmentHandler.DeleteAppointment)
		}
		protected.GET("/appointments", appointmentHandler.ListAppointments)

		// --- Self tracking ---
		protected.POST("/meals", nutritionHandler.CreateMeal)
		protected.GET("/meals", nutritionHandler.ListMeals)
		protected.DELETE("/meals/:id", nutritionHandler.DeleteMeal)
		protected.POST("/meals/:id/entries", nutritionHandler.AddEntry)
		protected.GET("/entries", nutritionHandler.ListEntries)
		protected.PUT("/entries/:id", nutritionHandler.UpdateEntry)
		protected.DELETE("/entries/:id", nutritionHandler.DeleteEntry)
		protected.POST("/entries/:id/photo", nutritionHandler.RequestEntryPhotoUpload)
		protected.GET("/entries/:id/photo", nutritionHandler.EntryPhotoURL)
		protected.GET("/nutrition/summary", nutritionHandler.DailySummary)

		protected.POST("/water", trackingHandler.LogWater)
		protected.GET("/water", trackingHandler.ListWater)
		protected.DELETE("/water/:id", trackingHandler.DeleteWater)

		protected.POST("/activities", trackingHandler.LogActivity)
		protected.GET("/activities", trackingHandler.ListActivities)
		protected.PUT("/activities/:id", trackingHandler.UpdateActivity)
		protected.DELETE("/activities/:id", trackingHandler.DeleteActivity)

		protected.GET("/goals", trackingHandler.GetGoals)
		protected.PUT("/goals", trackingHandler.UpsertGoals)
		protected.GET("/widget", trackingHandler.WidgetSnapshot)
	}
}

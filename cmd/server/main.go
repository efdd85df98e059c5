package main

import (
	"database/sql"
	"net/http"
	"os"

	"ambudispatch/internal/api"
	"ambudispatch/internal/auth"
	"ambudispatch/internal/eventbus"
	"ambudispatch/internal/logger"
	"ambudispatch/internal/repository"
	"ambudispatch/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"
)

func main() {
	godotenv.Load()
	log := logger.New("server")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal().Msg("DATABASE_URL not set")
	}
	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open DB")
	}
	if err := database.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}

	stripe.Key = os.Getenv("STRIPE_API_KEY")

	occurrenceRepo := repository.NewOccurrenceRepository(database)
	professionalRepo := repository.NewProfessionalRepository(database)
	vehicleRepo := repository.NewVehicleRepository(database)
	jobRepo := repository.NewJobRepository(database)

	bus := eventbus.New()
	defer bus.Close()

	occurrenceSvc := service.NewOccurrenceService(occurrenceRepo, vehicleRepo, bus, logger.New("occurrence"))
	participationSvc := service.NewParticipationService(occurrenceRepo, bus, logger.New("participation"))
	agendaSvc := service.NewAgendaService(occurrenceRepo, professionalRepo)
	authSvc := service.NewAuthService(professionalRepo)
	payoutSvc := service.NewPayoutService(occurrenceRepo, professionalRepo, logger.New("payout"))
	notifySvc := service.NewNotifyService(occurrenceRepo, professionalRepo, logger.New("notify"))
	jobSvc := service.NewJobService(jobRepo, logger.New("jobs"))

	go notifySvc.Run(bus)

	c := cron.New()
	c.AddFunc("0 3 * * *", func() {
		if err := jobSvc.SchedulePayments(); err != nil {
			log.Error().Err(err).Msg("payment sweep failed")
		}
	})
	c.Start()
	defer c.Stop()

	occurrenceHandler := api.NewOccurrenceHandler(occurrenceSvc)
	agendaHandler := api.NewAgendaHandler(agendaSvc, participationSvc)
	authHandler := api.NewAuthHandler(authSvc)
	paymentHandler := api.NewPaymentHandler(payoutSvc)

	r := mux.NewRouter()
	r.Use(auth.RequestLogger(logger.New("http")))

	// Public endpoints
	r.HandleFunc("/api/login", authHandler.Login).Methods("POST")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Authenticated endpoints
	app := r.PathPrefix("/api").Subrouter()
	app.Use(auth.Middleware)
	app.HandleFunc("/occurrences", occurrenceHandler.CreateOccurrence).Methods("POST")
	app.HandleFunc("/occurrences/{id}", occurrenceHandler.GetOccurrence).Methods("GET")
	app.HandleFunc("/occurrences/{id}/confirm", agendaHandler.ConfirmParticipation).Methods("POST")
	app.HandleFunc("/occurrences/{id}/dispatch", occurrenceHandler.DispatchOccurrence).Methods("POST")
	app.HandleFunc("/occurrences/{id}/complete", occurrenceHandler.CompleteOccurrence).Methods("POST")
	app.HandleFunc("/agenda", agendaHandler.GetAgenda).Methods("GET")
	app.HandleFunc("/agenda/unavailability", agendaHandler.SetUnavailability).Methods("PUT")
	app.HandleFunc("/agenda/unavailability/{date}", agendaHandler.ClearUnavailability).Methods("DELETE")
	app.HandleFunc("/slots/{id}/paid", paymentHandler.MarkSlotPaid).Methods("PUT")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info().Str("port", port).Msg("server running")
	if err := http.ListenAndServe(":"+port, cors(r)); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

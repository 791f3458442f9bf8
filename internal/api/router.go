package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/booking"
	"github.com/hackgods/clinic-scheduling/internal/consultation"
	"github.com/hackgods/clinic-scheduling/internal/medicine"
)

type RouterConfig struct {
	Slots        *appointment.SlotStore
	Appointments *appointment.Store
	Booking      *booking.Workflow
	Consultation *consultation.Workflow
	Medicines    medicine.Repository

	PgPool *pgxpool.Pool // optional
	Redis  *redis.Client // optional

	Log            *zap.Logger
	Env            string
	Version        string
	AllowedOrigins []string
	RateLimitRPS   int
	Now            func() time.Time
}

// Handler serves the doctor, patient, admin and medicine endpoints.
type Handler struct {
	slots        *appointment.SlotStore
	appointments *appointment.Store
	booking      *booking.Workflow
	consultation *consultation.Workflow
	medicines    medicine.Repository
	log          *zap.Logger
	now          func() time.Time
}

func NewRouter(cfg RouterConfig) http.Handler {
	h := &Handler{
		slots:        cfg.Slots,
		appointments: cfg.Appointments,
		booking:      cfg.Booking,
		consultation: cfg.Consultation,
		medicines:    cfg.Medicines,
		log:          cfg.Log,
		now:          cfg.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	if cfg.RateLimitRPS > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitRPS, time.Second))
	}

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Doctor surface
	r.Route("/doctors/{doctorID}", func(r chi.Router) {
		r.Get("/slots", h.listSlots)
		r.Post("/slots", h.addSlot)
		r.Put("/slots/{slotID}", h.updateSlot)
		r.Put("/slots/{slotID}/blocked", h.setSlotBlocked)
		r.Delete("/slots/{slotID}", h.deleteSlot)

		r.Get("/appointments", h.listDoctorAppointments)
		r.Get("/appointments/{id}", h.startConsultation)
		r.Post("/appointments/{id}/complete", h.completeConsultation)
		r.Post("/appointments/{id}/cancel", h.doctorCancel)
	})

	// Patient surface
	r.Route("/booking/doctors", func(r chi.Router) {
		r.Get("/", h.searchDoctors)
		r.Get("/{doctorID}/dates", h.availableDates)
		r.Get("/{doctorID}/dates/{date}/times", h.availableTimes)
	})
	r.Route("/patients/{patientID}/appointments", func(r chi.Router) {
		r.Get("/", h.listPatientAppointments)
		r.Post("/", h.bookAppointment)
		r.Post("/{id}/cancel", h.patientCancel)
	})

	// Admin surface
	r.Route("/admin/appointments", func(r chi.Router) {
		r.Get("/", h.listAllAppointments)
		r.Post("/{id}/complete", h.adminComplete)
		r.Post("/{id}/cancel", h.adminCancel)
	})

	// Medicine inventory
	r.Route("/api/medicines", func(r chi.Router) {
		r.Get("/", h.listMedicines)
		r.Post("/", h.createMedicine)
		r.Get("/{id}", h.getMedicine)
		r.Put("/{id}", h.updateMedicine)
		r.Delete("/{id}", h.deleteMedicine)
	})

	return r
}

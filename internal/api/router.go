package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/wisal-aid/coupon-service/internal/api/handlers"
	"github.com/wisal-aid/coupon-service/internal/api/middleware"
	"github.com/wisal-aid/coupon-service/internal/cache"
	"github.com/wisal-aid/coupon-service/internal/repository"
	"github.com/wisal-aid/coupon-service/internal/service"
)

// NewRouter wires repositories, services and handlers onto the HTTP surface.
// Tokens are issued by the institution auth service; this router only
// verifies them and enforces role access.
func NewRouter(db *sql.DB, jwtSecret string, log *logrus.Logger) http.Handler {
	roundRepo := repository.NewRoundRepo(db)
	allocationRepo := repository.NewAllocationRepo(db)
	beneficiaryRepo := repository.NewBeneficiaryRepo(db)
	distributionRepo := repository.NewDistributionRepo(db)
	roundCache := cache.NewRoundContextCache()

	roundService := service.NewRoundService(roundRepo, distributionRepo, allocationRepo, roundCache, log)
	allocationService := service.NewAllocationService(roundRepo, allocationRepo, beneficiaryRepo, roundCache, log)

	roundHandler := handlers.NewRoundHandler(roundService, log)
	allocationHandler := handlers.NewAllocationHandler(allocationService, log)

	staff := middleware.RequireRoles(
		middleware.RoleAdmin, middleware.RoleDistributor, middleware.RoleDeliverer, middleware.RolePublisher)
	admin := middleware.RequireRoles(middleware.RoleAdmin)
	distributor := middleware.RequireRoles(middleware.RoleAdmin, middleware.RoleDistributor)
	deliverer := middleware.RequireRoles(middleware.RoleAdmin, middleware.RoleDeliverer)

	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(jwtSecret))

		r.Route("/distributions/{distributionId}/rounds", func(r chi.Router) {
			r.With(admin).Post("/", roundHandler.Create)
			r.With(staff).Get("/", roundHandler.List)
		})

		r.Route("/rounds/{roundId}", func(r chi.Router) {
			r.With(staff).Get("/", roundHandler.Get)
			r.With(admin).Put("/", roundHandler.Update)
			r.With(admin).Delete("/", roundHandler.Delete)
			r.With(staff).Get("/stats", roundHandler.Stats)

			r.Route("/allocations", func(r chi.Router) {
				r.With(distributor).Post("/", allocationHandler.Allocate)
				r.With(staff).Get("/", allocationHandler.List)
				r.With(deliverer).Post("/deliver", allocationHandler.Deliver)
				r.With(staff).Get("/stats/{statsRoundId}", allocationHandler.Stats)
				r.With(staff).Get("/search/{couponCode}", allocationHandler.Search)
			})
		})
	})

	return r
}

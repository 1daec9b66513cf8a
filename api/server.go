// Package api provides the HTTP REST API server for the pricefeed
// service: live rates, payout calculation, catalog search, pricing
// configuration admin, market news, and WebSocket snapshot streaming.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ecotrade/pricefeed/internal/config"
	"github.com/ecotrade/pricefeed/internal/market"
	"github.com/ecotrade/pricefeed/internal/payout"
	"github.com/ecotrade/pricefeed/internal/source"
	"github.com/ecotrade/pricefeed/internal/storage"
	"github.com/ecotrade/pricefeed/pkg/models"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	quotes *market.Store
	db     *storage.Store
	news   *source.News
	wsHub  *WSHub
	log    *zap.Logger
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, quotes *market.Store, db *storage.Store, news *source.News, log *zap.Logger) *Server {
	srv := &Server{
		cfg:    cfg,
		quotes: quotes,
		db:     db,
		news:   news,
		wsHub:  NewWSHub(log),
		log:    log,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// SnapshotHook returns a callback that streams each published snapshot
// to connected WebSocket clients. Wire it to the market engine.
func (s *Server) SnapshotHook() func(*models.Snapshot) {
	return func(snap *models.Snapshot) {
		s.wsHub.Broadcast(WSMessage{Type: "snapshot", Data: snap})
	}
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	s.log.Info("shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.Server.CORSOrigins) > 0 {
		origins = s.cfg.Server.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/live_rates", s.handleLiveRates)
	r.Post("/calculate", s.handleCalculate)
	r.Get("/converters/search", s.handleSearchConverters)
	r.Get("/news", s.handleNews)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/config", s.handleUpdateConfig)
			r.Post("/converters", s.handleAddConverter)
			r.Delete("/converters/{serial}", s.handleDeleteConverter)
		})
	})

	return r
}

// requireAdmin guards mutating admin endpoints with the configured
// bearer token. Full user auth lives in an external collaborator.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if s.cfg.Admin.Token == "" || token != s.cfg.Admin.Token {
			writeError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.quotes.Snapshot()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":      "ok",
			"last_update": snap.UpdatedAt,
			"ws_clients":  s.wsHub.ClientCount(),
		},
	})
}

// handleLiveRates returns the latest snapshot with the market display
// factor applied to the three PGM quotes. The published snapshot is
// shared, so the response is built on a copy.
func (s *Server) handleLiveRates(w http.ResponseWriter, r *http.Request) {
	conf, err := s.db.PricingConfig(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	snap := s.quotes.Snapshot()
	out := models.Snapshot{
		Metals:    make([]models.Quote, len(snap.Metals)),
		Energy:    snap.Energy,
		Forex:     snap.Forex,
		Raw:       snap.Raw,
		Insight:   snap.Insight,
		UpdatedAt: snap.UpdatedAt,
	}
	for i, q := range snap.Metals {
		if isPGMName(q.Name) {
			q.Price *= conf.FactorMarket
		}
		out.Metals[i] = q
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func isPGMName(name string) bool {
	switch name {
	case "Platinum", "Palladium", "Rhodium":
		return true
	}
	return false
}

// CalculateRequest is the interactive calculator's payload. Weight and
// the three ppm values are required; pointer fields distinguish missing
// from zero so missing input is rejected, never silently defaulted.
type CalculateRequest struct {
	Weight   *float64 `json:"weight"`
	PtPPM    *float64 `json:"pt_ppm"`
	PdPPM    *float64 `json:"pd_ppm"`
	RhPPM    *float64 `json:"rh_ppm"`
	Currency string   `json:"currency"`

	MarginPercent *float64 `json:"margin_percent"`
	DaysOut       *int     `json:"days_out"`

	UseCustomPrice bool    `json:"use_custom_price"`
	CustomPt       float64 `json:"custom_pt"`
	CustomPd       float64 `json:"custom_pd"`
	CustomRh       float64 `json:"custom_rh"`
	CustomUSD      float64 `json:"custom_usd"`
}

// CalculateResponse mirrors the calculator wire contract.
type CalculateResponse struct {
	FinalPrice     float64          `json:"final_price"`
	InterestAmount float64          `json:"interest_amount"`
	RatesUsed      payout.RatesUsed `json:"rates_used"`
	Params         payout.Params    `json:"params"`
	IsCustom       bool             `json:"is_custom"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Weight == nil || req.PtPPM == nil || req.PdPPM == nil || req.RhPPM == nil {
		writeError(w, http.StatusBadRequest, "weight, pt_ppm, pd_ppm and rh_ppm are required")
		return
	}
	if *req.Weight < 0 || *req.PtPPM < 0 || *req.PdPPM < 0 || *req.RhPPM < 0 {
		writeError(w, http.StatusBadRequest, "weight and ppm values must be non-negative")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	if currency != "USD" && currency != "INR" {
		writeError(w, http.StatusBadRequest, "currency must be USD or INR")
		return
	}

	conf, err := s.db.PricingConfig(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := payout.Compute(payout.Request{
		WeightKg:       *req.Weight,
		PtPPM:          *req.PtPPM,
		PdPPM:          *req.PdPPM,
		RhPPM:          *req.RhPPM,
		Currency:       currency,
		MarginPct:      req.MarginPercent,
		DaysOut:        req.DaysOut,
		UseCustomPrice: req.UseCustomPrice,
		CustomPt:       req.CustomPt,
		CustomPd:       req.CustomPd,
		CustomRh:       req.CustomRh,
		CustomUSDRate:  req.CustomUSD,
	}, conf, s.spotPrices(), s.quotes.USDRate(), conf.FactorCalculator)

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: CalculateResponse{
		FinalPrice:     result.FinalPrice,
		InterestAmount: result.Interest,
		RatesUsed:      result.Rates,
		Params:         result.Params,
		IsCustom:       result.IsCustom,
	}})
}

// SearchResult is one catalog hit with its payout computed from the
// configuration defaults and the catalog factor.
type SearchResult struct {
	Serial          string             `json:"serial"`
	Brand           string             `json:"brand"`
	Image           string             `json:"image,omitempty"`
	Weight          float64            `json:"weight"`
	CalculatedPrice float64            `json:"calculated_price"`
	PPM             map[string]float64 `json:"ppm"`
}

func (s *Server) handleSearchConverters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = "USD"
	}

	conf, err := s.db.PricingConfig(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	items, err := s.db.SearchConverters(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	spot := s.spotPrices()
	usdRate := s.quotes.USDRate()
	results := make([]SearchResult, 0, len(items))
	for _, item := range items {
		calc := payout.Compute(payout.Request{
			WeightKg: item.WeightKg,
			PtPPM:    item.PtPPM,
			PdPPM:    item.PdPPM,
			RhPPM:    item.RhPPM,
			Currency: currency,
		}, conf, spot, usdRate, conf.FactorConverter)

		results = append(results, SearchResult{
			Serial:          item.Serial,
			Brand:           item.Brand,
			Image:           item.Image,
			Weight:          item.WeightKg,
			CalculatedPrice: calc.FinalPrice,
			PPM: map[string]float64{
				"pt": item.PtPPM,
				"pd": item.PdPPM,
				"rh": item.RhPPM,
			},
		})
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: results})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	conf, err := s.db.PricingConfig(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: conf})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var conf models.PricingConfig
	if err := json.NewDecoder(r.Body).Decode(&conf); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.db.UpdatePricingConfig(r.Context(), conf); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("pricing configuration updated",
		zap.Float64("margin", conf.DefaultMargin), zap.Int("days", conf.DefaultDaysOut))
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

func (s *Server) handleAddConverter(w http.ResponseWriter, r *http.Request) {
	var c models.Converter
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if c.Serial == "" || c.Brand == "" {
		writeError(w, http.StatusBadRequest, "serial and brand are required")
		return
	}
	if c.WeightKg < 0 || c.PtPPM < 0 || c.PdPPM < 0 || c.RhPPM < 0 {
		writeError(w, http.StatusBadRequest, "weight and ppm values must be non-negative")
		return
	}
	if err := s.db.AddConverter(r.Context(), c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

func (s *Server) handleDeleteConverter(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	if serial == "" {
		writeError(w, http.StatusBadRequest, "serial is required")
		return
	}
	if err := s.db.DeleteConverter(r.Context(), serial); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	headlines := s.news.Headlines(r.Context(), 30)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: headlines})
}

// spotPrices reads the raw per-ounce PGM prices from the quote store.
func (s *Server) spotPrices() payout.SpotPrices {
	return payout.SpotPrices{
		Pt: s.quotes.Spot(models.MetalPlatinum),
		Pd: s.quotes.Spot(models.MetalPalladium),
		Rh: s.quotes.Spot(models.MetalRhodium),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

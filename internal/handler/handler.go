// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the tool layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/model"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/tools"
)

// Toolbox is the set of hotel operations the HTTP API exposes.
type Toolbox interface {
	CheckAvailability(ctx context.Context, roomType, startDate, endDate string) tools.AvailabilityReport
	CreateBooking(ctx context.Context, req model.BookingRequest) tools.Outcome
	CreateRoom(ctx context.Context, req model.CreateRoomRequest) tools.Outcome
	Rooms(ctx context.Context) tools.Outcome
	LookupBooking(ctx context.Context, id string) tools.Outcome
	Weather(ctx context.Context, city string) string
	Call(ctx context.Context, name string, args map[string]any) (map[string]any, error)
}

// PingFunc reports whether a backing dependency is reachable.
type PingFunc func(ctx context.Context) error

// HotelHandler holds all HTTP handlers for the hotel booking API.
type HotelHandler struct {
	tools    Toolbox
	ping     PingFunc
	validate *validator.Validate
	log      *zap.Logger
}

// NewHotelHandler constructs a HotelHandler.
func NewHotelHandler(tb Toolbox, ping PingFunc, log *zap.Logger) *HotelHandler {
	v := validator.New()
	// Report JSON names in validation errors.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &HotelHandler{tools: tb, ping: ping, validate: v, log: log}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// bind decodes and validates a JSON body, writing a 400 on failure.
func (h *HotelHandler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return h.check(w, dst)
}

func (h *HotelHandler) check(w http.ResponseWriter, v any) bool {
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request: " + err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return "invalid request: " + strings.Join(fields, ", ")
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// Home handles GET /
func (h *HotelHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Hotel booking assistant is running. GET /tools lists the available tools.",
	})
}

// Health handles GET /health
// Reports 503 when the database cannot be reached.
func (h *HotelHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			h.log.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateRoom handles POST /rooms
// Registers a room category. Refusals come back as success=false with a reason.
func (h *HotelHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRoomRequest
	if !h.bind(w, r, &req) {
		return
	}

	out := h.tools.CreateRoom(r.Context(), req)
	writeJSON(w, http.StatusOK, map[string]any{"success": out.Success, "room_type": out.Result})
}

// ListRooms handles GET /rooms
func (h *HotelHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tools.Rooms(r.Context()))
}

// CheckAvailability handles POST /availability
func (h *HotelHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req model.AvailabilityRequest
	if !h.bind(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.tools.CheckAvailability(r.Context(), req.RoomType, req.StartDate, req.EndDate))
}

// CheckAvailabilityQuery handles GET /availability?room_type=&start_date=&end_date=
func (h *HotelHandler) CheckAvailabilityQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := model.AvailabilityRequest{
		RoomType:  q.Get("room_type"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}
	if !h.check(w, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.tools.CheckAvailability(r.Context(), req.RoomType, req.StartDate, req.EndDate))
}

// CreateBooking handles POST /booking
// Books one room; a refused booking is success=false with the reason in result.
func (h *HotelHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req model.BookingRequest
	if !h.bind(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.tools.CreateBooking(r.Context(), req))
}

// GetBooking handles GET /booking/{id}
func (h *HotelHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	out := h.tools.LookupBooking(r.Context(), chi.URLParam(r, "id"))
	if !out.Success {
		writeJSON(w, http.StatusNotFound, out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Weather handles POST /weather
func (h *HotelHandler) Weather(w http.ResponseWriter, r *http.Request) {
	var req model.WeatherRequest
	if !h.bind(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": h.tools.Weather(r.Context(), req.City)})
}

// ListTools handles GET /tools
func (h *HotelHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tools.Specs)
}

// CallTool handles POST /tools/{name}
// The body is the tool's arguments as a JSON object; it may be empty.
func (h *HotelHandler) CallTool(w http.ResponseWriter, r *http.Request) {
	h.callTool(w, r, chi.URLParam(r, "name"))
}

// tool serves one named tool, so it can carry its own middleware.
func (h *HotelHandler) tool(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.callTool(w, r, name)
	}
}

func (h *HotelHandler) callTool(w http.ResponseWriter, r *http.Request, name string) {
	args := map[string]any{}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.tools.Call(r.Context(), name, args)
	if err != nil {
		switch {
		case errors.Is(err, tools.ErrUnknownTool):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, tools.ErrBadArguments):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error("tool call failed", zap.String("tool", name), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "tool call failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ─── Routing ──────────────────────────────────────────────────────────────────

func passthrough(next http.Handler) http.Handler { return next }

// Routes registers the API on r. adminOnly guards room creation and
// idempotent wraps booking submits, on the REST routes and on the matching
// tool routes alike; either may be nil.
func (h *HotelHandler) Routes(r chi.Router, adminOnly, idempotent func(http.Handler) http.Handler) {
	if adminOnly == nil {
		adminOnly = passthrough
	}
	if idempotent == nil {
		idempotent = passthrough
	}

	r.Get("/", h.Home)
	r.Get("/health", h.Health)

	r.Route("/rooms", func(r chi.Router) {
		r.With(adminOnly).Post("/", h.CreateRoom)
		r.Get("/", h.ListRooms)
	})

	r.Post("/availability", h.CheckAvailability)
	r.Get("/availability", h.CheckAvailabilityQuery)

	r.Route("/booking", func(r chi.Router) {
		r.With(idempotent).Post("/", h.CreateBooking)
		r.Get("/{id}", h.GetBooking)
	})

	r.Post("/weather", h.Weather)

	r.Route("/tools", func(r chi.Router) {
		r.Get("/", h.ListTools)
		r.With(adminOnly).Post("/"+tools.CreateRoomTool, h.tool(tools.CreateRoomTool))
		r.With(idempotent).Post("/"+tools.CreateBookingTool, h.tool(tools.CreateBookingTool))
		r.Post("/{name}", h.CallTool)
	})
}

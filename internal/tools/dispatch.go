package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/model"
)

// Tool names.
const (
	CheckAvailabilityTool = "check_availability"
	CreateBookingTool     = "create_booking"
	CreateRoomTool        = "create_room"
	RoomOverviewTool      = "get_room_overview"
	WeatherTool           = "get_weather"
)

var (
	// ErrUnknownTool is returned by Call for a name with no tool behind it.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrBadArguments is returned by Call when arguments are missing or mistyped.
	ErrBadArguments = errors.New("bad tool arguments")
)

// Param describes one tool argument.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // string, integer or number
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Spec describes a tool.
type Spec struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"parameters"`
}

const dateHint = " Accepts most date spellings, e.g. 2025-06-10 or June 10, 2025."

// Specs lists every tool the assistant can call.
var Specs = []Spec{
	{
		Name:        CheckAvailabilityTool,
		Description: "Check how many rooms of a type are free for every night between two dates and estimate the price.",
		Params: []Param{
			{Name: "room_type", Type: "string", Description: "Room category, e.g. standard, deluxe or suite.", Required: true},
			{Name: "start_date", Type: "string", Description: "Check-in date." + dateHint, Required: true},
			{Name: "end_date", Type: "string", Description: "Check-out date." + dateHint, Required: true},
		},
	},
	{
		Name:        CreateBookingTool,
		Description: "Book one room of a type for a guest between two dates.",
		Params: []Param{
			{Name: "guest_name", Type: "string", Description: "Full name of the guest.", Required: true},
			{Name: "room_type", Type: "string", Description: "Room category to book.", Required: true},
			{Name: "start_date", Type: "string", Description: "Check-in date." + dateHint, Required: true},
			{Name: "end_date", Type: "string", Description: "Check-out date." + dateHint, Required: true},
			{Name: "contact", Type: "string", Description: "Optional phone number or email of the guest."},
		},
	},
	{
		Name:        CreateRoomTool,
		Description: "Register a new room category with its number of rooms and nightly price.",
		Params: []Param{
			{Name: "room_type", Type: "string", Description: "Name of the new room category.", Required: true},
			{Name: "total_rooms", Type: "integer", Description: "Number of identical rooms, at least 1.", Required: true},
			{Name: "price_per_night", Type: "number", Description: "Price for one night, greater than 0.", Required: true},
		},
	},
	{
		Name:        RoomOverviewTool,
		Description: "List every room category with its room count and nightly price.",
	},
	{
		Name:        WeatherTool,
		Description: "Get the current weather for a city.",
		Params: []Param{
			{Name: "city", Type: "string", Description: "City name, e.g. Goa.", Required: true},
		},
	},
}

var schemaTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"integer": genai.TypeInteger,
	"number":  genai.TypeNumber,
}

// Declarations converts Specs into Gemini function declarations.
func Declarations() []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(Specs))
	for _, s := range Specs {
		decl := &genai.FunctionDeclaration{Name: s.Name, Description: s.Description}
		if len(s.Params) > 0 {
			schema := &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
			for _, p := range s.Params {
				schema.Properties[p.Name] = &genai.Schema{Type: schemaTypes[p.Type], Description: p.Description}
				if p.Required {
					schema.Required = append(schema.Required, p.Name)
				}
			}
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}
	return decls
}

// GeminiTools wraps Declarations for a genai model.
func GeminiTools() []*genai.Tool {
	return []*genai.Tool{{FunctionDeclarations: Declarations()}}
}

// Call runs the named tool with loosely typed arguments, as decoded from JSON
// or a Gemini function call, and returns its result as a plain map.
func (t *Toolkit) Call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	a := arguments(args)
	switch name {
	case CheckAvailabilityTool:
		roomType, start, end, err := a.strings3("room_type", "start_date", "end_date")
		if err != nil {
			return nil, err
		}
		return toMap(t.CheckAvailability(ctx, roomType, start, end))

	case CreateBookingTool:
		guest, err := a.str("guest_name", true)
		if err != nil {
			return nil, err
		}
		roomType, start, end, err := a.strings3("room_type", "start_date", "end_date")
		if err != nil {
			return nil, err
		}
		contact, err := a.str("contact", false)
		if err != nil {
			return nil, err
		}
		req := model.BookingRequest{GuestName: guest, RoomType: roomType, StartDate: start, EndDate: end}
		if contact != "" {
			req.Contact = &contact
		}
		return toMap(t.CreateBooking(ctx, req))

	case CreateRoomTool:
		roomType, err := a.str("room_type", true)
		if err != nil {
			return nil, err
		}
		total, err := a.integer("total_rooms")
		if err != nil {
			return nil, err
		}
		price, err := a.number("price_per_night")
		if err != nil {
			return nil, err
		}
		return toMap(t.CreateRoom(ctx, model.CreateRoomRequest{RoomType: roomType, TotalRooms: total, PricePerNight: price}))

	case RoomOverviewTool:
		return map[string]any{"result": t.RoomOverview(ctx)}, nil

	case WeatherTool:
		city, err := a.str("city", true)
		if err != nil {
			return nil, err
		}
		return map[string]any{"result": t.Weather(ctx, city)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

// Dispatch answers a Gemini function call. Failures are reported to the model
// in the response body rather than aborting the conversation.
func (t *Toolkit) Dispatch(ctx context.Context, call genai.FunctionCall) genai.FunctionResponse {
	t.log.Info("tool call", zap.String("tool", call.Name), zap.Any("args", call.Args))
	result, err := t.Call(ctx, call.Name, call.Args)
	if err != nil {
		t.log.Warn("tool call rejected", zap.String("tool", call.Name), zap.Error(err))
		result = map[string]any{"error": err.Error()}
	}
	return genai.FunctionResponse{Name: call.Name, Response: result}
}

type arguments map[string]any

func (a arguments) str(key string, required bool) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("%w: %s is required", ErrBadArguments, key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrBadArguments, key)
	}
	if required && strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s is required", ErrBadArguments, key)
	}
	return s, nil
}

func (a arguments) strings3(k1, k2, k3 string) (string, string, string, error) {
	var out [3]string
	for i, k := range []string{k1, k2, k3} {
		s, err := a.str(k, true)
		if err != nil {
			return "", "", "", err
		}
		out[i] = s
	}
	return out[0], out[1], out[2], nil
}

func (a arguments) number(key string) (float64, error) {
	switch v := a[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", ErrBadArguments, key)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("%w: %s is required", ErrBadArguments, key)
	}
	return 0, fmt.Errorf("%w: %s must be a number", ErrBadArguments, key)
}

// integer accepts whole numbers only; JSON and Gemini both deliver them as float64.
func (a arguments) integer(key string) (int, error) {
	f, err := a.number(key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be a whole number", ErrBadArguments, key)
	}
	return int(f), nil
}

// toMap round-trips v through JSON so the result only holds the plain values
// a Gemini function response can carry.
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode tool result: %w", err)
	}
	return m, nil
}

// Command agent is a terminal chat with the hotel assistant. The language
// model decides which tool to call; the tools run here against the database.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/config"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/database"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/logger"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/repository"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/service"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/tools"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/weather"
)

// maxToolRounds bounds how many consecutive tool calls one user turn may trigger.
const maxToolRounds = 5

const instructions = `You are the front desk assistant of a hotel. Use the tools to check availability,
book rooms, register room types, describe the rooms on offer and report the weather.
Always check availability before booking. Confirm the guest's name and dates before
calling create_booking, and quote the booking id and total price afterwards.
Prices are in Indian rupees. Today is %s.`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Gemini.APIKey == "" {
		log.Fatal("GEMINI_API_KEY is not set")
	}

	// Keep the terminal for the conversation; only warnings and above are logged.
	logg, err := logger.New("warn", "console", "hotel-agent")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database, logg)
	if err != nil {
		logg.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	svc := service.NewHotelService(repository.NewRoomRepository(pool), repository.NewBookingRepository(pool), logg)
	toolkit := tools.New(svc, weather.NewClient(cfg.Weather, logg), logg)

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		logg.Fatal("gemini client", zap.Error(err))
	}
	defer client.Close()

	model := client.GenerativeModel(cfg.Gemini.Model)
	model.Tools = tools.GeminiTools()
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(fmt.Sprintf(instructions, time.Now().Format("Monday, 2006-01-02")))},
	}
	chat := model.StartChat()

	fmt.Println("Hotel assistant ready. Ask about rooms, availability, bookings or the weather. Ctrl-D to quit.")
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nyou> ")
		if !in.Scan() {
			fmt.Println()
			return
		}
		prompt := strings.TrimSpace(in.Text())
		if prompt == "" {
			continue
		}

		reply, err := converse(ctx, chat, toolkit, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Printf("assistant> sorry, something went wrong: %v\n", err)
			continue
		}
		fmt.Printf("assistant> %s\n", reply)
	}
}

// converse sends one user turn and resolves any tool calls the model makes
// until it answers in text.
func converse(ctx context.Context, chat *genai.ChatSession, toolkit *tools.Toolkit, prompt string) (string, error) {
	resp, err := chat.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	for round := 0; ; round++ {
		calls, text := split(resp)
		if len(calls) == 0 {
			return text, nil
		}
		if round == maxToolRounds {
			return "", fmt.Errorf("model kept calling tools after %d rounds", maxToolRounds)
		}

		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			parts = append(parts, toolkit.Dispatch(ctx, call))
		}
		if resp, err = chat.SendMessage(ctx, parts...); err != nil {
			return "", fmt.Errorf("send tool results: %w", err)
		}
	}
}

// split separates function calls from text in the first candidate.
func split(resp *genai.GenerateContentResponse) ([]genai.FunctionCall, string) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ""
	}
	var (
		calls []genai.FunctionCall
		sb    strings.Builder
	)
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			calls = append(calls, p)
		case genai.Text:
			sb.WriteString(string(p))
		}
	}
	return calls, strings.TrimSpace(sb.String())
}

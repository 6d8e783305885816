package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/umbralith/userpulse/internal/profile"
	"github.com/umbralith/userpulse/plugin/behavior"
	"github.com/umbralith/userpulse/plugin/llm"
)

const (
	basePrompt = "You are a helpful assistant."
	agentName  = "demo-agent"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// 1. Load configuration
	log.Println("Loading configuration...")
	instanceProfile := &profile.Profile{Mode: "dev"}
	instanceProfile.FromEnv()

	if !instanceProfile.IsLLMEnabled() {
		log.Fatal("LLM is not enabled. Please set USERPULSE_LLM_API_KEY")
	}

	// 2. Create the chat client
	log.Println("Creating chat client...")
	chatClient, err := llm.NewClientFromProfile(instanceProfile)
	if err != nil {
		log.Fatalf("Failed to create chat client: %v", err)
	}

	// 3. Create the behavior tracker (memory-only, no mirror)
	log.Println("Creating behavior tracker...")
	tracker := behavior.NewTracker(nil, nil)
	defer tracker.Close()

	userID := os.Getenv("USERPULSE_DEMO_USER")
	if userID == "" {
		userID = "demo-user"
	}

	ctx := context.Background()

	fmt.Println("\n========================================")
	fmt.Println("  userpulse demo agent")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  /feedback <score> <text>  rate the last answer (1-5)")
	fmt.Println("  /profile                  show your tracked profile")
	fmt.Println("  /report                   show reliability metrics")
	fmt.Println("  /quit                     exit")
	fmt.Println()

	var history []llm.Message
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("%s> ", userID)
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch {
		case input == "/quit" || input == "/exit":
			printReport(ctx, tracker)
			return
		case input == "/profile":
			printProfile(ctx, tracker, userID)
			continue
		case input == "/report":
			printReport(ctx, tracker)
			continue
		case strings.HasPrefix(input, "/feedback"):
			handleFeedback(ctx, tracker, userID, input)
			continue
		}

		prompt := tracker.PersonalizePrompt(ctx, userID, basePrompt)
		if notes := strings.TrimPrefix(prompt, basePrompt); notes != "" {
			fmt.Println("  [personalization]" + strings.ReplaceAll(notes, "\n", "\n  "))
		}

		startTime := time.Now()
		response, err := chatClient.Chat(ctx, llm.FormatMessages(prompt, input, history))
		if err != nil {
			log.Printf("Chat failed: %v\n", err)
			continue
		}
		fmt.Println(response)
		fmt.Printf("(%v)\n", time.Since(startTime).Round(time.Millisecond))

		tracker.Record(ctx, behavior.RecordInteraction{
			UserID:     userID,
			Kind:       behavior.KindMessage,
			AgentName:  agentName,
			InputText:  input,
			OutputText: response,
		})

		history = append(history, llm.UserMessage(input), llm.AssistantMessage(response))
		// Keep the chat context bounded.
		if len(history) > 20 {
			history = history[len(history)-20:]
		}
	}
}

// handleFeedback parses "/feedback <score> <text>", records it as a scored
// interaction and folds it into the user's preferences.
func handleFeedback(ctx context.Context, tracker *behavior.Tracker, userID, input string) {
	rest := strings.TrimSpace(strings.TrimPrefix(input, "/feedback"))
	fields := strings.SplitN(rest, " ", 2)
	if len(fields) < 2 {
		fmt.Println("usage: /feedback <score> <text>")
		return
	}
	score, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		fmt.Println("usage: /feedback <score> <text>")
		return
	}
	feedback := strings.TrimSpace(fields[1])

	tracker.Record(ctx, behavior.RecordInteraction{
		UserID:            userID,
		Kind:              behavior.KindSubmission,
		AgentName:         agentName,
		SatisfactionScore: &score,
		Feedback:          &feedback,
	})
	tracker.LearnFromFeedback(ctx, userID, feedback, score)

	userProfile := tracker.GetProfile(ctx, userID)
	fmt.Println("Preferences updated:")
	if len(userProfile.Preferences) == 0 {
		fmt.Println("  (none)")
		return
	}
	for name, value := range userProfile.Preferences {
		fmt.Printf("  %s = %s\n", name, value)
	}
}

func printProfile(ctx context.Context, tracker *behavior.Tracker, userID string) {
	userProfile := tracker.GetProfile(ctx, userID)
	out, err := json.MarshalIndent(userProfile, "", "  ")
	if err != nil {
		log.Printf("Failed to render profile: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func printReport(ctx context.Context, tracker *behavior.Tracker) {
	report, err := tracker.ReliabilityMetrics(ctx)
	if err != nil {
		fmt.Println("No interactions recorded yet.")
		return
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("Failed to render report: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

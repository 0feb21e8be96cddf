package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iroslabs/iros-engine/internal/completion"
	"github.com/iroslabs/iros-engine/internal/config"
	"github.com/iroslabs/iros-engine/internal/engine"
	"github.com/iroslabs/iros-engine/internal/gate"
	"github.com/iroslabs/iros-engine/internal/logging"
	"github.com/iroslabs/iros-engine/internal/signals"
	"github.com/iroslabs/iros-engine/internal/state"
)

// #region main

func main() {
	configPath := flag.String("config", "iros.yaml", "path to config file")
	conversationID := flag.String("conversation", "", "conversation id (random if empty)")
	noRender := flag.Bool("no-render", false, "skip the completion call, print decisions only")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	store, err := state.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	convID := *conversationID
	if convID == "" {
		convID = uuid.New().String()
	}

	var completer completion.Completer
	if !*noRender {
		client, err := completion.NewOllamaClient(cfg.Completion.Host, cfg.Completion.Model)
		if err != nil {
			log.Fatalf("failed to create completion client: %v", err)
		}
		completer = client
	}

	eng := engine.New(
		signals.NewKeywordExtractor(),
		cfg.PolicyConfig(),
		cfg.NorthStarConfig(),
		cfg.GateConfig(),
		cfg.MirrorConfig(),
	)

	fmt.Println("Iros intent controller ready.")
	fmt.Printf("  DB: %s | Conversation: %s\n", cfg.DBPath, convID)
	fmt.Println("Type a message (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			break
		}

		runTurn(store, eng, completer, cfg, convID, text)
	}
}

// #endregion main

// #region run-turn

func runTurn(
	store *state.Store,
	eng *engine.Engine,
	completer completion.Completer,
	cfg config.Config,
	convID, text string,
) {
	snap, err := store.LoadSnapshot(convID)
	if err != nil {
		log.Printf("[ENGINE] error loading snapshot: %v", err)
		return
	}

	history, err := store.RecentTurns(convID, cfg.Gate.LookbackTurns)
	if err != nil {
		log.Printf("[ENGINE] error loading history: %v", err)
	}

	turnID := uuid.New().String()
	decision := eng.RunTurn(snap, engine.TurnInput{
		ConversationID: convID,
		TurnID:         turnID,
		Text:           text,
		History:        toGateTurns(history),
	})

	log.Printf("[ENGINE] decision=%s gate=%s anchor=%s stage=%s",
		decision.Transition.Decision, decision.Gate.Mode,
		decision.North.Status, decision.Snapshot.LastDepthStage)

	reply := ""
	if completer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Completion.Timeout.Std())
		reply, err = completer.Complete(ctx, completion.BuildSystemPrompt(decision), text)
		cancel()
		if err != nil {
			log.Printf("[ENGINE] completion error: %v", err)
		} else {
			fmt.Printf("\n%s\n\n", reply)
		}
	}

	persistTurn(store, convID, turnID, text, reply, decision)
}

// #endregion run-turn

// #region persist

func persistTurn(store *state.Store, convID, turnID, text, reply string, decision engine.TurnDecision) {
	// Write-next-snapshot is the atomic step: losing the optimistic race
	// means another turn for this conversation already committed.
	if err := store.SaveSnapshot(decision.Snapshot, decision.Snapshot.Version); err != nil {
		log.Printf("[ENGINE] snapshot commit error: %v", err)
	}

	metaJSON, _ := json.Marshal(decision.Mirror)
	if err := store.AppendTurn(convID, state.TurnRecord{
		TurnID: turnID, Role: "user", Text: text, MetaJSON: string(metaJSON),
	}); err != nil {
		log.Printf("[ENGINE] turn append error: %v", err)
	}
	if reply != "" {
		if err := store.AppendTurn(convID, state.TurnRecord{
			TurnID: turnID, Role: "assistant", Text: reply,
		}); err != nil {
			log.Printf("[ENGINE] turn append error: %v", err)
		}
	}

	signalsJSON, _ := json.Marshal(decision.Signals)
	if err := logging.LogDecision(store.DB(), logging.DecisionEntry{
		ConversationID: convID,
		TurnID:         turnID,
		Decision:       string(decision.Transition.Decision),
		GateMode:       string(decision.Gate.Mode),
		AnchorStatus:   string(decision.North.Status),
		Reason:         decision.Transition.Reason,
		SignalsJSON:    string(signalsJSON),
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		log.Printf("[ENGINE] logging error: %v", err)
	}
}

// #endregion persist

// #region helpers

func toGateTurns(records []state.TurnRecord) []gate.Turn {
	turns := make([]gate.Turn, len(records))
	for i, rec := range records {
		turns[i] = gate.Turn{Role: rec.Role, Text: rec.Text}
	}
	return turns
}

// #endregion helpers

package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/iroslabs/iros-engine/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "iros_engine.db", "path to the engine database")
	limit := flag.Int("n", 10, "rows to show per section")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect [-db path] [-n rows] <conversation-id>")
		os.Exit(2)
	}
	convID := flag.Arg(0)

	store, err := state.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	printSnapshot(store, convID)
	printTurns(store, convID, *limit)
	printDecisions(store.DB(), convID, *limit)
}

// #endregion main

// #region snapshot

func printSnapshot(store *state.Store, convID string) {
	snap, err := store.LoadSnapshot(convID)
	if err != nil {
		log.Fatalf("load snapshot: %v", err)
	}

	fmt.Printf("Snapshot %s (version %d)\n", snap.ConversationID, snap.Version)
	fmt.Printf("  stage=%s loop=%s gate=%s anchor_event=%s\n",
		snap.LastDepthStage, snap.LastSpinLoop, snap.TGate, snap.AnchorEvent)
	fmt.Printf("  north: status=%s text=%q confidence=%.2f evidence=%d\n",
		snap.North.Status, snap.North.Text, snap.North.Confidence, len(snap.North.Evidence))
	fmt.Printf("  deep_mode=%v since=%s\n\n", snap.DeepModeActive, snap.DeepActiveSince)
}

// #endregion snapshot

// #region turns

func printTurns(store *state.Store, convID string, limit int) {
	turns, err := store.RecentTurns(convID, limit)
	if err != nil {
		log.Fatalf("recent turns: %v", err)
	}

	fmt.Printf("Recent turns (%d)\n", len(turns))
	for _, t := range turns {
		text := t.Text
		if len(text) > 60 {
			text = text[:60] + "…"
		}
		fmt.Printf("  [%s] %-9s %s\n", t.CreatedAt.Format("15:04:05"), t.Role, text)
	}
	fmt.Println()
}

// #endregion turns

// #region decisions

func printDecisions(db *sql.DB, convID string, limit int) {
	rows, err := db.Query(
		`SELECT turn_id, decision, gate_mode, anchor_status, reason, created_at
		 FROM decision_log WHERE conversation_id = ? ORDER BY id DESC LIMIT ?`,
		convID, limit,
	)
	if err != nil {
		log.Fatalf("query decisions: %v", err)
	}
	defer rows.Close()

	fmt.Println("Decision log")
	for rows.Next() {
		var turnID, decision, gateMode, anchorStatus, createdAt string
		var reason sql.NullString
		if err := rows.Scan(&turnID, &decision, &gateMode, &anchorStatus, &reason, &createdAt); err != nil {
			log.Fatalf("scan decision: %v", err)
		}
		fmt.Printf("  %s decision=%-16s gate=%-6s anchor=%-9s %s\n",
			shortID(turnID), decision, gateMode, anchorStatus, reason.String)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("iterate decisions: %v", err)
	}
}

// #endregion decisions

// #region helpers

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion helpers

// report fetches the live state snapshot from a running quoter's monitor
// endpoint and prints the session PnL report.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"mm-agent-go/engine"
)

type stateMessage struct {
	Timestamp time.Time    `json:"timestamp"`
	State     engine.State `json:"state"`
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "quoter monitor base URL")
	asJSON := flag.Bool("json", false, "dump the raw snapshot as JSON")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/state")
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch state: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "fetch state: %s\n", resp.Status)
		os.Exit(1)
	}

	var msg stateMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		fmt.Fprintf(os.Stderr, "decode state: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out, _ := json.MarshalIndent(msg, "", "  ")
		fmt.Println(string(out))
		return
	}

	st := msg.State
	rep := st.Session
	fmt.Printf("%s  %s  as of %s\n", st.Symbol, st.Mode, msg.Timestamp.Format(time.RFC3339))
	if st.ModeReason != "" {
		fmt.Printf("mode reason: %s\n", st.ModeReason)
	}
	fmt.Printf("inventory %.4f @ %.2f  risk %.2f\n",
		st.Inventory.Quantity, st.Inventory.AvgPrice, st.Inventory.InventoryRisk)
	fmt.Printf("pnl: realized %.4f  unrealized %.4f  spreadCaptured %.4f  adverseCost %.4f\n",
		rep.RealizedPnL, st.Inventory.UnrealizedPnL, rep.SpreadCaptured, rep.AdverseCost)
	fmt.Printf("trades %d  winRate %.1f%%  quoteToFill %.4f  sharpe %.3f\n",
		rep.TradeCount, rep.WinRate*100, rep.QuoteToFillRatio, rep.RiskAdjustedReturn)
	fmt.Printf("vol %.4f (%s)  toxicity %.3f (%s)\n",
		st.Volatility, st.Regime, st.ToxicityScore, st.ToxicityAction)
	if st.Breaker.Active {
		fmt.Printf("breaker: TRIPPED since %s (%s)\n",
			st.Breaker.TriggeredAt.Format(time.RFC3339), st.Breaker.Reason)
	}
}

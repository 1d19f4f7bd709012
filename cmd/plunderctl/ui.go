package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"plunder/internal/economy"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

type progressPayload struct {
	Progress []economy.WorkProgressView `json:"progress"`
}

type leaderboardPayload struct {
	Rows []economy.LeaderboardRow `json:"rows"`
}

func renderBalances(raw map[string]any) error {
	v, err := decodeInto[economy.BalancesView](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== %s ==\n", v.UserID)
	fmt.Printf("Wallet:       %s coins\n", comma(v.Balance))
	fmt.Printf("Bank:         %s / %s (level %d)\n", comma(v.BankBalance), comma(v.BankCap), v.BankLevel)
	fmt.Printf("Daily streak: %d\n", v.DailyStreak)
	fmt.Println()
	return nil
}

func renderDaily(raw map[string]any) error {
	v, err := decodeInto[economy.DailyResult](raw)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Daily claimed: %s coins (base %s + streak bonus %s).",
		comma(v.Total), comma(v.Base), comma(v.Bonus)))
	fmt.Printf("Streak: %d  Balance: %s coins\n", v.Streak, comma(v.NewBalance))
	return nil
}

func renderDeposit(raw map[string]any) error {
	v, err := decodeInto[economy.DepositResult](raw)
	if err != nil {
		return err
	}
	if v.Requested > 0 && v.Applied < v.Requested {
		printWarn(fmt.Sprintf("Bank is at capacity: applied %s of %s requested.",
			comma(v.Applied), comma(v.Requested)))
	}
	fmt.Printf("Wallet: %s  Bank: %s", comma(v.NewBalance), comma(v.NewBankBalance))
	if v.BankCap > 0 {
		fmt.Printf(" / %s", comma(v.BankCap))
	}
	fmt.Println()
	return nil
}

func renderTransfer(raw map[string]any) error {
	v, err := decodeInto[economy.TransferResult](raw)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Sent %s coins to %s.", comma(v.Amount), v.To))
	fmt.Printf("Your balance: %s coins\n", comma(v.FromBalance))
	return nil
}

func renderWork(raw map[string]any) error {
	v, err := decodeInto[economy.WorkResult](raw)
	if err != nil {
		return err
	}
	if v.Item != "" {
		accent.Printf("\n== %s ==\n", strings.ToUpper(v.Skill))
		fmt.Printf("Found:  %s (%s)\n", v.Item, v.Rarity)
		fmt.Printf("Value:  %s coins (base %s + tool %s + level %s)\n",
			comma(v.TotalValue), comma(v.BaseValue), comma(v.ToolBonus), comma(v.LevelBonus))
	}
	fmt.Printf("XP:     +%d (level %d, %d/%d to next)\n", v.XPGained, v.Level, v.XP, v.NextLevelXP)
	if v.LevelsGained > 0 {
		printSuccess(fmt.Sprintf("Level up! %s is now level %d.", v.Skill, v.Level))
	}
	if v.NewBalance > 0 {
		fmt.Printf("Balance: %s coins\n", comma(v.NewBalance))
	}
	fmt.Println()
	return nil
}

func renderRoll(raw map[string]any) error {
	v, err := decodeInto[economy.RollResult](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== ROLL ==")
	fmt.Printf("You: %d  Dealer: %d\n", v.UserRoll, v.DealerRoll)
	printOutcome(v.Outcome, v.Delta, v.NewBalance)
	return nil
}

func renderBlackjack(raw map[string]any) error {
	v, err := decodeInto[economy.BlackjackResult](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== BLACKJACK ==")
	fmt.Printf("You:    %s (%d)\n", strings.Join(v.PlayerHand, " "), v.PlayerTotal)
	fmt.Printf("Dealer: %s (%d)\n", strings.Join(v.DealerHand, " "), v.DealerTotal)
	printOutcome(v.Outcome, v.Delta, v.NewBalance)
	return nil
}

func renderSlots(raw map[string]any) error {
	v, err := decodeInto[economy.SlotsResult](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== SLOTS ==")
	for row := 0; row < 3; row++ {
		fmt.Printf("| %-11s | %-11s | %-11s |\n", v.Board[row*3], v.Board[row*3+1], v.Board[row*3+2])
	}
	if v.Multiplier > 0 {
		fmt.Printf("Multiplier: x%d\n", v.Multiplier)
	}
	printOutcome(v.Outcome, v.Delta, v.NewBalance)
	return nil
}

func printOutcome(outcome string, delta, balance int64) {
	switch outcome {
	case "win", "natural":
		printSuccess(fmt.Sprintf("%s! %s coins", strings.ToUpper(outcome), signedComma(delta)))
	case "tie", "push":
		printInfo("Push. Stake returned.")
	default:
		danger.Printf("%s. %s coins\n", strings.ToUpper(outcome), signedComma(delta))
	}
	fmt.Printf("Balance: %s coins\n\n", comma(balance))
}

func renderSteal(raw map[string]any) error {
	v, err := decodeInto[economy.StealResult](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== STEAL ==")
	fmt.Printf("Target: %s  Odds: %.0f%%\n", v.Target, v.FinalRate*100)
	if v.Success {
		printSuccess(fmt.Sprintf("Got away with %s coins!", comma(v.Amount)))
	} else {
		danger.Printf("Caught! Dropped %s coins fleeing.\n", comma(v.Amount))
	}
	fmt.Printf("Balance: %s coins\n\n", comma(v.ThiefBalance))
	return nil
}

func renderHeist(raw map[string]any) error {
	v, err := decodeInto[economy.HeistView](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== HEIST %s ==\n", v.ID)
	fmt.Printf("Status:   %s\n", v.Status)
	fmt.Printf("Leader:   %s\n", v.CreatedBy)
	fmt.Printf("Resolves: %s\n", v.ResolvesAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Pot:      %s coins\n", comma(v.TotalStake))
	fmt.Printf("%-20s %14s\n", "MEMBER", "STAKE")
	for _, m := range v.Members {
		fmt.Printf("%-20s %14s\n", truncate(m.UserID, 20), comma(m.Stake))
	}
	fmt.Println()
	return nil
}

func renderHeistOutcome(raw map[string]any) error {
	v, err := decodeInto[economy.HeistOutcome](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== HEIST %s SETTLED ==\n", v.ID)
	if v.Success {
		printSuccess(fmt.Sprintf("Success! Loot: %s coins (odds were %.0f%%).", comma(v.Loot), v.SuccessRate*100))
	} else {
		danger.Printf("Busted. All stakes lost (odds were %.0f%%).\n", v.SuccessRate*100)
	}
	fmt.Printf("%-20s %12s %12s %-10s\n", "MEMBER", "STAKE", "PAYOUT", "NOTES")
	for _, m := range v.Members {
		notes := ""
		if m.Betrayed {
			notes = "betrayed"
		}
		fmt.Printf("%-20s %12s %12s %-10s\n", truncate(m.UserID, 20), comma(m.Stake), comma(m.Payout), notes)
	}
	fmt.Println()
	return nil
}

func renderStats(raw map[string]any) error {
	v, err := decodeInto[economy.PlayerStats](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== STATS: %s ==\n", v.UserID)

	fmt.Printf("%-12s %8s %8s %8s %14s %14s\n", "GAME", "PLAYED", "WON", "LOST", "TOTAL WON", "TOTAL LOST")
	for _, game := range []string{economy.GameRoll, economy.GameBlackjack, economy.GameSlots} {
		g := v.Games[game]
		fmt.Printf("%-12s %8d %8d %8d %14s %14s\n", game, g.Played, g.Won, g.Lost, comma(g.TotalWon), comma(g.TotalLost))
	}

	fmt.Println()
	accent.Println("Stealing")
	fmt.Printf("Attempts: %d (%d hits, %d busts)  Stolen: %s  Lost fleeing: %s\n",
		v.Steal.Attempted, v.Steal.Successful, v.Steal.Failed,
		comma(v.Steal.TotalStolen), comma(v.Steal.LostToFailedSteals))
	fmt.Printf("Robbed %d times for %s coins\n", v.Steal.TimesStolenFrom, comma(v.Steal.AmountStolenByOthers))

	fmt.Println()
	accent.Println("Heists")
	fmt.Printf("Joined: %d (%d won, %d lost)  Backstabs: %d  Betrayed: %d\n",
		v.Heist.Joined, v.Heist.Won, v.Heist.Lost, v.Heist.Backstabs, v.Heist.TimesBetrayed)
	fmt.Printf("Loot gained: %s  Loot lost: %s\n", comma(v.Heist.LootGained), comma(v.Heist.LootLost))

	fmt.Println()
	accent.Println("Skills")
	for _, p := range v.Progress {
		fmt.Printf("%-10s level %-4d %d/%d XP  (%d actions, %s earned)\n",
			p.Skill, p.Level, p.XP, p.NextLevelXP, p.TotalActions, comma(p.TotalValueEarned))
	}

	if len(v.Inventory) > 0 {
		fmt.Println()
		accent.Println("Inventory")
		for _, item := range v.Inventory {
			fmt.Printf("%-24s x%d\n", item.ItemName, item.Quantity)
		}
	}
	fmt.Println()
	return nil
}

func renderShop(raw map[string]any) error {
	var payload struct {
		Tools            []economy.ToolItem `json:"tools"`
		Buffs            []economy.BuffItem `json:"buffs"`
		BankUpgradePrice int64              `json:"bank_upgrade_price"`
		BankNextCap      int64              `json:"bank_next_cap"`
	}
	if err := remarshal(raw, &payload); err != nil {
		return err
	}
	accent.Println("\n== SHOP ==")
	fmt.Printf("Bank upgrade: %s coins (next cap %s)\n\n", comma(payload.BankUpgradePrice), comma(payload.BankNextCap))

	accent.Println("Tools")
	fmt.Printf("%-20s %-18s %12s %10s %8s\n", "KEY", "NAME", "PRICE", "SKILL", "LVL REQ")
	for _, t := range payload.Tools {
		fmt.Printf("%-20s %-18s %12s %10s %8d\n", t.Key, t.Name, comma(t.Price), t.Skill, t.LevelRequired)
	}

	fmt.Println()
	accent.Println("Buffs")
	fmt.Printf("%-20s %-18s %12s %8s %-12s\n", "KEY", "NAME", "PRICE", "MULT", "LASTS")
	for _, b := range payload.Buffs {
		lasts := b.Duration.String()
		if b.Uses > 0 {
			lasts = fmt.Sprintf("%d uses", b.Uses)
		}
		fmt.Printf("%-20s %-18s %12s %7.2fx %-12s\n", b.Key, b.Name, comma(b.Price), b.Multiplier, lasts)
	}
	fmt.Println()
	return nil
}

func renderPurchase(raw map[string]any) error {
	v, err := decodeInto[economy.PurchaseResult](raw)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Bought %s for %s coins.", v.ItemName, comma(v.Price)))
	if v.BankLevel > 0 {
		fmt.Printf("Bank level %d, cap %s coins\n", v.BankLevel, comma(v.BankCap))
	}
	fmt.Printf("Balance: %s coins\n", comma(v.NewBalance))
	return nil
}

func renderEquipped(raw map[string]any) error {
	v, err := decodeInto[economy.EquippedTools](raw)
	if err != nil {
		return err
	}
	if v.Pickaxe != "" {
		fmt.Printf("Pickaxe:     %s\n", v.Pickaxe)
	}
	if v.FishingRod != "" {
		fmt.Printf("Fishing rod: %s\n", v.FishingRod)
	}
	return nil
}

func renderLeaderboard(raw map[string]any, title string) error {
	out, err := decodeInto[leaderboardPayload](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== TOP: %s ==\n", strings.ToUpper(title))
	if len(out.Rows) == 0 {
		printInfo("No rows yet.")
		return nil
	}
	fmt.Printf("%-6s %-24s %14s\n", "RANK", "PLAYER", "AMOUNT")
	for _, row := range out.Rows {
		fmt.Printf("%-6d %-24s %14s\n", row.Rank, truncate(row.UserID, 24), comma(row.Value))
	}
	fmt.Println()
	return nil
}

func decodeInto[T any](in any) (T, error) {
	var out T
	err := remarshal(in, &out)
	return out, err
}

func remarshal(in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func comma(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return sign + b.String()
}

func signedComma(v int64) string {
	if v > 0 {
		return "+" + comma(v)
	}
	return comma(v)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

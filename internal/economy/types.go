package economy

import "time"

// BalancesView is the wallet + bank snapshot returned by read endpoints and
// embedded in mutation results so callers never have to re-query.
type BalancesView struct {
	UserID      string `json:"user_id"`
	Balance     int64  `json:"balance"`
	BankBalance int64  `json:"bank_balance"`
	BankCap     int64  `json:"bank_cap"`
	BankLevel   int    `json:"bank_level"`
	DailyStreak int    `json:"daily_streak"`
}

type DailyResult struct {
	Base       int64 `json:"base"`
	Bonus      int64 `json:"bonus"`
	Total      int64 `json:"total"`
	Streak     int   `json:"streak"`
	NewBalance int64 `json:"new_balance"`
}

type DepositResult struct {
	Requested      int64 `json:"requested"`
	Applied        int64 `json:"applied"`
	BankFull       bool  `json:"bank_full"`
	NewBalance     int64 `json:"new_balance"`
	NewBankBalance int64 `json:"new_bank_balance"`
	BankCap        int64 `json:"bank_cap"`
}

type WithdrawResult struct {
	Amount         int64 `json:"amount"`
	NewBalance     int64 `json:"new_balance"`
	NewBankBalance int64 `json:"new_bank_balance"`
}

type TransferResult struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      int64  `json:"amount"`
	FromBalance int64  `json:"from_balance"`
	ToBalance   int64  `json:"to_balance"`
}

type WorkResult struct {
	Skill        string `json:"skill"`
	Item         string `json:"item"`
	Rarity       string `json:"rarity"`
	BaseValue    int64  `json:"base_value"`
	ToolBonus    int64  `json:"tool_bonus"`
	LevelBonus   int64  `json:"level_bonus"`
	TotalValue   int64  `json:"total_value"`
	BaseXP       int64  `json:"base_xp"`
	XPGained     int64  `json:"xp_gained"`
	LevelsGained int    `json:"levels_gained"`
	Level        int    `json:"level"`
	XP           int64  `json:"xp"`
	NextLevelXP  int64  `json:"next_level_xp"`
	Tool         string `json:"tool,omitempty"`
	NewBalance   int64  `json:"new_balance"`
}

type GameStatsView struct {
	Played    int64 `json:"played"`
	Won       int64 `json:"won"`
	Lost      int64 `json:"lost"`
	TotalWon  int64 `json:"total_won"`
	TotalLost int64 `json:"total_lost"`
}

type RollResult struct {
	Stake      int64         `json:"stake"`
	UserRoll   int           `json:"user_roll"`
	DealerRoll int           `json:"dealer_roll"`
	Outcome    string        `json:"outcome"`
	Delta      int64         `json:"delta"`
	NewBalance int64         `json:"new_balance"`
	Stats      GameStatsView `json:"stats"`
}

type BlackjackResult struct {
	Stake       int64         `json:"stake"`
	PlayerHand  []string      `json:"player_hand"`
	DealerHand  []string      `json:"dealer_hand"`
	PlayerTotal int           `json:"player_total"`
	DealerTotal int           `json:"dealer_total"`
	Outcome     string        `json:"outcome"`
	Delta       int64         `json:"delta"`
	NewBalance  int64         `json:"new_balance"`
	Stats       GameStatsView `json:"stats"`
}

type SlotsResult struct {
	Stake      int64         `json:"stake"`
	Board      []string      `json:"board"`
	Outcome    string        `json:"outcome"`
	Multiplier int64         `json:"multiplier"`
	Delta      int64         `json:"delta"`
	NewBalance int64         `json:"new_balance"`
	Stats      GameStatsView `json:"stats"`
}

type StealResult struct {
	Thief         string  `json:"thief"`
	Target        string  `json:"target"`
	Success       bool    `json:"success"`
	Amount        int64   `json:"amount"`
	BaseRate      float64 `json:"base_rate"`
	FinalRate     float64 `json:"final_rate"`
	ThiefBalance  int64   `json:"thief_balance"`
	TargetBalance int64   `json:"target_balance"`
}

// Heist lifecycle states.
const (
	HeistOpen      = "open"
	HeistResolving = "resolving"
	HeistClosed    = "closed"
)

type HeistMember struct {
	UserID   string    `json:"user_id"`
	Stake    int64     `json:"stake"`
	JoinedAt time.Time `json:"joined_at"`
}

type HeistView struct {
	ID         string        `json:"id"`
	Status     string        `json:"status"`
	CreatedBy  string        `json:"created_by"`
	CreatedAt  time.Time     `json:"created_at"`
	ResolvesAt time.Time     `json:"resolves_at"`
	TotalStake int64         `json:"total_stake"`
	Members    []HeistMember `json:"members"`
}

type HeistMemberOutcome struct {
	UserID     string `json:"user_id"`
	Stake      int64  `json:"stake"`
	Betrayed   bool   `json:"betrayed"`
	Payout     int64  `json:"payout"`
	NewBalance int64  `json:"new_balance"`
}

type HeistOutcome struct {
	ID          string               `json:"id"`
	Success     bool                 `json:"success"`
	SuccessRate float64              `json:"success_rate"`
	Loot        int64                `json:"loot"`
	Members     []HeistMemberOutcome `json:"members"`
}

type WorkProgressView struct {
	Skill            string `json:"skill"`
	Level            int    `json:"level"`
	XP               int64  `json:"xp"`
	NextLevelXP      int64  `json:"next_level_xp"`
	TotalActions     int64  `json:"total_actions"`
	TotalValueEarned int64  `json:"total_value_earned"`
}

type StealStatsView struct {
	Attempted            int64 `json:"attempted"`
	Successful           int64 `json:"successful"`
	Failed               int64 `json:"failed"`
	TotalStolen          int64 `json:"total_stolen"`
	LostToFailedSteals   int64 `json:"lost_to_failed_steals"`
	TimesStolenFrom      int64 `json:"times_stolen_from"`
	AmountStolenByOthers int64 `json:"amount_stolen_by_others"`
}

type HeistStatsView struct {
	Joined        int64 `json:"joined"`
	Won           int64 `json:"won"`
	Lost          int64 `json:"lost"`
	Backstabs     int64 `json:"backstabs"`
	TimesBetrayed int64 `json:"times_betrayed"`
	LootGained    int64 `json:"loot_gained"`
	LootLost      int64 `json:"loot_lost"`
}

type PlayerStats struct {
	UserID    string                   `json:"user_id"`
	Games     map[string]GameStatsView `json:"games"`
	Steal     StealStatsView           `json:"steal"`
	Heist     HeistStatsView           `json:"heist"`
	Progress  []WorkProgressView       `json:"progress"`
	Inventory []InventoryItem          `json:"inventory"`
}

type InventoryItem struct {
	ItemName string `json:"item_name"`
	Quantity int64  `json:"quantity"`
}

type EquippedTools struct {
	Pickaxe    string `json:"pickaxe,omitempty"`
	FishingRod string `json:"fishing_rod,omitempty"`
}

type PurchaseResult struct {
	ItemKey    string `json:"item_key"`
	ItemName   string `json:"item_name"`
	Price      int64  `json:"price"`
	NewBalance int64  `json:"new_balance"`
	BankLevel  int    `json:"bank_level,omitempty"`
	BankCap    int64  `json:"bank_cap,omitempty"`
}

type BuffView struct {
	BuffType   string     `json:"buff_type"`
	Multiplier float64    `json:"multiplier"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	UsesLeft   *int       `json:"uses_left,omitempty"`
}

// LeaderboardRow is one ranked entry; Value is the board's metric (net
// worth, total stolen, or heist loot).
type LeaderboardRow struct {
	Rank   int64  `json:"rank"`
	UserID string `json:"user_id"`
	Value  int64  `json:"value"`
}

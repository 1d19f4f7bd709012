package economy

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration parses TOML duration strings like "1h30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Rules holds every gameplay policy knob: odds tables, cooldown durations,
// leveling curve, payout multipliers, and the shop catalog. Engines never
// hard-code these; a TOML file may override any subset of the defaults.
type Rules struct {
	Daily DailyRules `toml:"daily"`
	Bank  BankRules  `toml:"bank"`
	Work  WorkRules  `toml:"work"`
	Games GameRules  `toml:"games"`
	Steal StealRules `toml:"steal"`
	Heist HeistRules `toml:"heist"`
	Shop  ShopRules  `toml:"shop"`
}

type DailyRules struct {
	BaseReward int64 `toml:"base_reward"`
	BonusCap   int64 `toml:"bonus_cap"`
}

type BankRules struct {
	BaseCap               int64   `toml:"base_cap"`
	CapPerLevel           int64   `toml:"cap_per_level"`
	UpgradeBasePrice      int64   `toml:"upgrade_base_price"`
	UpgradePriceIncrement int64   `toml:"upgrade_price_increment"`
	HourlyInterestRate    float64 `toml:"hourly_interest_rate"`
}

type RarityTier struct {
	Name     string   `toml:"name"`
	Items    []string `toml:"items"`
	MinValue int64    `toml:"min_value"`
	MaxValue int64    `toml:"max_value"`
	Weight   int      `toml:"weight"`
}

type WorkRules struct {
	Cooldown        Duration     `toml:"cooldown"`
	XPMin           int          `toml:"xp_min"`
	XPMax           int          `toml:"xp_max"`
	LevelBonusRate  float64      `toml:"level_bonus_rate"`
	BaseThresholdXP int64        `toml:"base_threshold_xp"`
	ThresholdGrowth float64      `toml:"threshold_growth"`
	Mining          []RarityTier `toml:"mining"`
	Fishing         []RarityTier `toml:"fishing"`
}

type CountPayout struct {
	Count      int   `toml:"count"`
	Multiplier int64 `toml:"multiplier"`
}

type GameRules struct {
	RollMax                int           `toml:"roll_max"`
	RollWinMultiplier      int64         `toml:"roll_win_multiplier"`
	BlackjackDeckCopies    int           `toml:"blackjack_deck_copies"`
	BlackjackStandAt       int           `toml:"blackjack_stand_at"`
	BlackjackNaturalPayout float64       `toml:"blackjack_natural_payout"`
	SlotsSymbols           []string      `toml:"slots_symbols"`
	SlotsSpecials          []string      `toml:"slots_specials"`
	SlotsLineMultiplier    int64         `toml:"slots_line_multiplier"`
	SlotsCountPayouts      []CountPayout `toml:"slots_count_payouts"`
}

type StealTier struct {
	MinPct float64 `toml:"min_pct"`
	MaxPct float64 `toml:"max_pct"`
	Weight int     `toml:"weight"`
}

type StealRules struct {
	BaseRate              float64     `toml:"base_rate"`
	WealthBonus           float64     `toml:"wealth_bonus"`
	WealthCap             int64       `toml:"wealth_cap"`
	ExtraWealthBonus      float64     `toml:"extra_wealth_bonus"`
	ExtraWealthCap        int64       `toml:"extra_wealth_cap"`
	MinBalance            int64       `toml:"min_balance"`
	ThiefCooldown         Duration    `toml:"thief_cooldown"`
	VictimCooldown        Duration    `toml:"victim_cooldown"`
	Tiers                 []StealTier `toml:"tiers"`
	LargeBalanceThreshold int64       `toml:"large_balance_threshold"`
	LargeBalanceDampen    float64     `toml:"large_balance_dampen"`
	FailPenaltyMin        float64     `toml:"fail_penalty_min"`
	FailPenaltyMax        float64     `toml:"fail_penalty_max"`
}

type HeistRules struct {
	JoinWindow       Duration `toml:"join_window"`
	BaseChance       float64  `toml:"base_chance"`
	ChancePerMember  float64  `toml:"chance_per_member"`
	ChanceCap        float64  `toml:"chance_cap"`
	LootMultiplier   float64  `toml:"loot_multiplier"`
	BetrayalChance   float64  `toml:"betrayal_chance"`
	BetrayerBonusPct float64  `toml:"betrayer_bonus_pct"`
}

type ToolItem struct {
	Key           string  `toml:"key"`
	Name          string  `toml:"name"`
	Slot          string  `toml:"slot"`
	Skill         string  `toml:"skill"`
	Price         int64   `toml:"price"`
	LevelRequired int     `toml:"level_required"`
	Bonus         float64 `toml:"bonus"`
}

type BuffItem struct {
	Key        string   `toml:"key"`
	Name       string   `toml:"name"`
	BuffType   string   `toml:"buff_type"`
	Multiplier float64  `toml:"multiplier"`
	Duration   Duration `toml:"duration"`
	Uses       int      `toml:"uses"`
	Price      int64    `toml:"price"`
}

type ShopRules struct {
	Tools []ToolItem `toml:"tools"`
	Buffs []BuffItem `toml:"buffs"`
}

// DefaultRules returns the stock configuration.
func DefaultRules() Rules {
	return Rules{
		Daily: DailyRules{
			BaseReward: 1_000,
			BonusCap:   1_000_000,
		},
		Bank: BankRules{
			BaseCap:               1_000_000,
			CapPerLevel:           500_000,
			UpgradeBasePrice:      500_000,
			UpgradePriceIncrement: 500_000,
			HourlyInterestRate:    0.001,
		},
		Work: WorkRules{
			Cooldown:        Duration{30 * time.Second},
			XPMin:           5,
			XPMax:           10,
			LevelBonusRate:  0.05,
			BaseThresholdXP: 50,
			ThresholdGrowth: 1.25,
			Mining: []RarityTier{
				{Name: "Common", Items: []string{"dirt", "sand", "cobblestone", "wood", "gravel", "andesite", "granite", "diorite"}, MinValue: 50, MaxValue: 100, Weight: 60},
				{Name: "Uncommon", Items: []string{"coal", "redstone", "lapis lazuli", "copper", "tin", "flint", "charcoal", "clay"}, MinValue: 100, MaxValue: 150, Weight: 25},
				{Name: "Rare", Items: []string{"iron", "gold", "nether quartz", "platinum", "golden apple", "amethyst", "glowstone", "honeycomb"}, MinValue: 150, MaxValue: 250, Weight: 10},
				{Name: "Epic", Items: []string{"diamond", "emerald", "mythril", "sponge", "heart of the sea", "totem of undying", "prismarine shard"}, MinValue: 250, MaxValue: 500, Weight: 4},
				{Name: "Legendary", Items: []string{"ancient debris", "netherite scrap", "nether star", "dragon egg", "elytra", "beacon", "enchanted book"}, MinValue: 1_500, MaxValue: 2_000, Weight: 1},
			},
			Fishing: []RarityTier{
				{Name: "Common", Items: []string{"cod", "salmon", "pufferfish", "tropical fish"}, MinValue: 1, MaxValue: 10, Weight: 50},
				{Name: "Uncommon", Items: []string{"clownfish", "swordfish", "piranha", "catfish", "bass"}, MinValue: 10, MaxValue: 30, Weight: 30},
				{Name: "Rare", Items: []string{"enchanted book", "fishing rod", "name tag", "magma cream", "ender pearl"}, MinValue: 30, MaxValue: 75, Weight: 15},
				{Name: "Epic", Items: []string{"treasure map", "nautilus shell", "heart of the sea", "ghost fish", "fishing lure"}, MinValue: 75, MaxValue: 200, Weight: 4},
				{Name: "Legendary", Items: []string{"trident", "enchanted golden apple", "dragon egg", "elder guardian", "rainbow fish"}, MinValue: 200, MaxValue: 500, Weight: 1},
			},
		},
		Games: GameRules{
			RollMax:                100,
			RollWinMultiplier:      2,
			BlackjackDeckCopies:    24,
			BlackjackStandAt:       17,
			BlackjackNaturalPayout: 1.5,
			SlotsSymbols:           []string{"apple", "orange", "pear", "lemon", "melon", "grape", "strawberry", "cherry"},
			SlotsSpecials:          []string{"melon", "cherry", "pear"},
			SlotsLineMultiplier:    2,
			SlotsCountPayouts: []CountPayout{
				{Count: 3, Multiplier: 1},
				{Count: 4, Multiplier: 5},
				{Count: 5, Multiplier: 35},
				{Count: 6, Multiplier: 100},
				{Count: 7, Multiplier: 1_000},
				{Count: 8, Multiplier: 10_000},
				{Count: 9, Multiplier: 100_000},
			},
		},
		Steal: StealRules{
			BaseRate:         0.5,
			WealthBonus:      0.25,
			WealthCap:        500_000,
			ExtraWealthBonus: 0.10,
			ExtraWealthCap:   10_000_000,
			MinBalance:       100_000,
			ThiefCooldown:    Duration{time.Hour},
			VictimCooldown:   Duration{6 * time.Hour},
			Tiers: []StealTier{
				{MinPct: 0.05, MaxPct: 0.075, Weight: 85},
				{MinPct: 0.075, MaxPct: 0.10, Weight: 10},
				{MinPct: 0.10, MaxPct: 0.15, Weight: 4},
				{MinPct: 0.15, MaxPct: 0.20, Weight: 1},
			},
			LargeBalanceThreshold: 10_000_000,
			LargeBalanceDampen:    0.1,
			FailPenaltyMin:        0.10,
			FailPenaltyMax:        0.20,
		},
		Heist: HeistRules{
			JoinWindow:       Duration{60 * time.Second},
			BaseChance:       0.35,
			ChancePerMember:  0.05,
			ChanceCap:        0.55,
			LootMultiplier:   2.0,
			BetrayalChance:   0.05,
			BetrayerBonusPct: 0.5,
		},
		Shop: ShopRules{
			Tools: []ToolItem{
				{Key: "pickaxe_wooden", Name: "Wooden Pickaxe", Slot: SlotPickaxe, Skill: SkillMining, Price: 10_000, LevelRequired: 10, Bonus: 0.10},
				{Key: "pickaxe_stone", Name: "Stone Pickaxe", Slot: SlotPickaxe, Skill: SkillMining, Price: 20_000, LevelRequired: 20, Bonus: 0.20},
				{Key: "fishing_rod_wooden", Name: "Wooden Rod", Slot: SlotFishingRod, Skill: SkillFishing, Price: 10_000, LevelRequired: 5, Bonus: 0.10},
			},
			Buffs: []BuffItem{
				{Key: "buff_xp_small", Name: "XP Tonic", BuffType: BuffXP, Multiplier: 1.5, Duration: Duration{time.Hour}, Price: 25_000},
				{Key: "buff_xp_large", Name: "XP Elixir", BuffType: BuffXP, Multiplier: 2.0, Duration: Duration{30 * time.Minute}, Price: 60_000},
				{Key: "buff_guard", Name: "Night Watch", BuffType: BuffStealResistance, Multiplier: 0.5, Duration: Duration{6 * time.Hour}, Price: 50_000},
				{Key: "buff_gloves", Name: "Sticky Gloves", BuffType: BuffStealSuccess, Multiplier: 1.25, Uses: 3, Price: 40_000},
			},
		},
	}
}

// LoadRules returns the defaults overlaid with a TOML file. An empty path
// returns the defaults untouched.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	if _, err := toml.DecodeFile(path, &rules); err != nil {
		return rules, fmt.Errorf("decode rules file %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return rules, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}

// Validate rejects configurations that would break engine invariants.
func (r Rules) Validate() error {
	if r.Work.ThresholdGrowth <= 1.0 {
		return fmt.Errorf("work.threshold_growth must be > 1.0, got %v", r.Work.ThresholdGrowth)
	}
	if r.Work.BaseThresholdXP <= 0 {
		return fmt.Errorf("work.base_threshold_xp must be positive")
	}
	if r.Work.XPMin <= 0 || r.Work.XPMax < r.Work.XPMin {
		return fmt.Errorf("work xp range [%d, %d] is invalid", r.Work.XPMin, r.Work.XPMax)
	}
	if len(r.Work.Mining) == 0 || len(r.Work.Fishing) == 0 {
		return fmt.Errorf("work rarity tables must not be empty")
	}
	if r.Games.RollMax <= 0 {
		return fmt.Errorf("games.roll_max must be positive")
	}
	if len(r.Steal.Tiers) == 0 {
		return fmt.Errorf("steal.tiers must not be empty")
	}
	if r.Heist.ChanceCap < r.Heist.BaseChance {
		return fmt.Errorf("heist.chance_cap below heist.base_chance")
	}
	for _, tool := range r.Shop.Tools {
		if tool.Slot != SlotPickaxe && tool.Slot != SlotFishingRod {
			return fmt.Errorf("shop tool %s has unknown slot %q", tool.Key, tool.Slot)
		}
	}
	return nil
}

// tiersForSkill returns the work rarity table for a skill.
func (r Rules) tiersForSkill(skill string) []RarityTier {
	if skill == SkillFishing {
		return r.Work.Fishing
	}
	return r.Work.Mining
}

// BankCapForLevel computes the deposit cap for a bank level.
func (r Rules) BankCapForLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	return r.Bank.BaseCap + int64(level-1)*r.Bank.CapPerLevel
}

// BankUpgradePrice computes the price of the next bank upgrade.
func (r Rules) BankUpgradePrice(level int) int64 {
	if level < 1 {
		level = 1
	}
	return r.Bank.UpgradeBasePrice + int64(level-1)*r.Bank.UpgradePriceIncrement
}

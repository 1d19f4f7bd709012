package economy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Catalog returns the purchasable items and the caller's next bank upgrade
// price.
func (s *Service) Catalog(ctx context.Context, userID string) (map[string]any, error) {
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return nil, err
	}
	var level int
	err := s.db.QueryRow(ctx, `
		SELECT bank_level FROM bank_accounts WHERE user_id = $1`, userID).Scan(&level)
	if err != nil {
		return nil, fmt.Errorf("query bank level: %w", err)
	}
	return map[string]any{
		"tools":              s.rules.Shop.Tools,
		"buffs":              s.rules.Shop.Buffs,
		"bank_upgrade_price": s.rules.BankUpgradePrice(level),
		"bank_next_cap":      s.rules.BankCapForLevel(level + 1),
	}, nil
}

// BuyBankUpgrade raises the bank cap one level at the scaling price.
func (s *Service) BuyBankUpgrade(ctx context.Context, userID string) (PurchaseResult, error) {
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return PurchaseResult{}, err
	}
	var res PurchaseResult
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		if _, err := lockAccounts(ctx, tx, []string{userID}); err != nil {
			return err
		}
		var level int
		err := tx.QueryRow(ctx, `
			SELECT bank_level FROM bank_accounts
			WHERE user_id = $1 FOR UPDATE`, userID).Scan(&level)
		if err != nil {
			return fmt.Errorf("lock bank account: %w", err)
		}
		price := s.rules.BankUpgradePrice(level)
		bal, err := addBalance(ctx, tx, userID, -price)
		if err != nil {
			return err
		}
		newLevel := level + 1
		newCap := s.rules.BankCapForLevel(newLevel)
		_, err = tx.Exec(ctx, `
			UPDATE bank_accounts SET bank_level = $2, bank_cap = $3, updated_at = now()
			WHERE user_id = $1`, userID, newLevel, newCap)
		if err != nil {
			return fmt.Errorf("upgrade bank: %w", err)
		}
		res = PurchaseResult{
			ItemKey: "bank_upgrade", ItemName: "Bank Upgrade",
			Price: price, NewBalance: bal, BankLevel: newLevel, BankCap: newCap,
		}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	s.log.Info("bank upgraded", "user", userID, "level", res.BankLevel, "price", res.Price)
	return res, nil
}

// BuyItem purchases a tool or buff by catalog key. Tools are gated by skill
// level and land in the inventory; buffs take effect immediately.
func (s *Service) BuyItem(ctx context.Context, userID, itemKey string, now time.Time) (PurchaseResult, error) {
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return PurchaseResult{}, err
	}
	for _, tool := range s.rules.Shop.Tools {
		if tool.Key == itemKey {
			return s.buyTool(ctx, userID, tool)
		}
	}
	for _, buff := range s.rules.Shop.Buffs {
		if buff.Key == itemKey {
			return s.buyBuff(ctx, userID, buff, now)
		}
	}
	return PurchaseResult{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemKey)
}

func (s *Service) buyTool(ctx context.Context, userID string, tool ToolItem) (PurchaseResult, error) {
	var res PurchaseResult
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		if _, err := lockAccounts(ctx, tx, []string{userID}); err != nil {
			return err
		}
		var level int
		err := tx.QueryRow(ctx, `
			SELECT level FROM work_progress
			WHERE user_id = $1 AND skill = $2`, userID, tool.Skill).Scan(&level)
		if err != nil {
			return fmt.Errorf("query skill level: %w", err)
		}
		if level < tool.LevelRequired {
			return fmt.Errorf("%w: %s needs %s level %d, you are %d",
				ErrLevelRequired, tool.Name, tool.Skill, tool.LevelRequired, level)
		}
		bal, err := addBalance(ctx, tx, userID, -tool.Price)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO inventory (user_id, item_name, quantity)
			VALUES ($1, $2, 1)
			ON CONFLICT (user_id, item_name) DO UPDATE SET quantity = inventory.quantity + 1`,
			userID, tool.Key)
		if err != nil {
			return fmt.Errorf("add to inventory: %w", err)
		}
		res = PurchaseResult{ItemKey: tool.Key, ItemName: tool.Name, Price: tool.Price, NewBalance: bal}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	s.log.Info("tool bought", "user", userID, "item", tool.Key)
	return res, nil
}

func (s *Service) buyBuff(ctx context.Context, userID string, item BuffItem, now time.Time) (PurchaseResult, error) {
	var res PurchaseResult
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		if _, err := lockAccounts(ctx, tx, []string{userID}); err != nil {
			return err
		}
		bal, err := addBalance(ctx, tx, userID, -item.Price)
		if err != nil {
			return err
		}
		var expiresAt *time.Time
		if item.Duration.Duration > 0 {
			t := now.Add(item.Duration.Duration)
			expiresAt = &t
		}
		var usesLeft *int
		if item.Uses > 0 {
			u := item.Uses
			usesLeft = &u
		}
		if err := grantBuff(ctx, tx, userID, item.BuffType, item.Multiplier, expiresAt, usesLeft); err != nil {
			return err
		}
		res = PurchaseResult{ItemKey: item.Key, ItemName: item.Name, Price: item.Price, NewBalance: bal}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	s.log.Info("buff bought", "user", userID, "item", item.Key, "type", item.BuffType)
	return res, nil
}

// checkOwnership maps an inventory lookup to a domain error. Only a missing
// row or a drained quantity means the item is not owned; anything else is a
// storage failure and keeps its cause.
func checkOwnership(qty int64, err error, itemKey string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotOwned, itemKey)
	}
	if err != nil {
		return fmt.Errorf("query inventory: %w", err)
	}
	if qty < 1 {
		return fmt.Errorf("%w: %s", ErrNotOwned, itemKey)
	}
	return nil
}

// EquipTool slots an owned tool for its skill, replacing the previous one.
func (s *Service) EquipTool(ctx context.Context, userID, itemKey string) (EquippedTools, error) {
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return EquippedTools{}, err
	}
	var tool *ToolItem
	for i := range s.rules.Shop.Tools {
		if s.rules.Shop.Tools[i].Key == itemKey {
			tool = &s.rules.Shop.Tools[i]
			break
		}
	}
	if tool == nil {
		return EquippedTools{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemKey)
	}

	var out EquippedTools
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		var qty int64
		err := tx.QueryRow(ctx, `
			SELECT quantity FROM inventory
			WHERE user_id = $1 AND item_name = $2`, userID, itemKey).Scan(&qty)
		if err := checkOwnership(qty, err, itemKey); err != nil {
			return err
		}
		q := fmt.Sprintf(`
			UPDATE equipped_tools SET %s = $2 WHERE user_id = $1
			RETURNING pickaxe, fishing_rod`, tool.Slot)
		var pickaxe, rod *string
		if err := tx.QueryRow(ctx, q, userID, itemKey).Scan(&pickaxe, &rod); err != nil {
			return fmt.Errorf("equip tool: %w", err)
		}
		if pickaxe != nil {
			out.Pickaxe = *pickaxe
		}
		if rod != nil {
			out.FishingRod = *rod
		}
		return nil
	})
	if err != nil {
		return EquippedTools{}, err
	}
	s.log.Info("tool equipped", "user", userID, "item", itemKey, "slot", tool.Slot)
	return out, nil
}

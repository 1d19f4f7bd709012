package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Balances returns the wallet + bank snapshot for a user, creating the
// account rows on first sight.
func (s *Service) Balances(ctx context.Context, userID string) (BalancesView, error) {
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return BalancesView{}, err
	}
	var v BalancesView
	err := s.db.QueryRow(ctx, `
		SELECT a.user_id, a.balance, a.daily_streak, b.bank_balance, b.bank_cap, b.bank_level
		FROM accounts a
		JOIN bank_accounts b ON b.user_id = a.user_id
		WHERE a.user_id = $1`, userID).
		Scan(&v.UserID, &v.Balance, &v.DailyStreak, &v.BankBalance, &v.BankCap, &v.BankLevel)
	if errors.Is(err, pgx.ErrNoRows) {
		return BalancesView{}, ErrAccountNotFound
	}
	if err != nil {
		return BalancesView{}, fmt.Errorf("query balances: %w", err)
	}
	return v, nil
}

// Transfer moves coins between two wallets. Both rows are locked in user_id
// order so concurrent opposing transfers cannot deadlock.
func (s *Service) Transfer(ctx context.Context, from, to string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, fmt.Errorf("%w: amount must be positive", ErrInvalidStake)
	}
	if from == to {
		return TransferResult{}, fmt.Errorf("%w: cannot transfer to yourself", ErrInvalidTarget)
	}
	if err := s.EnsureAccount(ctx, from); err != nil {
		return TransferResult{}, err
	}
	if err := s.EnsureAccount(ctx, to); err != nil {
		return TransferResult{}, err
	}

	var res TransferResult
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		if _, err := lockAccounts(ctx, tx, []string{from, to}); err != nil {
			return err
		}
		fromBal, err := addBalance(ctx, tx, from, -amount)
		if err != nil {
			return err
		}
		toBal, err := addBalance(ctx, tx, to, amount)
		if err != nil {
			return err
		}
		res = TransferResult{From: from, To: to, Amount: amount, FromBalance: fromBal, ToBalance: toBal}
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}
	s.log.Info("transfer", "from", from, "to", to, "amount", amount)
	return res, nil
}

// clampDeposit limits a deposit to the bank's remaining capacity. A full
// bank yields zero.
func clampDeposit(requested, bankBalance, bankCap int64) int64 {
	room := bankCap - bankBalance
	if room <= 0 {
		return 0
	}
	if requested > room {
		return room
	}
	return requested
}

// Deposit moves coins from the wallet into the bank, clamped to remaining
// capacity. Depositing into a full bank applies zero and is not an error.
func (s *Service) Deposit(ctx context.Context, userID string, amount int64) (DepositResult, error) {
	if amount <= 0 {
		return DepositResult{}, fmt.Errorf("%w: amount must be positive", ErrInvalidStake)
	}
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return DepositResult{}, err
	}

	var res DepositResult
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		if _, err := lockAccounts(ctx, tx, []string{userID}); err != nil {
			return err
		}
		var bankBal, bankCap int64
		err := tx.QueryRow(ctx, `
			SELECT bank_balance, bank_cap FROM bank_accounts
			WHERE user_id = $1 FOR UPDATE`, userID).Scan(&bankBal, &bankCap)
		if err != nil {
			return fmt.Errorf("lock bank account: %w", err)
		}
		applied := clampDeposit(amount, bankBal, bankCap)
		res = DepositResult{Requested: amount, Applied: applied, BankCap: bankCap}
		if applied <= 0 {
			res.BankFull = true
			var bal int64
			if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE user_id = $1`, userID).Scan(&bal); err != nil {
				return fmt.Errorf("query balance: %w", err)
			}
			res.NewBalance = bal
			res.NewBankBalance = bankBal
			return nil
		}
		bal, err := addBalance(ctx, tx, userID, -applied)
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
			UPDATE bank_accounts SET bank_balance = bank_balance + $1, updated_at = now()
			WHERE user_id = $2 RETURNING bank_balance`, applied, userID).Scan(&bankBal); err != nil {
			return fmt.Errorf("credit bank: %w", err)
		}
		res.NewBalance = bal
		res.NewBankBalance = bankBal
		res.BankFull = bankBal >= bankCap
		return nil
	})
	if err != nil {
		return DepositResult{}, err
	}
	return res, nil
}

// Withdraw moves coins from the bank back into the wallet.
func (s *Service) Withdraw(ctx context.Context, userID string, amount int64) (WithdrawResult, error) {
	if amount <= 0 {
		return WithdrawResult{}, fmt.Errorf("%w: amount must be positive", ErrInvalidStake)
	}
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return WithdrawResult{}, err
	}

	var res WithdrawResult
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		if _, err := lockAccounts(ctx, tx, []string{userID}); err != nil {
			return err
		}
		var bankBal int64
		err := tx.QueryRow(ctx, `
			UPDATE bank_accounts SET bank_balance = bank_balance - $1, updated_at = now()
			WHERE user_id = $2 AND bank_balance >= $1
			RETURNING bank_balance`, amount, userID).Scan(&bankBal)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: bank balance too low", ErrInsufficientFunds)
		}
		if err != nil {
			return fmt.Errorf("debit bank: %w", err)
		}
		bal, err := addBalance(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		res = WithdrawResult{Amount: amount, NewBalance: bal, NewBankBalance: bankBal}
		return nil
	})
	if err != nil {
		return WithdrawResult{}, err
	}
	return res, nil
}

// Grant credits (or with a negative amount, burns) coins outside normal
// gameplay. Used by the admin CLI.
func (s *Service) Grant(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount == 0 {
		return 0, fmt.Errorf("%w: amount must be non-zero", ErrInvalidStake)
	}
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return 0, err
	}
	var newBal int64
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		if _, err := lockAccounts(ctx, tx, []string{userID}); err != nil {
			return err
		}
		bal, err := addBalance(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		newBal = bal
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("grant", "user", userID, "amount", amount, "balance", newBal)
	return newBal, nil
}

// AccrueInterest pays hourly interest on all banked balances. Run by the
// worker; returns the number of accounts credited.
func (s *Service) AccrueInterest(ctx context.Context) (int64, error) {
	rate := s.rules.Bank.HourlyInterestRate
	if rate <= 0 {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE bank_accounts
		SET bank_balance = LEAST(bank_cap, bank_balance + GREATEST(1, (bank_balance * $1)::bigint)),
		    updated_at = now()
		WHERE bank_balance > 0 AND bank_balance < bank_cap`, rate)
	if err != nil {
		return 0, fmt.Errorf("accrue interest: %w", err)
	}
	return tag.RowsAffected(), nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "plunder/internal/cli"
	"plunder/internal/config"
	"plunder/internal/economy"
	"plunder/internal/syncq"

	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL
	var userFlag string

	root := &cobra.Command{
		Use:          "plunderctl",
		Short:        "Plunder economy client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&userFlag, "user", "", "acting user id (overrides the pinned session)")

	newClient := func() (*cl.Client, error) {
		userID := strings.TrimSpace(userFlag)
		if userID == "" {
			session, err := cl.LoadSession()
			if err != nil {
				return nil, err
			}
			userID = session.UserID
		}
		return cl.NewClient(apiBase, userID, cfg.AdminToken), nil
	}

	root.AddCommand(
		newUseCmd(),
		newLogoutCmd(),
		newBalanceCmd(newClient),
		newDailyCmd(newClient),
		newBankCmd(newClient),
		newGiveCmd(newClient),
		newWorkCmd(newClient),
		newGamesCmd(newClient),
		newStealCmd(newClient),
		newHeistCmd(newClient),
		newStatsCmd(newClient),
		newShopCmd(newClient),
		newEquipCmd(newClient),
		newLeaderboardCmd(newClient),
		newSyncCmd(newClient),
		newAdminCmd(newClient),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type clientFactory func() (*cl.Client, error)

func withClient(factory clientFactory, fn func(ctx context.Context, client *cl.Client) error) error {
	client, err := factory()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return fn(ctx, client)
}

func newUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <user-id>",
		Short: "Pin the default acting user",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := cl.SaveSession(cl.Session{UserID: strings.TrimSpace(args[0])}); err != nil {
				return err
			}
			printSuccess("Session saved for " + args[0])
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the pinned user",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Session cleared.")
			return nil
		},
	}
}

func newBalanceCmd(factory clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show wallet and bank balances",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withClient(factory, func(ctx context.Context, client *cl.Client) error {
				raw, err := client.Balances(ctx)
				if err != nil {
					return err
				}
				return renderBalances(raw)
			})
		},
	}
}

func newDailyCmd(factory clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Claim the daily reward",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withClient(factory, func(ctx context.Context, client *cl.Client) error {
				raw, err := client.Daily(ctx)
				if err != nil {
					return err
				}
				return renderDaily(raw)
			})
		},
	}
}

func newBankCmd(factory clientFactory) *cobra.Command {
	bank := &cobra.Command{
		Use:   "bank",
		Short: "Bank operations",
	}
	bank.AddCommand(
		&cobra.Command{
			Use:   "deposit <amount>",
			Short: "Move coins into the bank",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				amount, err := parseAmount(args[0])
				if err != nil {
					return err
				}
				return withClient(factory, func(ctx context.Context, client *cl.Client) error {
					raw, err := client.Deposit(ctx, amount)
					if err != nil {
						return queueOnNetworkError(client.UserID, err, syncq.Command{
							Method: "POST",
							Path:   "/v1/deposit",
							Body:   map[string]any{"amount": amount},
						})
					}
					return renderDeposit(raw)
				})
			},
		},
		&cobra.Command{
			Use:   "withdraw <amount>",
			Short: "Move coins out of the bank",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				amount, err := parseAmount(args[0])
				if err != nil {
					return err
				}
				return withClient(factory, func(ctx context.Context, client *cl.Client) error {
					raw, err := client.Withdraw(ctx, amount)
					if err != nil {
						return queueOnNetworkError(client.UserID, err, syncq.Command{
							Method: "POST",
							Path:   "/v1/withdraw",
							Body:   map[string]any{"amount": amount},
						})
					}
					printSuccess(fmt.Sprintf("Withdrew %s coins.", comma(amount)))
					return renderDeposit(raw)
				})
			},
		},
		&cobra.Command{
			Use:   "upgrade",
			Short: "Buy the next bank capacity level",
			RunE: func(_ *cobra.Command, _ []string) error {
				return withClient(factory, func(ctx context.Context, client *cl.Client) error {
					raw, err := client.BankUpgrade(ctx)
					if err != nil {
						return err
					}
					return renderPurchase(raw)
				})
			},
		},
	)
	return bank
}

func newGiveCmd(factory clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "give <user-id> <amount>",
		Short: "Transfer coins to another player",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return withClient(factory, func(ctx context.Context, client *cl.Client) error {
				raw, err := client.Transfer(ctx, args[0], amount)
				if err != nil {
					return queueOnNetworkError(client.UserID, err, syncq.Command{
						Method: "POST",
						Path:   "/v1/transfer",
						Body:   map[string]any{"to": args[0], "amount": amount},
					})
				}
				return renderTransfer(raw)
			})
		},
	}
}

func newWorkCmd(factory clientFactory) *cobra.Command {
	work := &cobra.Command{
		Use:   "work",
		Short: "Run a work action",
	}
	for _, skill := range []string{economy.SkillMining, economy.SkillFishing} {
		skill := skill
		verb := "mine"
		if skill == economy.SkillFishing {
			verb = "fish"
		}
		work.AddCommand(&cobra.Command{
			Use:   verb,
			Short: "Work the " + skill + " skill",
			RunE: func(_ *cobra.Command, _ []string) error {
				return withClient(factory, func(ctx context.Context, client *cl.Client) error {
					raw, err := client.Work(ctx, skill)
					if err != nil {
						return err
					}
					return renderWork(raw)
				})
			},
		})
	}
	return work
}

func newGamesCmd(factory clientFactory) *cobra.Command {
	games := &cobra.Command{
		Use:   "play",
		Short: "Casino games",
	}
	games.AddCommand(
		&cobra.Command{
			Use:   "roll <stake>",
			Short: "Roll against the house",
			Args:  cobra.ExactArgs(1),
			RunE:  gameRunE(factory, "roll", renderRoll),
		},
		&cobra.Command{
			Use:   "blackjack <stake>",
			Short: "Play a hand of blackjack",
			Args:  cobra.ExactArgs(1),
			RunE:  gameRunE(factory, "blackjack", renderBlackjack),
		},
		&cobra.Command{
			Use:   "slots <stake>",
			Short: "Spin the slot machine",
			Args:  cobra.ExactArgs(1),
			RunE:  gameRunE(factory, "slots", renderSlots),
		},
	)
	return games
}

func gameRunE(factory clientFactory, game string, render func(map[string]any) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		stake, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		return withClient(factory, func(ctx context.Context, client *cl.Client) error {
			raw, err := client.PlayGame(ctx, game, stake)
			if err != nil {
				return err
			}
			return render(raw)
		})
	}
}

func newStealCmd(factory clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "steal <target-user-id>",
		Short: "Attempt a robbery",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withClient(factory, func(ctx context.Context, client *cl.Client) error {
				raw, err := client.Steal(ctx, args[0])
				if err != nil {
					return err
				}
				return renderSteal(raw)
			})
		},
	}
}

func newHeistCmd(factory clientFactory) *cobra.Command {
	heist := &cobra.Command{
		Use:   "heist",
		Short: "Group heists",
	}
	heist.AddCommand(
		&cobra.Command{
			Use:   "start <stake>",
			Short: "Open a heist",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				stake, err := parseAmount(args[0])
				if err != nil {
					return err
				}
				return withClient(factory, func(ctx context.Context, client *cl.Client) error {
					raw, err := client.HeistStart(ctx, stake)
					if err != nil {
						return err
					}
					return renderHeist(raw)
				})
			},
		},
		&cobra.Command{
			Use:   "join <heist-id> <stake>",
			Short: "Join an open heist",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				stake, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				return withClient(factory, func(ctx context.Context, client *cl.Client) error {
					raw, err := client.HeistJoin(ctx, args[0], stake)
					if err != nil {
						return err
					}
					return renderHeist(raw)
				})
			},
		},
		&cobra.Command{
			Use:   "status <heist-id>",
			Short: "Show a heist roster",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return withClient(factory, func(ctx context.Context, client *cl.Client) error {
					raw, err := client.HeistStatus(ctx, args[0])
					if err != nil {
						return err
					}
					return renderHeist(raw)
				})
			},
		},
		&cobra.Command{
			Use:   "resolve <heist-id>",
			Short: "Trigger settlement of a heist",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return withClient(factory, func(ctx context.Context, client *cl.Client) error {
					raw, err := client.HeistResolve(ctx, args[0])
					if err != nil {
						return err
					}
					return renderHeistOutcome(raw)
				})
			},
		},
	)
	return heist
}

func newStatsCmd(factory clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the full player profile",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withClient(factory, func(ctx context.Context, client *cl.Client) error {
				raw, err := client.Stats(ctx)
				if err != nil {
					return err
				}
				return renderStats(raw)
			})
		},
	}
}

func newShopCmd(factory clientFactory) *cobra.Command {
	shop := &cobra.Command{
		Use:   "shop",
		Short: "Browse and buy from the shop",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withClient(factory, func(ctx context.Context, client *cl.Client) error {
				raw, err := client.Shop(ctx)
				if err != nil {
					return err
				}
				return renderShop(raw)
			})
		},
	}
	shop.AddCommand(&cobra.Command{
		Use:   "buy <item-key>",
		Short: "Buy a tool or buff",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withClient(factory, func(ctx context.Context, client *cl.Client) error {
				raw, err := client.Buy(ctx, args[0])
				if err != nil {
					return err
				}
				return renderPurchase(raw)
			})
		},
	})
	return shop
}

func newEquipCmd(factory clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "equip <item-key>",
		Short: "Equip an owned tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withClient(factory, func(ctx context.Context, client *cl.Client) error {
				raw, err := client.Equip(ctx, args[0])
				if err != nil {
					return err
				}
				printSuccess("Equipped " + args[0])
				return renderEquipped(raw)
			})
		},
	}
}

func newLeaderboardCmd(factory clientFactory) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "top [networth|stolen|heist_loot]",
		Short: "Show a leaderboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			kind := "networth"
			if len(args) == 1 {
				kind = args[0]
			}
			return withClient(factory, func(ctx context.Context, client *cl.Client) error {
				raw, err := client.Leaderboard(ctx, kind, limit)
				if err != nil {
					return err
				}
				return renderLeaderboard(raw, kind)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "rows to show")
	return cmd
}

// queueOnNetworkError captures writes that failed because the API was
// unreachable. Structured API rejections are surfaced, never queued.
func queueOnNetworkError(userID string, err error, cmd syncq.Command) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "api status") {
		return err
	}
	cmd.UserID = userID
	if qerr := syncq.Push(cmd); qerr != nil {
		return fmt.Errorf("request failed and could not be queued: %v (queue: %v)", err, qerr)
	}
	printWarn(fmt.Sprintf("API unreachable; queued %s %s for `plunderctl sync`.", cmd.Method, cmd.Path))
	return nil
}

func newSyncCmd(factory clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay queued offline writes",
		RunE: func(_ *cobra.Command, _ []string) error {
			queue, err := syncq.Load()
			if err != nil {
				return err
			}
			if len(queue) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			return withClient(factory, func(ctx context.Context, client *cl.Client) error {
				remaining := make([]syncq.Command, 0, len(queue))
				replayed := 0
				for _, q := range queue {
					replayClient := *client
					if q.UserID != "" {
						replayClient.UserID = q.UserID
					}
					if _, err := replayClient.Do(ctx, q.Method, q.Path, q.Body); err != nil {
						remaining = append(remaining, q)
						printWarn(fmt.Sprintf("Sync failed for %s %s: %v", q.Method, q.Path, err))
						continue
					}
					replayed++
				}
				if err := syncq.Save(remaining); err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("Sync complete: replayed=%d remaining=%d", replayed, len(remaining)))
				return nil
			})
		},
	}
}

func newAdminCmd(factory clientFactory) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Operator commands (requires PLUNDER_ADMIN_TOKEN)",
	}
	admin.AddCommand(
		&cobra.Command{
			Use:   "grant <user-id> <amount>",
			Short: "Credit or burn coins on an account",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				amount, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid amount %q", args[1])
				}
				return withClient(factory, func(ctx context.Context, client *cl.Client) error {
					raw, err := client.AdminGrant(ctx, args[0], amount)
					if err != nil {
						return err
					}
					printSuccess(fmt.Sprintf("Granted %s to %s.", comma(amount), args[0]))
					return renderBalances(raw)
				})
			},
		},
		&cobra.Command{
			Use:   "xp <user-id> <skill> <amount>",
			Short: "Award XP on a skill",
			Args:  cobra.ExactArgs(3),
			RunE: func(_ *cobra.Command, args []string) error {
				xp, err := parseAmount(args[2])
				if err != nil {
					return err
				}
				return withClient(factory, func(ctx context.Context, client *cl.Client) error {
					raw, err := client.AdminXP(ctx, args[0], args[1], xp)
					if err != nil {
						return err
					}
					return renderWork(raw)
				})
			},
		},
	)
	return admin
}

func parseAmount(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid amount %q: must be a positive whole number", s)
	}
	return v, nil
}

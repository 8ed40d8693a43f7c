package cli

import (
	"context"
	"fmt"

	"github.com/foresightmkt/foresight/internal/market"
	"github.com/foresightmkt/foresight/internal/trade"

	"github.com/urfave/cli/v3"
)

// createMarketCommand returns a CLI command that initializes a new market.
//
// Usage example:
//
//	foresight create --outcome1 Yes --outcome2 No --description "..." --reward 1 --bond 5 --fee 0.3
func (h *handler) createMarketCommand() *cli.Command {
	return &cli.Command{
		Name:        "create",
		Description: "Initialize a new binary prediction market and its AMM pool.",
		Usage:       "Creates a market. Reward and bond are in whole tokens, fee is a pool fee percentage.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "outcome1", Usage: "First outcome name", Required: true},
			&cli.StringFlag{Name: "outcome2", Usage: "Second outcome name", Required: true},
			&cli.StringFlag{Name: "description", Usage: "Market description", Required: true},
			&cli.StringFlag{Name: "reward", Usage: "Resolution reward amount", Required: true},
			&cli.StringFlag{Name: "bond", Usage: "Assertion bond amount", Required: true},
			&cli.FloatFlag{Name: "fee", Usage: "Pool fee percentage (e.g., 0.3)", Value: 0.3},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return h.settle(ctx, func() error {
				return h.Market.CreateMarket(ctx, market.CreateMarketInput{
					Outcome1:    c.String("outcome1"),
					Outcome2:    c.String("outcome2"),
					Description: c.String("description"),
					Reward:      c.String("reward"),
					Bond:        c.String("bond"),
					FeePercent:  c.Float("fee"),
				})
			})
		},
	}
}

// mintCommand returns a CLI command that locks USDC collateral and mints both
// outcome tokens, approving the collateral first when needed.
//
// Usage example:
//
//	foresight mint --market 0xABC123... --amount 100
func (h *handler) mintCommand() *cli.Command {
	return &cli.Command{
		Name:        "mint",
		Description: "Mint outcome tokens by locking USDC collateral.",
		Usage:       "Mints equal amounts of both outcome tokens. Amount is in USDC.",
		Flags: []cli.Flag{
			marketIDFlag(),
			&cli.StringFlag{Name: "amount", Usage: "USDC amount to lock", Required: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := marketIDArg(c)
			if err != nil {
				return err
			}

			return h.settle(ctx, func() error {
				return h.Market.MintOutcomeTokens(ctx, id, c.String("amount"))
			})
		},
	}
}

// tradeCommand returns a CLI command that swaps into the selected outcome,
// approving the token being sold first when the allowance is short.
//
// Usage example:
//
//	foresight trade --market 0xABC123... --outcome first --amount 10
func (h *handler) tradeCommand() *cli.Command {
	return &cli.Command{
		Name:        "trade",
		Description: "Swap outcome tokens through the market's AMM pool.",
		Usage:       "Buys the selected outcome by selling the opposite outcome token.",
		Flags: []cli.Flag{
			marketIDFlag(),
			&cli.StringFlag{Name: "outcome", Usage: "Outcome to buy (first or second)", Required: true},
			&cli.StringFlag{Name: "amount", Usage: "Amount of tokens to sell", Required: true},
			&cli.StringFlag{Name: "min-out", Usage: "Minimum amount to receive (slippage bound)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := marketIDArg(c)
			if err != nil {
				return err
			}

			side, err := trade.ParseOutcomeSide(c.String("outcome"))
			if err != nil {
				return err
			}

			return h.settle(ctx, func() error {
				plan, err := h.Market.Trade(ctx, id, side, c.String("amount"), c.String("min-out"))
				if err != nil {
					return err
				}

				if plan.NeedsApproval {
					fmt.Printf("approving %s before the swap\n", plan.TokenToApprove.Hex())
				}

				return nil
			})
		},
	}
}

// assertCommand returns a CLI command that asserts a market's outcome.
//
// Usage example:
//
//	foresight assert --market 0xABC123... --outcome Yes
func (h *handler) assertCommand() *cli.Command {
	return &cli.Command{
		Name:        "assert",
		Description: "Assert a market's outcome, posting the configured bond.",
		Usage:       "The outcome must match one of the market's outcomes exactly, or be 'Unresolvable'.",
		Flags: []cli.Flag{
			marketIDFlag(),
			&cli.StringFlag{Name: "outcome", Usage: "Asserted outcome text", Required: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := marketIDArg(c)
			if err != nil {
				return err
			}

			return h.settle(ctx, func() error {
				return h.Market.Assert(ctx, id, c.String("outcome"))
			})
		},
	}
}

// settleCommand returns a CLI command that redeems outcome tokens on a
// resolved market.
//
// Usage example:
//
//	foresight settle --market 0xABC123...
func (h *handler) settleCommand() *cli.Command {
	return &cli.Command{
		Name:        "settle",
		Description: "Settle outcome tokens on a resolved market.",
		Usage:       "Redeems the account's outcome tokens for collateral once the market is resolved.",
		Flags:       []cli.Flag{marketIDFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := marketIDArg(c)
			if err != nil {
				return err
			}

			return h.settle(ctx, func() error {
				return h.Market.Settle(ctx, id)
			})
		},
	}
}

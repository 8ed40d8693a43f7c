package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/foresightmkt/foresight/internal/contracts"
	"github.com/foresightmkt/foresight/internal/trade"

	"github.com/urfave/cli/v3"
)

func marketIDFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "market",
		Usage:    "Market identifier (0x-prefixed 32-byte hex)",
		Required: true,
	}
}

func marketIDArg(c *cli.Command) (contracts.MarketID, error) {
	return contracts.MarketIDFromHex(c.String("market"))
}

// listMarketsCommand returns a CLI command that prints every pool the AMM
// knows about.
//
// Usage example:
//
//	foresight markets
func (h *handler) listMarketsCommand() *cli.Command {
	return &cli.Command{
		Name:        "markets",
		Description: "List every market pool registered on the AMM.",
		Usage:       "Prints each pool's market identifier, address, fee, and initialization state.",
		Action: func(ctx context.Context, c *cli.Command) error {
			pools, err := h.Market.ListPools(ctx)
			if err != nil {
				return err
			}

			if len(pools) == 0 {
				fmt.Println("no markets found")
				return nil
			}

			for _, pool := range pools {
				state := "initialized"
				if !pool.Initialized {
					state = "not initialized"
				}

				fmt.Printf("%s  pool=%s  fee=%.2f%%  %s\n", pool.MarketID.Hex(), pool.Address.Hex(), pool.FeePercent(), state)
			}

			return nil
		},
	}
}

// showMarketCommand returns a CLI command that prints one market's details,
// its pool, and the current prediction.
//
// Usage example:
//
//	foresight show --market 0xABC123...
func (h *handler) showMarketCommand() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Description: "Show a market's outcomes, resolution state, pool, and current prediction.",
		Usage:       "Fetches one market by identifier and prints its full state.",
		Flags:       []cli.Flag{marketIDFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := marketIDArg(c)
			if err != nil {
				return err
			}

			market, err := h.Market.GetMarket(ctx, id)
			if err != nil {
				return err
			}

			pool, err := h.Market.GetPool(ctx, id)
			if err != nil {
				return err
			}

			resolution := "open"
			if market.Resolved {
				resolution = "resolved"
			}

			fmt.Printf("market      %s (%s)\n", market.ID.Hex(), resolution)
			fmt.Printf("outcome 1   %s (%s)\n", market.Outcome1, market.Outcome1Token.Hex())
			fmt.Printf("outcome 2   %s (%s)\n", market.Outcome2, market.Outcome2Token.Hex())
			fmt.Printf("pool        %s  fee=%.2f%%\n", pool.Address.Hex(), pool.FeePercent())

			prediction, err := h.Market.Prediction(ctx, id)
			switch {
			case errors.Is(err, trade.ErrPoolNotInitialized):
				fmt.Println("prediction  unavailable, pool not initialized")
			case err != nil:
				return err
			default:
				fmt.Printf("prediction  %s (%.1f%%)\n", prediction.Outcome, prediction.Percent)
			}

			return nil
		},
	}
}

// balancesCommand returns a CLI command that prints the account's outcome
// token and collateral balances for one market.
//
// Usage example:
//
//	foresight balances --market 0xABC123...
func (h *handler) balancesCommand() *cli.Command {
	return &cli.Command{
		Name:        "balances",
		Description: "Show the configured account's token balances for a market.",
		Usage:       "Prints outcome token balances at 18 decimals and the USDC balance at 6 decimals.",
		Flags:       []cli.Flag{marketIDFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := marketIDArg(c)
			if err != nil {
				return err
			}

			market, err := h.Market.GetMarket(ctx, id)
			if err != nil {
				return err
			}

			balances, err := h.Market.Balances(ctx, id)
			if err != nil {
				return err
			}

			fmt.Printf("%-20s %s\n", market.Outcome1, trade.FormatAmount(balances.Outcome1, trade.NativeDecimals))
			fmt.Printf("%-20s %s\n", market.Outcome2, trade.FormatAmount(balances.Outcome2, trade.NativeDecimals))
			fmt.Printf("%-20s %s\n", "USDC", trade.FormatAmount(balances.Collateral, trade.CollateralDecimals))

			return nil
		},
	}
}

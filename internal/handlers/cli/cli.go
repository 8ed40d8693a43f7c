// Package cli wires the application's commands. Transactional commands block
// until the submitted call (and any deferred follow-up the planner holds)
// reaches a terminal state, then print the accumulated notices.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/foresightmkt/foresight/internal/market"
	"github.com/foresightmkt/foresight/internal/notify"
	"github.com/foresightmkt/foresight/internal/pkg/x/chflow"
	"github.com/foresightmkt/foresight/internal/trade"
	"github.com/foresightmkt/foresight/internal/txflow"

	"github.com/urfave/cli/v3"
)

// Services bundles everything the commands need.
type Services struct {
	Market  *market.Service
	Flow    txflow.Service
	Notices notify.Service
	Planner *trade.Planner
}

type handler struct {
	Services

	events chan txflow.Event
}

// Run initializes and executes the foresight CLI application.
func Run(ctx context.Context, svc Services) error {
	h := &handler{
		Services: svc,
		events:   make(chan txflow.Event, 16),
	}

	// Callbacks run synchronously inside the flow; a blocking send here would
	// stall it, so a full buffer drops the event instead.
	svc.Flow.Subscribe(func(ev txflow.Event) {
		select {
		case h.events <- ev:
		default:
		}
	})

	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "foresight",
		Description:           "Command-line client for on-chain binary prediction markets.",
		Usage:                 "foresight [command] [flags]",
		Commands: []*cli.Command{
			h.listMarketsCommand(),
			h.showMarketCommand(),
			h.balancesCommand(),
			h.createMarketCommand(),
			h.mintCommand(),
			h.tradeCommand(),
			h.assertCommand(),
			h.settleCommand(),
		},
	}

	return app.Run(ctx, os.Args)
}

// awaitOutcome blocks until the outstanding call reaches a terminal state and
// the planner holds no deferred call.
func (h *handler) awaitOutcome(ctx context.Context) error {
	for {
		ev, ok := chflow.Receive(ctx, h.events)
		if !ok {
			return ctx.Err()
		}

		switch ev.Kind {
		case txflow.EventConfirmed, txflow.EventFailed, txflow.EventSubmissionRejected:
			if !h.Planner.InFlight() {
				return nil
			}
		}
	}
}

func (h *handler) printNotices() {
	for _, n := range h.Notices.List() {
		tag := "INFO"
		switch n.Status {
		case notify.StatusSuccess:
			tag = "OK"
		case notify.StatusError:
			tag = "ERROR"
		}

		fmt.Printf("[%s] %s\n", tag, n.Message)
		if n.ExplorerURL != "" {
			fmt.Printf("       %s\n", n.ExplorerURL)
		}
	}
}

// settle runs a transactional action to completion and reports the notices it
// produced.
func (h *handler) settle(ctx context.Context, action func() error) error {
	defer h.printNotices()

	if err := action(); err != nil {
		return err
	}

	return h.awaitOutcome(ctx)
}

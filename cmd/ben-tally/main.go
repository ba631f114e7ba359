// Command ben-tally computes per-plan statistics over a BEN ensemble: attribute tallies, cut edges, and
// per-node change counts along the chain.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("ben-tally failed")
		os.Exit(1)
	}
}

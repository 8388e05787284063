// Command rhythm is the companion CLI of the Rhythm music player: it parses
// and previews synced lyrics, polls for new releases and edits the
// now-playing widget data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

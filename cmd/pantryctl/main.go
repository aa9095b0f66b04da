package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mamadbah2/pantry/internal/repository/docstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(docstore.Open).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "pantryctl:", err)
		stop()
		os.Exit(1)
	}
}

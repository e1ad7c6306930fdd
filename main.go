package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/tragoedia0722/filesan/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.Execute(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

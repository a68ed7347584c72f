package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"FaceGuardConsole/cmd"
)

var version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, version); err != nil {
		if !stderrors.Is(err, cmd.ErrReported) {
			fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

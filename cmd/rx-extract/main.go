package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/rx-extractor/internal/common"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		code, rc := exitStatus(err)
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", code, err)
		os.Exit(rc)
	}
}

// exitStatus classifies err with the same status codes an API layer would
// return; the numeric code doubles as the process exit code.
func exitStatus(err error) (codes.Code, int) {
	code := status.Code(common.ToStatus(err))
	return code, int(code)
}

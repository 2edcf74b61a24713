package main

import (
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestStartHTTP_PortInUseStopsServe(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	errc := make(chan error, 1)
	startHTTP(&http.Server{Addr: lis.Addr().String(), ReadHeaderTimeout: time.Second}, errc)

	done := make(chan error, 1)
	go func() { done <- awaitStop(make(chan os.Signal), errc, zerolog.Nop()) }()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "HTTP server") {
			t.Fatalf("awaitStop = %v, want HTTP server error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("awaitStop did not return after the listener failed")
	}
}

func TestAwaitStop_Signal(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	sigCh <- syscall.SIGTERM
	if err := awaitStop(sigCh, make(chan error), zerolog.Nop()); err != nil {
		t.Fatalf("awaitStop on signal = %v, want nil", err)
	}
}

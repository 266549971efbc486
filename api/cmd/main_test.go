package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

// fakeServer blocks in ListenAndServe until Shutdown, like *http.Server.
type fakeServer struct {
	listenErr   error // returned immediately when set
	shutdownErr error

	started  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	shutdownCalled atomic.Bool
	closeCalled    atomic.Bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{started: make(chan struct{}), stop: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	close(f.started)
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdownCalled.Store(true)
	f.stopOnce.Do(func() { close(f.stop) })
	return f.shutdownErr
}

func (f *fakeServer) Close() error {
	f.closeCalled.Store(true)
	f.stopOnce.Do(func() { close(f.stop) })
	return nil
}

func (f *fakeServer) Addr() string { return ":0" }

// signalAfterStart delivers SIGINT once the server is listening.
func signalAfterStart(fs *fakeServer) chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	go func() {
		<-fs.started
		sigCh <- os.Interrupt
	}()
	return sigCh
}

func TestRun_BootstrapFail_Returns1(t *testing.T) {
	build := func() (httpServer, func(), error) {
		return nil, nil, errors.New("missing required env var: JWT_KEY")
	}

	if got := Run(build, make(chan os.Signal), zerolog.Nop()); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestRun_OnSignal_ShutdownAndReturn0(t *testing.T) {
	fs := newFakeServer()

	cleanupCalled := false
	build := func() (httpServer, func(), error) {
		return fs, func() { cleanupCalled = true }, nil
	}

	if got := Run(build, signalAfterStart(fs), zerolog.Nop()); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if !fs.shutdownCalled.Load() {
		t.Fatalf("expected Shutdown called")
	}
	if fs.closeCalled.Load() {
		t.Fatalf("did not expect Close on graceful shutdown")
	}
	if !cleanupCalled {
		t.Fatalf("expected cleanup called")
	}
}

func TestRun_OnServerCrash_Returns1(t *testing.T) {
	fs := newFakeServer()
	fs.listenErr = errors.New("address already in use")

	cleanupCalled := false
	build := func() (httpServer, func(), error) {
		return fs, func() { cleanupCalled = true }, nil
	}

	if got := Run(build, make(chan os.Signal), zerolog.Nop()); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if fs.shutdownCalled.Load() {
		t.Fatalf("did not expect Shutdown on crash path")
	}
	if !cleanupCalled {
		t.Fatalf("expected cleanup called")
	}
}

func TestRun_ShutdownFail_ForcesClose(t *testing.T) {
	fs := newFakeServer()
	fs.shutdownErr = errors.New("context deadline exceeded")

	build := func() (httpServer, func(), error) {
		return fs, func() {}, nil
	}

	if got := Run(build, signalAfterStart(fs), zerolog.Nop()); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if !fs.closeCalled.Load() {
		t.Fatalf("expected Close when Shutdown fails")
	}
}

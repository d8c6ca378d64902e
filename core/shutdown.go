// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package core

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/DataDog/dd-apm-core-go/internal/log"
)

// unregisterTimeout bounds the call to Registrar.Unregister on exit.
const unregisterTimeout = 5 * time.Second

// Registrar unregisters the agent from the collector.
type Registrar interface {
	Unregister(ctx context.Context) error
}

// stopper is implemented by *Service.
type stopper interface {
	Stop()
	Stopped() <-chan struct{}
}

// shutdownHook runs the exit path when the process receives one of its
// signals: stop the core first, then unregister the agent.
type shutdownHook struct {
	core      stopper
	registrar Registrar
	signals   []os.Signal

	ch   chan os.Signal
	done chan struct{}

	// raise delivers sig to the process again once the exit path ran, so the
	// default behavior of the signal applies.
	raise func(sig os.Signal)

	runOnce        sync.Once
	registerOnce   sync.Once
	deregisterOnce sync.Once
}

func newShutdownHook(core stopper, registrar Registrar, signals []os.Signal) *shutdownHook {
	return &shutdownHook{
		core:      core,
		registrar: registrar,
		signals:   signals,
		ch:        make(chan os.Signal, 1),
		done:      make(chan struct{}),
		raise:     raise,
	}
}

// register starts listening for the hook's signals.
func (h *shutdownHook) register() {
	h.registerOnce.Do(func() {
		if len(h.signals) > 0 {
			signal.Notify(h.ch, h.signals...)
		}
		go h.wait()
	})
}

func (h *shutdownHook) wait() {
	select {
	case sig := <-h.ch:
		log.Info("Received %v", sig)
		h.run()
		h.raise(sig)
	case <-h.done:
	}
}

// deregister stops listening for signals. It does not wait for an exit path
// in progress.
func (h *shutdownHook) deregister() {
	h.deregisterOnce.Do(func() {
		signal.Stop(h.ch)
		close(h.done)
	})
}

// run stops the core and unregisters the agent, once.
func (h *shutdownHook) run() {
	h.runOnce.Do(func() {
		log.Info("Shutdown initialized, sending remaining data")
		h.core.Stop()
		// Stop returns right away when another caller is already stopping.
		<-h.core.Stopped()

		log.Info("Unregistering the agent")
		ctx, cancel := context.WithTimeout(context.Background(), unregisterTimeout)
		defer cancel()
		if err := h.registrar.Unregister(ctx); err != nil {
			log.Warn("Unregistering the agent failed: %v", err)
		}
	})
}

// raise sends sig to the current process.
func raise(sig os.Signal) {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		log.Warn("Cannot raise %v again: %v", sig, err)
		return
	}
	if err := p.Signal(sig); err != nil {
		log.Warn("Cannot raise %v again: %v", sig, err)
	}
}

// Package runner hosts actors in a process. Run starts a single actor and
// keeps it alive until its behavior returns or the process is interrupted;
// Group hosts several actors side by side and fails fast when one of them
// does.
package runner

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ilpomo/open-core/actor"
	"github.com/ilpomo/open-core/errors"
)

// Run boots the actor, runs its behavior and terminates the actor on the
// way out, whatever the exit path. SIGINT and SIGTERM cancel the behavior's
// context; an interrupt or a cancelled parent context is a clean shutdown,
// not an error.
func Run(ctx context.Context, a *actor.Actor, behavior actor.Behavior) error {
	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := a.Run(signalCtx, behavior)

	if termErr := a.Terminate(); termErr != nil {
		slog.Error("actor termination failed", "actor", a.Name(), "error", termErr)
		if err == nil {
			err = termErr
		}
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "runner", "Run", "actor "+a.Name())
	}
	return nil
}

// Group hosts multiple actors in one process, each with its own behavior.
// The actors share the process lifetime: the first behavior to fail cancels
// the rest.
type Group struct {
	members []member
}

type member struct {
	actor    *actor.Actor
	behavior actor.Behavior
}

// Add registers an actor and its behavior with the group.
func (g *Group) Add(a *actor.Actor, behavior actor.Behavior) {
	g.members = append(g.members, member{actor: a, behavior: behavior})
}

// Run starts every registered actor and blocks until all behaviors return.
// Each actor is terminated when its behavior exits. Interrupts and context
// cancellation shut the whole group down cleanly.
func (g *Group) Run(ctx context.Context) error {
	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(signalCtx)
	for _, m := range g.members {
		eg.Go(func() error {
			err := m.actor.Run(egCtx, m.behavior)
			if termErr := m.actor.Terminate(); termErr != nil && err == nil {
				err = termErr
			}
			return err
		})
	}

	err := eg.Wait()
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "runner", "Group.Run", "actor group")
	}
	return nil
}

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/matteobonanomi/pizoo/internal/ipc"
)

// ErrBusy reports a request dropped because the queue is full.
var ErrBusy = errors.New("session busy, request dropped")

// Handle serves control-socket commands. Status is answered from the
// current snapshot; everything else is queued onto the Run loop.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		snap := c.Snapshot()
		return ipc.Response{
			OK:      true,
			State:   string(snap.State),
			Profile: snap.Profile,
			Message: fmt.Sprintf("profile %d/%d, %d animal(s)", snap.Index+1, snap.Count, snap.Library.Len()),
		}
	case ipc.CommandSwitch:
		return c.forward(ctx, request{kind: requestSwitch})
	case ipc.CommandReload:
		return c.forward(ctx, request{kind: requestReload})
	case ipc.CommandStop:
		return c.forward(ctx, request{kind: requestStop})
	case ipc.CommandPress:
		if req.Pin == nil {
			return c.failed(errors.New("press requires a pin"))
		}
		return c.forward(ctx, request{kind: requestPress, pin: *req.Pin})
	default:
		return c.failed(fmt.Errorf("unknown command: %s", req.Command))
	}
}

// Reload queues a reload of the active profile without waiting for it.
func (c *Controller) Reload() {
	select {
	case c.requests <- request{kind: requestReload}:
	default:
		c.logger.Warn("reload dropped, request queue full")
	}
}

func (c *Controller) forward(ctx context.Context, req request) ipc.Response {
	req.reply = make(chan Response, 1)

	select {
	case c.requests <- req:
	case <-ctx.Done():
		return c.failed(ctx.Err())
	default:
		return c.failed(ErrBusy)
	}

	select {
	case resp := <-req.reply:
		snap := c.Snapshot()
		out := ipc.Response{OK: resp.OK, State: string(snap.State), Profile: snap.Profile, Message: resp.Message}
		if resp.Err != nil {
			out.Error = resp.Err.Error()
		}
		return out
	case <-ctx.Done():
		return c.failed(ctx.Err())
	}
}

func (c *Controller) failed(err error) ipc.Response {
	snap := c.Snapshot()
	return ipc.Response{OK: false, State: string(snap.State), Profile: snap.Profile, Error: err.Error()}
}

package app

import (
	"context"
	"sync/atomic"

	"antrianbot/internal/queue"
	"antrianbot/internal/remote"
)

// remoteHolder lets a config reload swap the site client while the monitor
// and chat handlers keep their reference.
type remoteHolder struct {
	cur atomic.Pointer[remote.Client]
}

func newRemoteHolder(c *remote.Client) *remoteHolder {
	h := &remoteHolder{}
	h.cur.Store(c)
	return h
}

// swap installs c and returns the previous client.
func (h *remoteHolder) swap(c *remote.Client) *remote.Client { return h.cur.Swap(c) }

func (h *remoteHolder) PoliOptions(ctx context.Context) ([]remote.Option, error) {
	return h.cur.Load().PoliOptions(ctx)
}

func (h *remoteHolder) DoctorOptions(ctx context.Context, poliValue string) ([]remote.Option, error) {
	return h.cur.Load().DoctorOptions(ctx, poliValue)
}

func (h *remoteHolder) FetchSnapshot(ctx context.Context, poliValue, doctorValue string) (queue.Snapshot, error) {
	return h.cur.Load().FetchSnapshot(ctx, poliValue, doctorValue)
}

func (h *remoteHolder) Close() error { return h.cur.Load().Close() }

// Package service contains the business logic of the Fahrtenbuch backend.
// Services validate inputs, enforce lifecycle and registry rules, and run
// every command in one store transaction. No SQL lives here; services depend
// on repo interfaces, not implementations.
package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkordes/fahrtenbuch/internal/clock"
	"github.com/pkordes/fahrtenbuch/internal/metrics"
	"github.com/pkordes/fahrtenbuch/internal/repo"
	"github.com/pkordes/fahrtenbuch/internal/validation"
	"github.com/pkordes/fahrtenbuch/internal/watch"
)

// TxRunner runs fn inside one store transaction. *repo.TxManager satisfies it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deps bundles the collaborators shared by the services. Hub, Metrics, and
// Log are optional. Without a Hub, watch streams deliver one snapshot and end.
type Deps struct {
	Tx        TxRunner
	Trips     repo.TripRepo
	Vehicles  repo.VehicleRepo
	Purposes  repo.PurposeRepo
	Audit     repo.AuditRepo
	Validator *validation.Engine
	Clock     clock.Clock
	Hub       *watch.Hub
	Metrics   *metrics.Metrics
	Log       *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d.Log
}

// publish signals topics after a commit.
func (d Deps) publish(topics ...watch.Topic) {
	if d.Hub == nil {
		return
	}
	for _, t := range topics {
		d.Hub.Publish(t)
	}
}

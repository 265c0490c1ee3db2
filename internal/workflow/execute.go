package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/HendryAvila/designflow/internal/logging"
	"github.com/HendryAvila/designflow/internal/metrics"
)

// Execute dispatches req to the operation named by req.Action.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (Response, error) {
	ctx = logging.WithAction(logging.WithSessionID(ctx, req.SessionID), req.Action)

	var (
		res Response
		err error
	)
	switch req.Action {
	case ActionStart:
		res, err = o.Start(ctx, req.SessionID, req.Config, req.MethodologyProfile)
	case ActionAdvance:
		res, err = o.Advance(ctx, req.SessionID, req.PhaseID, req.Content)
	case ActionComplete:
		res, err = o.Complete(ctx, req.SessionID, req.PhaseID, req.Content)
	case ActionReset:
		res, err = o.Reset(ctx, req.SessionID)
	case ActionStatus:
		res, err = o.Status(ctx, req.SessionID)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	action := req.Action
	if errors.Is(err, ErrUnknownAction) {
		action = "unknown"
	}
	switch {
	case err != nil:
		o.metrics.ObserveAction(action, metrics.ResultError)
		o.logger.Error(ctx, "workflow action failed", zap.Error(err))
	case res.Success:
		o.metrics.ObserveAction(action, metrics.ResultSuccess)
	default:
		o.metrics.ObserveAction(action, metrics.ResultFailure)
	}
	return res, err
}

package thoughts

import (
	"context"

	"github.com/mskvii/bot2-2/core"
)

// RecordAction appends an entry to the action trail.
func (r *Repository) RecordAction(ctx context.Context, actionType, authorID, targetID string, data map[string]any) error {
	name, err := r.actions.AppendAction(ctx, &core.ActionRecord{
		ActionType: actionType,
		AuthorID:   authorID,
		TargetID:   targetID,
		Data:       data,
	})
	if err != nil {
		return err
	}
	r.logger.Debug("action recorded", "action_type", actionType, "file", name)
	r.notify("record "+actionType, authorID, 0)
	return nil
}

// Actions returns the action trail in timestamp order.
func (r *Repository) Actions(ctx context.Context) ([]*core.ActionRecord, error) {
	return r.actions.ListActions(ctx)
}

package group

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/stddice/internal/dice"
)

// LoggedRoller wraps a Roller and logs every group roll at debug level with
// a roll ID, the group text and each slot's dice, value and rolls.
type LoggedRoller struct {
	inner  Roller
	logger *zap.Logger
}

// NewLoggedRoller creates a LoggedRoller that rolls with inner and logs to logger.
//
// Precondition: inner and logger must be non-nil.
func NewLoggedRoller(inner Roller, logger *zap.Logger) *LoggedRoller {
	return &LoggedRoller{inner: inner, logger: logger}
}

// Roll delegates to the inner roller and logs the outcome.
//
// Postcondition: result logged; returns the inner roller's results or error.
func (r *LoggedRoller) Roll(g dice.Group) ([]Result, error) {
	id := uuid.NewString()
	results, err := r.inner.Roll(g)
	if err != nil {
		r.logger.Warn("dice group roll failed",
			zap.String("roll_id", id),
			zap.String("group", g.String()),
			zap.Error(err),
		)
		return nil, err
	}
	for i, res := range results {
		r.logger.Debug("dice roll",
			zap.String("roll_id", id),
			zap.String("group", g.String()),
			zap.Int("slot", i),
			zap.String("dice", res.Dice.String()),
			zap.Int("value", res.Value),
			zap.Ints("rolls", res.Rolls),
			zap.Int("subexpressions", len(res.Subexpressions)),
		)
	}
	return results, nil
}

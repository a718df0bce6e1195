package report

import (
	"github.com/sowinskl/retrycmd/retry"
	"github.com/sowinskl/retrycmd/syscmd"
)

// Multi fans events out to several reporters in order. Nil entries are
// skipped.
type Multi []retry.Reporter

var _ retry.Reporter = Multi(nil)

func (m Multi) AttemptFinished(attempt int, o syscmd.Outcome) {
	for _, r := range m {
		if r != nil {
			r.AttemptFinished(attempt, o)
		}
	}
}

func (m Multi) RunFinished(res retry.Result) {
	for _, r := range m {
		if r != nil {
			r.RunFinished(res)
		}
	}
}

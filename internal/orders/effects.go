package orders

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const effectTimeout = 15 * time.Second

// effects runs best-effort side effects. Failures are logged with the effect
// name and never returned; there is no retry.
type effects struct {
	log logrus.FieldLogger
}

func (e effects) run(ctx context.Context, orderID, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), effectTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		e.log.WithFields(logrus.Fields{
			"orderId": orderID,
			"effect":  name,
		}).WithError(err).Warn("side effect failed")
	}
}

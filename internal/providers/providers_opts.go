package providers

import "time"

type RefresherOpt func(*Refresher)

func WithTickLength(tickLength time.Duration) RefresherOpt {
	return func(r *Refresher) {
		r.tickLength = tickLength
	}
}

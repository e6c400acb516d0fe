package helpers

import (
	"pair-analysis/src/interfaces"
	"pair-analysis/src/models"
)

// RunObservers fans run events out to several observers in order.
type RunObservers []interfaces.IRunObserver

func (o RunObservers) OnRunEvent(event models.MRunEvent) {
	for _, obs := range o {
		if obs != nil {
			obs.OnRunEvent(event)
		}
	}
}

package service

import (
	"volunteerhub/internal/model"
)

// RetireExpired scans the active events and moves every one that has
// passed into the retired collection, spawning the recurrence successor
// where an event repeats. Each retirement persists before the next is
// examined. The transition is one-way: a retired event never comes back,
// though a recurring one leaves a fresh successor behind.
//
// It returns the events retired in this pass so the notifier can purge
// them from its already-notified list.
func (s *EventService) RetireExpired() []*model.Event {
	now := s.clock.Now()

	var retired []*model.Event
	for _, event := range s.repo.Events() {
		if event.Active(now) {
			continue
		}
		var successor *model.Event
		if event.Recurring() {
			successor = event.NextOccurrence()
		}
		if err := s.repo.Retire(event.Name, successor); err != nil {
			// Already gone; another pass raced us or the caller removed it.
			continue
		}
		retired = append(retired, event)
	}
	return retired
}

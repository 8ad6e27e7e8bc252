package controller

import (
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
)

// specOrDeletionChanged lets through spec edits and the start of a deletion.
// Status and finalizer patches written by the controller itself are filtered
// out; the requeue cadence drives steady-state passes.
type specOrDeletionChanged struct {
	predicate.Funcs
}

func (specOrDeletionChanged) Create(event.CreateEvent) bool {
	return true
}

func (specOrDeletionChanged) Delete(event.DeleteEvent) bool {
	return true
}

func (specOrDeletionChanged) Update(e event.UpdateEvent) bool {
	if e.ObjectOld == nil || e.ObjectNew == nil {
		return false
	}

	if e.ObjectOld.GetGeneration() != e.ObjectNew.GetGeneration() {
		return true
	}

	return e.ObjectOld.GetDeletionTimestamp().IsZero() && !e.ObjectNew.GetDeletionTimestamp().IsZero()
}

func (specOrDeletionChanged) Generic(event.GenericEvent) bool {
	return true
}

package trips

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/snofleet/fleet-rental-api/models"
)

// ErrSessionNotFound is returned when a trip session id is unknown, usually
// because the session was cancelled or already confirmed.
var ErrSessionNotFound = errors.New("trip session not found")

// Registry keeps in-flight trip workflows keyed by session id. Workflows hold
// captured photos in memory, so sessions live only as long as the process.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Workflow
}

// NewRegistry returns an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Workflow)}
}

// Create starts a workflow for a vehicle action and registers it under a
// fresh session id.
func (r *Registry) Create(vehicle models.Vehicle, tripType TripType, requiredPhotos int) (*Workflow, error) {
	w, err := NewWorkflow(uuid.New().String(), vehicle, tripType, requiredPhotos)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[w.ID] = w
	return w, nil
}

// Get returns the workflow for a session id.
func (r *Registry) Get(id string) (*Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return w, nil
}

// Remove drops a session, discarding its captured state.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

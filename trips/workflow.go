package trips

import (
	"fmt"

	"github.com/snofleet/fleet-rental-api/models"
)

// Stage is the tagged workflow state for one vehicle action. The stages are
// strictly ordered; forward movement is blocked until the current stage's
// required input is present, and Back only ever moves one stage.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageAuthenticating   Stage = "authenticating"
	StageCapturingPhotos  Stage = "capturing_photos"
	StageConfirmingCharge Stage = "confirming_charge"
)

// TripType distinguishes pickup from return flows.
type TripType string

const (
	TripPickup TripType = "pickup"
	TripReturn TripType = "return"
)

// Position identifies which side of the vehicle a photo shows.
type Position string

const (
	PositionFront Position = "front"
	PositionBack  Position = "back"
	PositionLeft  Position = "left"
	PositionRight Position = "right"
)

// Positions in capture order.
var Positions = []Position{PositionFront, PositionBack, PositionLeft, PositionRight}

// StageError reports an operation attempted in the wrong stage.
type StageError struct {
	Stage Stage
	Op    string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("cannot %s in stage %s", e.Op, e.Stage)
}

// CapturedPhoto is one photo held in memory until confirmation.
type CapturedPhoto struct {
	Position    Position
	Data        []byte
	ContentType string
}

// Workflow is the per-session state of a take or return flow. It is pure
// state + stage rules; the Orchestrator supplies credentials checking,
// uploads and the final vehicle update.
type Workflow struct {
	ID             string
	Vehicle        models.Vehicle
	Type           TripType
	Stage          Stage
	Driver         *models.Driver
	Photos         map[Position]CapturedPhoto
	RequiredPhotos int
}

// NewWorkflow starts a flow for a vehicle action at the authentication stage.
func NewWorkflow(id string, vehicle models.Vehicle, tripType TripType, requiredPhotos int) (*Workflow, error) {
	if tripType != TripPickup && tripType != TripReturn {
		return nil, fmt.Errorf("unknown trip type %q", tripType)
	}
	return &Workflow{
		ID:             id,
		Vehicle:        vehicle,
		Type:           tripType,
		Stage:          StageAuthenticating,
		Photos:         make(map[Position]CapturedPhoto),
		RequiredPhotos: requiredPhotos,
	}, nil
}

// ParsePosition validates a raw position string.
func ParsePosition(s string) (Position, error) {
	for _, p := range Positions {
		if Position(s) == p {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown photo position %q", s)
}

// AddPhoto records a captured photo for a position, replacing any previous
// capture for the same position.
func (w *Workflow) AddPhoto(pos Position, data []byte, contentType string) error {
	if w.Stage != StageCapturingPhotos {
		return &StageError{Stage: w.Stage, Op: "add photo"}
	}
	if _, err := ParsePosition(string(pos)); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("empty photo for position %s", pos)
	}
	w.Photos[pos] = CapturedPhoto{Position: pos, Data: data, ContentType: contentType}
	return nil
}

// RemovePhoto discards a captured photo so it can be retaken.
func (w *Workflow) RemovePhoto(pos Position) error {
	if w.Stage != StageCapturingPhotos {
		return &StageError{Stage: w.Stage, Op: "remove photo"}
	}
	delete(w.Photos, pos)
	return nil
}

// PhotosComplete reports whether enough distinct positions are captured to
// move forward.
func (w *Workflow) PhotosComplete() bool {
	return len(w.Photos) >= w.RequiredPhotos
}

// Forward advances to the next stage. It fails if the current stage's
// required input is missing.
func (w *Workflow) Forward() error {
	switch w.Stage {
	case StageAuthenticating:
		if w.Driver == nil {
			return &StageError{Stage: w.Stage, Op: "advance without authenticated driver"}
		}
		w.Stage = StageCapturingPhotos
	case StageCapturingPhotos:
		if !w.PhotosComplete() {
			return &StageError{Stage: w.Stage, Op: fmt.Sprintf("advance with %d of %d photos", len(w.Photos), w.RequiredPhotos)}
		}
		w.Stage = StageConfirmingCharge
	default:
		return &StageError{Stage: w.Stage, Op: "advance"}
	}
	return nil
}

// Back returns to the previous stage. Captured input is kept so the user can
// adjust rather than redo it.
func (w *Workflow) Back() error {
	switch w.Stage {
	case StageCapturingPhotos:
		w.Stage = StageAuthenticating
	case StageConfirmingCharge:
		w.Stage = StageCapturingPhotos
	default:
		return &StageError{Stage: w.Stage, Op: "go back"}
	}
	return nil
}

// Cancel discards all captured state without persisting anything.
func (w *Workflow) Cancel() {
	w.Driver = nil
	w.Photos = make(map[Position]CapturedPhoto)
	w.Stage = StageIdle
}

// Package cloudlet defines the Cloudlet unit-of-work type, its state
// machine, and utilisation models (spec.md §3).
package cloudlet

import "github.com/poweraware/dcsim/vm"

// ID uniquely identifies a cloudlet.
type ID int

// State is the cloudlet lifecycle state machine.
type State string

const (
	StateCreated  State = "CREATED"
	StateReady    State = "READY"
	StateQueued   State = "QUEUED"
	StateExec     State = "EXEC"
	StatePaused   State = "PAUSED"
	StateSuccess  State = "SUCCESS"
	StateFailed   State = "FAILED"
	StateCanceled State = "CANCELED"
)

// UtilizationModel maps simulation time to a CPU fraction in [0,1].
type UtilizationModel func(now float64) float64

// Full always requests 100% of the cloudlet's share of its VM's PEs.
func Full(float64) float64 { return 1.0 }

// Constant returns a UtilizationModel that always reports frac (clamped to
// [0,1]).
func Constant(frac float64) UtilizationModel {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return func(float64) float64 { return frac }
}

// Cloudlet is a unit of work executed by a VM's cloudlet scheduler.
type Cloudlet struct {
	ID ID

	LengthMI   float64 // total instructions to execute, in millions
	NumPEs     int
	FileSize   float64
	OutputSize float64
	OwnerID    int

	State      State
	AssignedVM vm.ID

	Utilization UtilizationModel

	// ExecutedMI tracks instructions already executed, used to compute
	// remaining length and next-completion time.
	ExecutedMI float64

	ArrivalTime    float64
	FinishTime     float64
}

// New constructs a cloudlet in the CREATED state with a Full utilisation
// model unless overridden via WithUtilization.
func New(id ID, ownerID int, lengthMI float64, numPEs int, fileSize, outputSize float64) *Cloudlet {
	return &Cloudlet{
		ID:          id,
		LengthMI:    lengthMI,
		NumPEs:      numPEs,
		FileSize:    fileSize,
		OutputSize:  outputSize,
		OwnerID:     ownerID,
		State:       StateCreated,
		Utilization: Full,
	}
}

// RemainingMI returns instructions left to execute.
func (c *Cloudlet) RemainingMI() float64 {
	r := c.LengthMI - c.ExecutedMI
	if r < 0 {
		return 0
	}
	return r
}

// IsDone reports whether the cloudlet has executed its full length.
func (c *Cloudlet) IsDone() bool {
	return c.ExecutedMI >= c.LengthMI
}

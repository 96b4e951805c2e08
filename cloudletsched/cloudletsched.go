// Package cloudletsched implements the per-VM cloudlet scheduler: it
// splits a VM's allocated CPU time across its active cloudlets and yields
// the next completion time, per spec.md §4.4's host-side VM scheduler and
// the analogous per-VM unit described in spec.md §2's Cloudlet Scheduler
// row. Grounded on sim/queue.go's WaitQueue FIFO and sim/simulator.go's
// Step() progress-index bookkeeping, generalized from "tokens processed"
// to "instructions (MI) executed".
package cloudletsched

import (
	"math"

	"github.com/poweraware/dcsim/cloudlet"
)

// Scheduler tracks the cloudlets currently executing on one VM and the
// ones still waiting to start on it.
type Scheduler struct {
	waiting []*cloudlet.Cloudlet
	active  []*cloudlet.Cloudlet
	lastRun float64
}

// NewScheduler creates an empty per-VM cloudlet scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Submit enqueues a cloudlet for this VM. It starts in StateQueued until
// the next UpdateProcessing call admits it into the active set.
func (s *Scheduler) Submit(c *cloudlet.Cloudlet) {
	c.State = cloudlet.StateQueued
	s.waiting = append(s.waiting, c)
}

// admitWaiting moves every waiting cloudlet into the active set — this VM
// scheduler is time-shared across all of a VM's own cloudlets (no
// per-cloudlet PE reservation inside a VM; spec.md §1 assumes a linear
// sharing model), so there is no capacity check here.
func (s *Scheduler) admitWaiting() {
	for _, c := range s.waiting {
		c.State = cloudlet.StateExec
		s.active = append(s.active, c)
	}
	s.waiting = nil
}

// weight returns a cloudlet's share weight at time now: PE count times its
// utilisation-model fraction.
func weight(c *cloudlet.Cloudlet, now float64) float64 {
	frac := c.Utilization(now)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return float64(c.NumPEs) * frac
}

// CurrentRequestedTotalMips returns this VM's aggregate CPU demand at time
// now: the sum, over active (and about-to-be-admitted) cloudlets, of
// weight(c, now) * mipsPerPE. This is the "vm.current_requested_mips()"
// input spec.md §4.5 step 2 requires from the host.
func (s *Scheduler) CurrentRequestedTotalMips(now float64, mipsPerPE float64) float64 {
	var total float64
	for _, c := range s.waiting {
		total += weight(c, now) * mipsPerPE
	}
	for _, c := range s.active {
		total += weight(c, now) * mipsPerPE
	}
	return total
}

// UpdateProcessing advances every active cloudlet's executed-MI count
// given the VM's total allocated MIPS at [lastTime, now], admits waiting
// cloudlets, completes any cloudlet that reaches its length, and returns
// the completed cloudlets plus the minimum next-completion time across
// whatever remains active (math.Inf(1) if nothing remains).
func (s *Scheduler) UpdateProcessing(now, totalAllocatedMips float64) (completed []*cloudlet.Cloudlet, nextCompletion float64) {
	s.admitWaiting()

	dt := now - s.lastRun
	if dt < 0 {
		dt = 0
	}
	s.lastRun = now

	if len(s.active) == 0 {
		return nil, math.Inf(1)
	}

	var totalWeight float64
	weights := make([]float64, len(s.active))
	for i, c := range s.active {
		w := weight(c, now)
		weights[i] = w
		totalWeight += w
	}

	remaining := s.active[:0:0]
	nextCompletion = math.Inf(1)
	for i, c := range s.active {
		var share float64
		if totalWeight > 0 {
			share = totalAllocatedMips * (weights[i] / totalWeight)
		}
		c.ExecutedMI += share * dt
		if c.IsDone() {
			c.State = cloudlet.StateSuccess
			c.FinishTime = now
			completed = append(completed, c)
			continue
		}
		remaining = append(remaining, c)
		if share > 0 {
			eta := now + c.RemainingMI()/share
			if eta < nextCompletion {
				nextCompletion = eta
			}
		}
	}
	s.active = remaining
	return completed, nextCompletion
}

// ActiveCount returns the number of cloudlets currently executing or
// waiting on this VM.
func (s *Scheduler) ActiveCount() int {
	return len(s.active) + len(s.waiting)
}

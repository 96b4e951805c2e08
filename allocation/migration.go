package allocation

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/poweraware/dcsim/host"
	"github.com/poweraware/dcsim/provisioner"
	"github.com/poweraware/dcsim/vm"
	"github.com/poweraware/dcsim/vmsched"
	"github.com/poweraware/dcsim/vmselect"
)

// BookkeepingInconsistency is a panic value raised when Stage E (restore)
// fails to recreate a VM that existed in the M0 snapshot — this can only
// happen if a caller mutated host capacity concurrently with
// OptimizeAllocation, which the single-goroutine simulation kernel
// guarantees never happens.
type BookkeepingInconsistency struct {
	VMID   vm.ID
	HostID host.ID
}

func (e BookkeepingInconsistency) Error() string {
	return fmt.Sprintf("could not restore vm %d onto host %d during rollback", e.VMID, e.HostID)
}

// Migration implements the overload/underload consolidation policy
// (spec.md §4.8): detect overloaded hosts, migrate victim VMs off them to
// minimize marginal power, then evacuate lightly loaded hosts entirely
// when every one of their VMs can be placed elsewhere. Grounded on the
// same evaluate-every-candidate-keep-minimum shape as sim/routing_adaptive.go
// and sim/routing_scorers_adaptive.go, and on sim/cluster/counterfactual.go's
// speculative-apply-then-revert pattern for the what-if host checks.
type Migration struct {
	Detector    OverloadDetector
	Selector    vmselect.Policy
	Suitability *host.Suitability
	History     *HostHistory
}

// NewMigration constructs a Migration policy.
func NewMigration(detector OverloadDetector, selector vmselect.Policy, oversubscribe bool) *Migration {
	return &Migration{
		Detector:    detector,
		Selector:    selector,
		Suitability: &host.Suitability{Oversubscribe: oversubscribe},
		History:     NewHostHistory(),
	}
}

// FindHostForVM implements find_host_for_vm (spec.md §4.8 Stage C): among
// suitable, non-excluded hosts that would not become overloaded by
// accepting v, pick the one with the smallest marginal power increase.
func (m *Migration) FindHostForVM(v *vm.VM, hosts []*host.Host, excluded map[host.ID]bool) (*host.Host, bool) {
	var best *host.Host
	bestDelta := 0.0
	found := false

	for _, h := range hosts {
		if excluded != nil && excluded[h.ID] {
			continue
		}
		if !m.Suitability.IsSuitable(h, v) {
			continue
		}
		delta, wouldOverload, ok := m.speculateAdd(h, v)
		if !ok || wouldOverload {
			continue
		}
		if !found || delta < bestDelta {
			best, bestDelta, found = h, delta, true
		}
	}
	return best, found
}

// speculateAdd tentatively places v on h, measures the marginal power
// increase and whether h would then read as overloaded, then reverts.
func (m *Migration) speculateAdd(h *host.Host, v *vm.VM) (delta float64, overloaded bool, ok bool) {
	before := h.Power.Watts(h.UtilizationFraction())
	if !h.VmCreate(v) {
		return 0, false, false
	}
	// VmCreate reserves only RAM and BW; assign v's requested MIPS to h's
	// PEs so utilisation, power and the overload check include it.
	// VmDestroy below releases this PE allocation again.
	h.Scheduler.Allocate(h.PEs, []vmsched.Request{{
		VM:        provisioner.VMID(v.ID),
		MipsPerPE: v.RequestedMipsPerPE,
		NumPEs:    v.NumPEs,
	}})
	after := h.Power.Watts(h.UtilizationFraction())
	overloaded = m.Detector.IsOverloaded(h, m.History)
	h.VmDestroy(v)
	return after - before, overloaded, true
}

// OptimizeAllocation runs the full Stage A-E pipeline once and returns the
// resulting vm -> destination host map (empty if nothing changed). Actual
// migration execution (scheduling VM_MIGRATE events) is the caller's
// (datacenter's) job; this only decides placement.
func (m *Migration) OptimizeAllocation(hosts []*host.Host, now float64) map[vm.ID]host.ID {
	start := time.Now()
	for _, h := range hosts {
		m.History.Record(h)
	}
	logrus.Debugf("migration: stage A (history+overload scan) took %s", time.Since(start))

	hostByID := make(map[host.ID]*host.Host, len(hosts))
	for _, h := range hosts {
		hostByID[h.ID] = h
	}

	m0 := m.snapshot(hosts)

	excluded := make(map[host.ID]bool)
	migrations := make(map[vm.ID]host.ID)

	stageBC := time.Now()
	for _, h := range hosts {
		if !m.Detector.IsOverloaded(h, m.History) {
			continue
		}
		m.drainOverloadedHost(h, hosts, excluded, migrations)
	}
	logrus.Debugf("migration: stage B/C (overload drain) took %s", time.Since(stageBC))

	stageD := time.Now()
	m.evacuateUnderloaded(hosts, excluded, migrations)
	logrus.Debugf("migration: stage D (underload evacuation) took %s", time.Since(stageD))

	stageE := time.Now()
	m.restore(hosts, hostByID, m0)
	logrus.Debugf("migration: stage E (restore) took %s", time.Since(stageE))

	return migrations
}

// drainOverloadedHost repeatedly selects a victim VM off h (Stage B) and
// finds it a new home (Stage C) until h is no longer overloaded or no
// candidate VM remains. Excluded hosts are skipped as destinations. This
// mutates the live host/VM placement to build up the migrations map; the
// final Stage E restore undoes all of it before returning, since the
// actual moves only happen once the datacenter schedules VM_MIGRATE.
func (m *Migration) drainOverloadedHost(h *host.Host, hosts []*host.Host, excluded map[host.ID]bool, migrations map[vm.ID]host.ID) {
	for m.Detector.IsOverloaded(h, m.History) {
		candidates := h.VMs()
		if len(candidates) == 0 {
			break
		}
		victim, ok := m.Selector.Select(h, candidates)
		if !ok {
			break
		}

		dest, ok := m.FindHostForVM(victim, hosts, excludedPlus(excluded, h.ID))
		if !ok {
			// No home for this victim; stop trying to drain this host
			// further to avoid an infinite loop re-selecting the same VM.
			break
		}

		h.VmDestroy(victim)
		if !dest.VmCreate(victim) {
			// Destination capacity changed under us (shouldn't happen in a
			// single-goroutine kernel); put the VM back and give up.
			h.VmCreate(victim)
			break
		}
		migrations[victim.ID] = dest.ID
	}
}

// evacuateUnderloaded implements Stage D: repeatedly pick the non-excluded,
// non-overloaded, running host with the smallest nonzero utilization and
// try to relocate every VM on it. If every VM can be placed elsewhere, the
// host is excluded from further consideration (it will end up switched
// off); otherwise the attempt is abandoned for this host this round and
// any speculative moves made during the attempt are not migrations.
func (m *Migration) evacuateUnderloaded(hosts []*host.Host, excluded map[host.ID]bool, migrations map[vm.ID]host.ID) {
	for {
		target, ok := m.pickUnderloadedHost(hosts, excluded)
		if !ok {
			return
		}
		if !m.tryEvacuate(target, hosts, excluded, migrations) {
			excluded[target.ID] = true // tried and failed; don't retry this round
			continue
		}
		excluded[target.ID] = true
	}
}

// pickUnderloadedHost finds the running, non-excluded, non-overloaded host
// with minimum nonzero utilization.
func (m *Migration) pickUnderloadedHost(hosts []*host.Host, excluded map[host.ID]bool) (*host.Host, bool) {
	var best *host.Host
	bestUtil := 0.0
	found := false
	for _, h := range hosts {
		if excluded[h.ID] || h.IsSwitchedOff() {
			continue
		}
		if m.Detector.IsOverloaded(h, m.History) {
			continue
		}
		if areAllVmsMigratingOutOrAnyVmMigratingIn(h) {
			continue
		}
		u := h.UtilizationFraction()
		if !found || u < bestUtil {
			best, bestUtil, found = h, u, true
		}
	}
	return best, found
}

// tryEvacuate accepts an evacuation plan for target only if every VM on
// target can be placed on some other host. If any single VM has no home,
// or a planned move cannot be applied, every move made from target is
// undone and no mapping is added. (The "all VMs migrating out, or any VM
// migrating in" guard is applied earlier, by pickUnderloadedHost.)
func (m *Migration) tryEvacuate(target *host.Host, hosts []*host.Host, excluded map[host.ID]bool, migrations map[vm.ID]host.ID) bool {
	vms := target.VMs()
	if len(vms) == 0 {
		return true
	}

	type move struct {
		v    *vm.VM
		dest *host.Host
	}
	var moves []move
	localExcluded := excludedPlus(excluded, target.ID)

	for _, v := range vms {
		dest, ok := m.FindHostForVM(v, hosts, localExcluded)
		if !ok {
			return false
		}
		moves = append(moves, move{v: v, dest: dest})
	}

	for i, mv := range moves {
		target.VmDestroy(mv.v)
		if !mv.dest.VmCreate(mv.v) {
			// Each destination was chosen without the other moves applied,
			// so two VMs can compete for one host's capacity. Undo this
			// host's moves; no mapping is added for any of them.
			target.VmCreate(mv.v)
			for _, done := range moves[:i] {
				done.dest.VmDestroy(done.v)
				target.VmCreate(done.v)
			}
			return false
		}
	}
	for _, mv := range moves {
		migrations[mv.v.ID] = mv.dest.ID
	}
	return true
}

// areAllVmsMigratingOutOrAnyVmMigratingIn is the exact guard named in
// spec.md §10's Open Question decision: true once every VM on h is
// already marked InMigration (all leaving), or at least one VM is
// currently migrating in to h. pickUnderloadedHost uses it to skip hosts
// already mid-transition rather than starting a second, conflicting
// evacuation attempt on top of one already underway.
func areAllVmsMigratingOutOrAnyVmMigratingIn(h *host.Host) bool {
	if h.AnyMigratingIn() {
		return true
	}
	vms := h.VMs()
	if len(vms) == 0 {
		return false
	}
	for _, v := range vms {
		if !v.InMigration {
			return false
		}
	}
	return true
}

func excludedPlus(excluded map[host.ID]bool, extra host.ID) map[host.ID]bool {
	out := make(map[host.ID]bool, len(excluded)+1)
	for k, v := range excluded {
		out[k] = v
	}
	out[extra] = true
	return out
}

// snapshot records, for every VM currently placed on any host, which host
// it's on (spec.md §4.8 Stage C "save M0").
func (m *Migration) snapshot(hosts []*host.Host) map[vm.ID]host.ID {
	m0 := make(map[vm.ID]host.ID)
	for _, h := range hosts {
		for _, v := range h.VMs() {
			m0[v.ID] = h.ID
		}
	}
	return m0
}

// restore undoes every speculative move made while computing the
// migration plan: destroy all current placements, then recreate exactly
// the M0 snapshot. The real migrations are re-applied by the datacenter
// once it schedules the corresponding VM_MIGRATE events; OptimizeAllocation
// itself must leave host state exactly as it found it (spec.md §9
// "Restore idempotence").
func (m *Migration) restore(hosts []*host.Host, hostByID map[host.ID]*host.Host, m0 map[vm.ID]host.ID) {
	placed := make(map[vm.ID]*vm.VM)
	for _, h := range hosts {
		for _, v := range h.VMs() {
			placed[v.ID] = v
			h.VmDestroy(v)
		}
	}
	sortedIDs := make([]vm.ID, 0, len(m0))
	for id := range m0 {
		sortedIDs = append(sortedIDs, id)
	}
	sort.Slice(sortedIDs, func(i, j int) bool { return sortedIDs[i] < sortedIDs[j] })

	for _, id := range sortedIDs {
		hostID := m0[id]
		v := placed[id]
		h := hostByID[hostID]
		if v == nil || h == nil || !h.VmCreate(v) {
			panic(BookkeepingInconsistency{VMID: id, HostID: hostID})
		}
	}
}

package kernel

// EntityID is a stable integer identifier assigned at registration.
// Distinct type rather than a bare int, matching the teacher's InstanceID
// string-distinct-type idiom in sim/cluster/types.go — prevents accidental
// mixing with unrelated integer ids (VM id, host id, cloudlet id).
type EntityID int

// EntityState is the lifecycle state machine every entity passes through.
type EntityState int

const (
	StateRunnable EntityState = iota
	StateRunning
	StateHolding
	StateFinished
)

// Entity is the capability set every kernel-addressable object implements.
// Polymorphic over {OnStart, OnEvent, OnShutdown} per spec.md §4.2.
type Entity interface {
	// ID returns the entity's registered id. Populated by the registry at
	// registration time via SetID; entities should return the stored value.
	ID() EntityID
	SetID(EntityID)
	// Name returns a human-readable, not-necessarily-unique label.
	Name() string
	// State returns the entity's current lifecycle state.
	State() EntityState
	SetState(EntityState)

	// OnStart is invoked once, for every entity, when the kernel starts.
	OnStart(sim *Simulation)
	// OnEvent is invoked for every event addressed to this entity while it
	// is in StateRunning.
	OnEvent(sim *Simulation, e *Event)
	// OnShutdown is invoked once, for every entity, when the kernel stops.
	OnShutdown(sim *Simulation)
}

// BaseEntity provides the bookkeeping fields (id, name, state) common to
// every concrete entity, so entity implementations only need to embed it
// and implement OnStart/OnEvent/OnShutdown.
type BaseEntity struct {
	id    EntityID
	name  string
	state EntityState
}

// NewBaseEntity constructs a BaseEntity with the given name. ID is
// populated later by Simulation.Register.
func NewBaseEntity(name string) BaseEntity {
	return BaseEntity{name: name, state: StateRunnable}
}

func (b *BaseEntity) ID() EntityID          { return b.id }
func (b *BaseEntity) SetID(id EntityID)     { b.id = id }
func (b *BaseEntity) Name() string          { return b.name }
func (b *BaseEntity) State() EntityState    { return b.state }
func (b *BaseEntity) SetState(s EntityState) { b.state = s }

package ecs

import (
	"github.com/phanxgames/canopy"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// Layer is a block's position in z-order. Index 0 paints first.
type Layer struct {
	Index int
}

// BlockComponent holds the latest state of a canvas block.
var BlockComponent = donburi.NewComponentType[canopy.Block]()

// LayerComponent holds a block's z-order position.
var LayerComponent = donburi.NewComponentType[Layer]()

// ChangeEventType is the Donburi event type for store mutations.
// Events are queued; call ProcessEvents once per frame to deliver them.
var ChangeEventType = events.NewEventType[canopy.ChangeEvent]()

// Blocks matches every entity the bridge created.
var Blocks = donburi.NewQuery(filter.Contains(BlockComponent, LayerComponent))

// Bridge keeps a Donburi world in step with a canvas store.
type Bridge struct {
	world    donburi.World
	store    *canopy.Store
	handle   canopy.CallbackHandle
	entities map[canopy.BlockID]donburi.Entity
}

// NewBridge creates a bridge that writes into world.
func NewBridge(world donburi.World) *Bridge {
	return &Bridge{
		world:    world,
		entities: make(map[canopy.BlockID]donburi.Entity),
	}
}

// Attach mirrors every block currently on c and subscribes to later
// changes. A previously attached canvas is detached first.
func (b *Bridge) Attach(c *canopy.Canvas) {
	b.Detach()
	b.store = c.Store()
	b.resync()
	b.handle = b.store.Subscribe(b)
}

// Detach stops mirroring and removes the bridge's entities.
func (b *Bridge) Detach() {
	if b.store == nil {
		return
	}
	b.handle.Remove()
	b.store = nil
	for id := range b.entities {
		b.remove(id)
	}
}

// Entity returns the entity mirroring block id.
func (b *Bridge) Entity(id canopy.BlockID) (donburi.Entity, bool) {
	e, ok := b.entities[id]
	return e, ok
}

// Len reports how many blocks are mirrored.
func (b *Bridge) Len() int { return len(b.entities) }

// BlockChanged implements canopy.Observer.
func (b *Bridge) BlockChanged(ev canopy.ChangeEvent) {
	switch ev.Type {
	case canopy.ChangeCreated, canopy.ChangeUpdated:
		if ev.Block != nil {
			b.upsert(*ev.Block)
		}
		if ev.Type == canopy.ChangeCreated {
			b.relayer()
		}
	case canopy.ChangeRemoved:
		for _, id := range ev.IDs {
			b.remove(id)
		}
		b.relayer()
	case canopy.ChangeReordered:
		b.relayer()
	case canopy.ChangeLoaded:
		b.resync()
	}
	ChangeEventType.Publish(b.world, ev)
}

func (b *Bridge) upsert(block canopy.Block) {
	e, ok := b.entities[block.ID]
	if !ok || !b.world.Valid(e) {
		e = b.world.Create(BlockComponent, LayerComponent)
		b.entities[block.ID] = e
	}
	BlockComponent.SetValue(b.world.Entry(e), block)
}

func (b *Bridge) remove(id canopy.BlockID) {
	e, ok := b.entities[id]
	if !ok {
		return
	}
	delete(b.entities, id)
	if b.world.Valid(e) {
		b.world.Remove(e)
	}
}

// relayer rewrites every Layer from the store's current order.
func (b *Bridge) relayer() {
	if b.store == nil {
		return
	}
	for i, id := range b.store.Order() {
		if e, ok := b.entities[id]; ok && b.world.Valid(e) {
			LayerComponent.SetValue(b.world.Entry(e), Layer{Index: i})
		}
	}
}

// resync replaces the mirrored set with the store's contents.
func (b *Bridge) resync() {
	live := make(map[canopy.BlockID]bool, b.store.Len())
	for _, block := range b.store.All() {
		live[block.ID] = true
		b.upsert(block)
	}
	for id := range b.entities {
		if !live[id] {
			b.remove(id)
		}
	}
	b.relayer()
}

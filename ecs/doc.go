// Package ecs mirrors a canopy canvas into a [Donburi] world.
//
// A [Bridge] subscribes to the canvas store and keeps one entity per block,
// carrying [BlockComponent] and [LayerComponent]. Every store mutation is
// also published as a [ChangeEventType] event for systems that react to
// edits rather than poll state.
//
// Usage:
//
//	world := donburi.NewWorld()
//	bridge := ecs.NewBridge(world)
//	bridge.Attach(canvas)
//	ecs.ChangeEventType.Subscribe(world, onChange)
//	// each frame:
//	ecs.ChangeEventType.ProcessEvents(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs

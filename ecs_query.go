package outline

import (
	"reflect"
	"slices"
)

// Queries visit every entity that has all of the requested components.
// Components passed as optionals may be missing, in which case the callback
// receives nil for them. Returning false from the callback stops the query.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }
type Query3[A, B, C any] struct{ ecs *Ecs }
type Query4[A, B, C, D any] struct{ ecs *Ecs }
type Query5[A, B, C, D, E any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]             { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B]       { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] { return Query3[A, B, C]{ecs: cmd.app.ecs} }
func MakeQuery4[A, B, C, D any](cmd *Commands) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{ecs: cmd.app.ecs}
}
func MakeQuery5[A, B, C, D, E any](cmd *Commands) Query5[A, B, C, D, E] {
	return Query5[A, B, C, D, E]{ecs: cmd.app.ecs}
}

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	id1 := identifyComponent[A](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.sortedArchetypes() {
		c1, ok := column[A](arch, id1, opt)
		if !ok {
			continue
		}
		for _, eid := range arch.sortedEntities() {
			r := arch.entities[eid]
			if !m(eid, at(c1, r)) {
				return
			}
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	id1, id2 := identifyComponent[A](q.ecs), identifyComponent[B](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.sortedArchetypes() {
		c1, ok1 := column[A](arch, id1, opt)
		c2, ok2 := column[B](arch, id2, opt)
		if !ok1 || !ok2 {
			continue
		}
		for _, eid := range arch.sortedEntities() {
			r := arch.entities[eid]
			if !m(eid, at(c1, r), at(c2, r)) {
				return
			}
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	id1, id2, id3 := identifyComponent[A](q.ecs), identifyComponent[B](q.ecs), identifyComponent[C](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.sortedArchetypes() {
		c1, ok1 := column[A](arch, id1, opt)
		c2, ok2 := column[B](arch, id2, opt)
		c3, ok3 := column[C](arch, id3, opt)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		for _, eid := range arch.sortedEntities() {
			r := arch.entities[eid]
			if !m(eid, at(c1, r), at(c2, r), at(c3, r)) {
				return
			}
		}
	}
}

func (q Query4[A, B, C, D]) Map(m func(EntityId, *A, *B, *C, *D) bool, optionals ...any) {
	id1, id2 := identifyComponent[A](q.ecs), identifyComponent[B](q.ecs)
	id3, id4 := identifyComponent[C](q.ecs), identifyComponent[D](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.sortedArchetypes() {
		c1, ok1 := column[A](arch, id1, opt)
		c2, ok2 := column[B](arch, id2, opt)
		c3, ok3 := column[C](arch, id3, opt)
		c4, ok4 := column[D](arch, id4, opt)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		for _, eid := range arch.sortedEntities() {
			r := arch.entities[eid]
			if !m(eid, at(c1, r), at(c2, r), at(c3, r), at(c4, r)) {
				return
			}
		}
	}
}

func (q Query5[A, B, C, D, E]) Map(m func(EntityId, *A, *B, *C, *D, *E) bool, optionals ...any) {
	id1, id2 := identifyComponent[A](q.ecs), identifyComponent[B](q.ecs)
	id3, id4, id5 := identifyComponent[C](q.ecs), identifyComponent[D](q.ecs), identifyComponent[E](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.sortedArchetypes() {
		c1, ok1 := column[A](arch, id1, opt)
		c2, ok2 := column[B](arch, id2, opt)
		c3, ok3 := column[C](arch, id3, opt)
		c4, ok4 := column[D](arch, id4, opt)
		c5, ok5 := column[E](arch, id5, opt)
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
			continue
		}
		for _, eid := range arch.sortedEntities() {
			r := arch.entities[eid]
			if !m(eid, at(c1, r), at(c2, r), at(c3, r), at(c4, r), at(c5, r)) {
				return
			}
		}
	}
}

// column returns the archetype's storage for a component. ok is false when
// the archetype lacks a required component; a missing optional yields a
// nil slice.
func column[T any](arch *archetype, id componentId, optionals set[componentId]) (comps []T, ok bool) {
	if data, present := arch.componentData[id]; present {
		return data.([]T), true
	}
	if _, optional := optionals[id]; optional {
		return nil, true
	}
	return nil, false
}

func at[T any](comps []T, r row) *T {
	if comps == nil {
		return nil
	}
	return &comps[r]
}

func (ecs *Ecs) sortedArchetypes() []*archetype {
	archs := make([]*archetype, 0, len(ecs.archetypes))
	for _, arch := range ecs.archetypes {
		if len(arch.entities) > 0 {
			archs = append(archs, arch)
		}
	}
	slices.SortFunc(archs, func(a, b *archetype) int {
		return slices.Compare(a.key, b.key)
	})
	return archs
}

func identifyComponent[T any](ecs *Ecs) componentId {
	return ecs.getComponentId(reflect.TypeFor[T]())
}

func identifyOptionals(ecs *Ecs, optionals ...any) set[componentId] {
	res := make(set[componentId], len(optionals))
	for _, o := range optionals {
		res[ecs.getComponentId(componentType(o))] = struct{}{}
	}
	return res
}

// Package boundary exposes the health monitoring stack to non-native
// callers through opaque handles. Every create/destroy/operate
// primitive pairs 1:1 with the native API, results travel as codes
// from a uniform error space.
package boundary

import "sync"

// Handle is an opaque reference handed across the boundary.
// The zero handle is never valid.
type Handle uintptr

// Code is the uniform boundary error space.
type Code int32

const (
	OK = Code(iota)
	NotFound
	AlreadyExists
	InvalidArgument
	WrongState
	Failed
)

// Process-wide handle table. A handle created by one side must be
// destroyed by the same side, borrowing at a call site does not
// transfer ownership.
var table = struct {
	sync.Mutex
	next    Handle
	objects map[Handle]any
}{
	next:    1,
	objects: map[Handle]any{},
}

func export(obj any) Handle {
	table.Lock()
	defer table.Unlock()
	h := table.next
	table.next++
	table.objects[h] = obj
	return h
}

// resolve borrows the object behind h without transferring ownership.
func resolve[T any](h Handle) (T, bool) {
	table.Lock()
	defer table.Unlock()
	obj, ok := table.objects[h].(T)
	return obj, ok
}

// release removes h from the table and returns its object.
func release[T any](h Handle) (T, bool) {
	table.Lock()
	defer table.Unlock()
	obj, ok := table.objects[h].(T)
	if ok {
		delete(table.objects, h)
	}
	return obj, ok
}

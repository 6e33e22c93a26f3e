package reflection

import "fmt"

// Instance pairs a raw native object address with the Class describing
// it. The owned flag decides whether destruction runs the registered
// destructor;
// the bond back-link pins another host value's lifetime to this one, used
// for wrappers that alias shared storage (an iterator bonded to its
// container, or a const reference returned out of an owning object).
type Instance struct {
	ptr   uintptr
	class *Class
	owned bool
	bond  ScriptingElement
}

// NewOwnedInstance wraps an address produced by a constructor; the wrapper
// is responsible for destroying it.
func NewOwnedInstance(class *Class, ptr uintptr) *Instance {
	return &Instance{ptr: ptr, class: class, owned: true}
}

// WrapInstance wraps an externally produced address without taking
// ownership of it.
func WrapInstance(class *Class, ptr uintptr) *Instance {
	return &Instance{ptr: ptr, class: class}
}

// Ptr returns the native object address.
func (i *Instance) Ptr() uintptr { return i.ptr }

// Class returns the class this instance belongs to.
func (i *Instance) Class() *Class { return i.class }

// IsOwned reports whether destroying this wrapper should run the
// registered destructor.
func (i *Instance) IsOwned() bool { return i.owned }

// Disown marks the instance as externally managed, suppressing destructor
// invocation on destroy.
func (i *Instance) Disown() { i.owned = false }

// Own makes this wrapper responsible for destroying the instance, used
// when a call transfers ownership of the pointer it returned.
func (i *Instance) Own() { i.owned = true }

// BondTo pins owner's lifetime to this instance: as long as this wrapper is
// reachable, owner is too, and ownership transfer is suppressed.
func (i *Instance) BondTo(owner ScriptingElement) {
	i.bond = owner
	i.owned = false
}

// Bond returns the bonded owner, or nil.
func (i *Instance) Bond() ScriptingElement { return i.bond }

// Destroy runs the class's registered destructor if and only if the
// instance is owned and no bond overrides the decision. It is safe to call
// more than once; the first call clears ownership.
func (i *Instance) Destroy() error {
	if !i.owned || i.bond != nil {
		return nil
	}
	i.owned = false
	return i.class.destroyInstance(i)
}

func (i *Instance) String() string {
	return fmt.Sprintf("<%s instance at 0x%x>", i.class.Name(), i.ptr)
}

package objcore

// ClassHandle is the host runtime's opaque reference to a class record.
type ClassHandle uint32

// NoClass is the zero handle: no superclass, or no class by that name.
const NoClass ClassHandle = 0

// Selector names a method in the host dispatch table.
type Selector string

// Method is one row of a host method table.
type Method struct {
	Selector Selector
	Entry    MethodEntry
	Types    string
	// Owner is the class whose own table holds the row.
	Owner ClassHandle
}

// Host is the narrow capability surface of the foreign object runtime. It
// knows single inheritance, flat per-class method tables, and an opaque
// per-class version tag; everything else lives in this package.
//
// Implementations must be safe for concurrent use; the core calls them while
// holding its own lock and never expects a Host to call back.
type Host interface {
	// AllocateClassPair creates an unregistered class record named name under
	// super. It fails when the name is already taken.
	AllocateClassPair(super ClassHandle, name string, extraBytes int) (ClassHandle, error)
	RegisterClassPair(h ClassHandle)
	DisposeClassPair(h ClassHandle)
	// LookupClass finds an allocated class by host name, or NoClass.
	LookupClass(name string) ClassHandle
	ClassName(h ClassHandle) string

	Superclass(h ClassHandle) ClassHandle
	SetSuperclass(h ClassHandle, super ClassHandle)
	Version(h ClassHandle) uint32
	SetVersion(h ClassHandle, version uint32)

	// AddMethod adds a row to h's own table. It returns false when h already
	// owns a row for sel.
	AddMethod(h ClassHandle, sel Selector, entry MethodEntry, types string) bool
	// SetImplementation replaces the entry of a row h already owns.
	SetImplementation(h ClassHandle, sel Selector, entry MethodEntry) bool
	// InstanceMethod resolves sel along h's superclass chain.
	InstanceMethod(h ClassHandle, sel Selector) (Method, bool)
	// CopyMethodList returns h's own rows in definition order.
	CopyMethodList(h ClassHandle) []Method
}

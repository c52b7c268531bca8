// Package objcore implements the object-model core of a Ruby-flavoured
// runtime on top of a host object system that only knows single inheritance
// and flat method tables. It covers:
//   - Class and module creation, naming, and registration in the global
//     namespace, with deterministic renaming of colliding host names.
//   - Singleton classes (metaclasses) created on demand and attached to exactly
//     one object through a weak back-reference.
//   - Module inclusion by flattening a module's methods into the includer's
//     own table, plus a separate ancestry index for introspection.
//   - Method definition, aliasing, undefinition (tombstones), and listing by
//     visibility.
//   - Cloning of classes, modules, singleton classes, and plain objects.
//   - Installation of specialized method sets for subclasses of the built-in
//     Array, Hash, and String classes.
//
// The host runtime is reached only through the Host interface; MemoryHost is
// an in-process implementation used by the command line tool and the tests.
// Class graphs can also be described declaratively in YAML manifests and
// loaded with Runtime.LoadManifestFile.
package objcore

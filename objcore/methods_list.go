package objcore

type visibilityFilter func(Visibility) bool

func allButPrivate(v Visibility) bool { return v == VisibilityPublic || v == VisibilityProtected }

func only(want Visibility) visibilityFilter {
	return func(v Visibility) bool { return v == want }
}

// InstanceMethods lists the public and protected instance methods of klass.
// With recursive set the superclasses are included; a selector is reported
// once, at the level closest to klass, and a closer private or undefined row
// hides it.
func (rt *Runtime) InstanceMethods(klass *Class, recursive bool) []string {
	return rt.listMethods(klass, recursive, allButPrivate)
}

func (rt *Runtime) PublicInstanceMethods(klass *Class, recursive bool) []string {
	return rt.listMethods(klass, recursive, only(VisibilityPublic))
}

func (rt *Runtime) ProtectedInstanceMethods(klass *Class, recursive bool) []string {
	return rt.listMethods(klass, recursive, only(VisibilityProtected))
}

func (rt *Runtime) PrivateInstanceMethods(klass *Class, recursive bool) []string {
	return rt.listMethods(klass, recursive, only(VisibilityPrivate))
}

func (rt *Runtime) listMethods(klass *Class, recursive bool, keep visibilityFilter) []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	var (
		out  []string
		seen = make(map[Selector]struct{})
	)
	for k := klass; k != nil; k = k.super() {
		out = rt.appendOwnMethods(out, seen, k, keep)
		if !recursive || k.isModule() {
			break
		}
	}
	return out
}

func (rt *Runtime) appendOwnMethods(out []string, seen map[Selector]struct{}, k *Class, keep visibilityFilter) []string {
	for _, m := range rt.host.CopyMethodList(k.handle) {
		if _, dup := seen[m.Selector]; dup {
			continue
		}
		seen[m.Selector] = struct{}{}
		if m.Entry.IsUndefined() || !keep(m.Entry.Visibility) {
			continue
		}
		out = append(out, string(m.Selector))
	}
	return out
}

// SingletonMethods lists the methods v answers from singleton classes. For
// an object that is its own singleton class; for a class it is its
// metaclass, and with recursive set the metaclasses of its superclasses too.
// Modules mixed into a singleton class are flattened into it and listed.
func (rt *Runtime) SingletonMethods(v Value, recursive bool) []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	var (
		out  []string
		seen = make(map[Selector]struct{})
	)
	if c := v.Class(); c != nil && !c.isSingleton() {
		for k := c; k != nil; k = k.super() {
			if meta := k.metaclass(); meta != nil {
				out = rt.appendOwnMethods(out, seen, meta, allButPrivate)
			}
			if !recursive || k.isModule() {
				break
			}
		}
		return out
	}
	for k := rt.classOf(v); k != nil; k = k.super() {
		if k.isSingleton() {
			out = rt.appendOwnMethods(out, seen, k, allButPrivate)
		}
		if !recursive {
			break
		}
	}
	return out
}

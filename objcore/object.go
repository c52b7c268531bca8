package objcore

import "fmt"

// header is the part shared by every heap value: its effective class and its
// frozen bit.
type header struct {
	klass  *Class
	frozen bool
}

// Object is a plain heap instance.
type Object struct {
	header
	ivars map[ID]Value
}

func (o *Object) String() string {
	if o.klass == nil {
		return "#<?>"
	}
	return fmt.Sprintf("#<%s:%p>", o.klass.real().displayName(), o)
}

func (o *Object) IsFrozen() bool { return o.frozen }

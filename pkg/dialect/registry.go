package dialect

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// registered holds every DDL dialect linked into the binary, keyed by
// lowercase name. Dialect packages add themselves from init.
var registered sync.Map

// Register makes d available by name. Registering the same name twice is a
// programming error and panics.
func Register(d *Dialect) {
	key := strings.ToLower(d.Name)
	if key == "" {
		panic("dialect: Register called with an unnamed dialect")
	}
	if _, dup := registered.LoadOrStore(key, d); dup {
		panic(fmt.Sprintf("dialect: %q registered twice", d.Name))
	}
}

// Get looks a dialect up by name, ignoring case.
func Get(name string) (*Dialect, bool) {
	v, ok := registered.Load(strings.ToLower(name))
	if !ok {
		return nil, false
	}
	return v.(*Dialect), true
}

// List returns the registered dialect names in sorted order.
func List() []string {
	var names []string
	registered.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	slices.Sort(names)
	return names
}

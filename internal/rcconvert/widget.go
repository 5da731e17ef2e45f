// Package rcconvert implements Component C: the deterministic rewrite from
// parsed RC dialog/control records (internal/rc) to Qt-style widget records.
package rcconvert

// Property is a single Qt-style widget property (name/value pair), kept as
// strings since the converter only ever produces literal values.
type Property struct {
	Name  string
	Value string
}

// Geometry is a widget's x,y,w,h rectangle in target (Qt) units.
type Geometry struct {
	X, Y, W, H int
}

// Widget is one node of the converted widget tree.
type Widget struct {
	Class      string
	Name       string // the RC control id, used as objectName
	Geometry   Geometry
	Properties []Property
	Children   []*Widget
}

// SetProperty appends or overwrites a property by name.
func (w *Widget) SetProperty(name, value string) {
	for i := range w.Properties {
		if w.Properties[i].Name == name {
			w.Properties[i].Value = value
			return
		}
	}
	w.Properties = append(w.Properties, Property{Name: name, Value: value})
}

// Property returns a property's value and whether it was set.
func (w *Widget) Property(name string) (string, bool) {
	for _, p := range w.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Flags are the Component C conversion flags (§4.C).
type Flags int

const (
	UpdateHierarchy Flags = 1 << iota
	UpdateGeometry
	UseIDForPixmap
)

func (f Flags) has(flag Flags) bool { return f&flag != 0 }

// Scale holds the dialog-unit → pixel scale factors (§4.C defaults 1.5/1.65).
type Scale struct {
	X, Y float64
}

// DefaultScale is the dialog-unit-to-pixel scale used absent an explicit
// override (§4.C).
var DefaultScale = Scale{X: 1.5, Y: 1.65}

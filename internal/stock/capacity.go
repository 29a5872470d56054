package stock

// Capacity is a sellable quantity that may be unconstrained. The zero value
// is Unbounded.
type Capacity struct {
	units   int
	bounded bool
}

var Unbounded = Capacity{}

func Bounded(units int) Capacity {
	return Capacity{units: units, bounded: true}
}

// Min treats Unbounded as the identity.
func (c Capacity) Min(o Capacity) Capacity {
	switch {
	case !c.bounded:
		return o
	case !o.bounded:
		return c
	case o.units < c.units:
		return o
	default:
		return c
	}
}

func (c Capacity) Value() (int, bool) {
	return c.units, c.bounded
}

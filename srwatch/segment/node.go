package segment

// Node is one captured platform view: the wireframes it paints, its
// descendants in paint order, and the wireframes of its ancestors (outer to
// inner) used to resolve clipping.
type Node struct {
	Wireframes []Wireframe `json:"wireframes"`
	Children   []Node      `json:"children,omitempty"`
	Parents    []Wireframe `json:"parents,omitempty"`
}

// Orientation is the device screen orientation at capture time.
type Orientation int

const (
	OrientationUndefined Orientation = iota
	OrientationPortrait
	OrientationLandscape
)

func (o Orientation) String() string {
	switch o {
	case OrientationPortrait:
		return "portrait"
	case OrientationLandscape:
		return "landscape"
	default:
		return "undefined"
	}
}

// SystemInformation accompanies every screen capture.
type SystemInformation struct {
	ScreenWidth  int64       `json:"screen_width"`
	ScreenHeight int64       `json:"screen_height"`
	Orientation  Orientation `json:"orientation"`
	Density      float64     `json:"density,omitempty"`
}

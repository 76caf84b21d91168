package boundary

// Swiss grid origins (Bern) of the LV95 and LV03 frames.
const (
	lv95East, lv95North = 2600000.0, 1200000.0
	lv03East, lv03North = 600000.0, 200000.0
)

// Frame identifies the planar reference frame of a coordinate.
type Frame int

const (
	WGS84 Frame = iota
	LV95
	LV03
)

func (f Frame) String() string {
	switch f {
	case LV95:
		return "LV95"
	case LV03:
		return "LV03"
	default:
		return "WGS84"
	}
}

// DetectFrame guesses the frame from the magnitude of a coordinate pair.
func DetectFrame(e, n float64) Frame {
	switch {
	case e > 2000000 && n > 1000000:
		return LV95
	case e > 100000 && n > 10000:
		return LV03
	default:
		return WGS84
	}
}

// ToWGS84 converts Swiss grid coordinates to longitude and latitude with
// the swisstopo approximation (about one metre of error). WGS84 input is
// returned unchanged.
func ToWGS84(e, n float64, f Frame) (lon, lat float64) {
	var y, x float64
	switch f {
	case LV95:
		y, x = (e-lv95East)/1e6, (n-lv95North)/1e6
	case LV03:
		y, x = (e-lv03East)/1e6, (n-lv03North)/1e6
	default:
		return e, n
	}
	lambda := 2.6779094 + 4.728982*y + 0.791484*y*x + 0.1306*y*x*x - 0.0436*y*y*y
	phi := 16.9023892 + 3.238272*x - 0.270978*y*y - 0.002528*x*x - 0.0447*y*y*x - 0.0140*x*x*x
	return lambda * 100 / 36, phi * 100 / 36
}

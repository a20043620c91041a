package imaging

import (
	"image"
	"math"
)

// Zone is a rectangle relative to the image bounds (0..1).
type Zone struct {
	Name           string
	X0, Y0, X1, Y1 float64
}

// FaceZones assumes a roughly centred, front-facing portrait.
var FaceZones = []Zone{
	{Name: "forehead", X0: 0.28, Y0: 0.10, X1: 0.72, Y1: 0.28},
	{Name: "left_cheek", X0: 0.15, Y0: 0.45, X1: 0.38, Y1: 0.68},
	{Name: "right_cheek", X0: 0.62, Y0: 0.45, X1: 0.85, Y1: 0.68},
	{Name: "nose", X0: 0.42, Y0: 0.35, X1: 0.58, Y1: 0.62},
	{Name: "chin", X0: 0.36, Y0: 0.78, X1: 0.64, Y1: 0.94},
}

const (
	highlightLuma = 230.0
	darkLimit     = 60.0
	brightLimit   = 200.0
	maxSamples    = 256
)

const (
	ExposureOK         = "ok"
	ExposureTooDark    = "too_dark"
	ExposureTooBright  = "too_bright"
	UndertoneWarm      = "warm"
	UndertoneCool      = "cool"
	UndertoneNeutral   = "neutral"
	warmThreshold      = 25.0
	coolThreshold      = 12.0
	oilinessMultiplier = 500.0
)

type ZoneMetrics struct {
	Name           string  `json:"name"`
	Brightness     float64 `json:"brightness"`
	StdDev         float64 `json:"std_dev"`
	HighlightRatio float64 `json:"highlight_ratio"`
	Redness        float64 `json:"redness"`
	MeanR          float64 `json:"mean_r"`
	MeanG          float64 `json:"mean_g"`
	MeanB          float64 `json:"mean_b"`
	Samples        int     `json:"samples"`
}

type Report struct {
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	Zones         []ZoneMetrics `json:"zones"`
	Brightness    float64       `json:"brightness"`
	Uniformity    float64       `json:"uniformity"`
	TZoneOiliness float64       `json:"tzone_oiliness"`
	Redness       float64       `json:"redness"`
	Exposure      string        `json:"exposure"`
	Undertone     string        `json:"undertone"`
	WarmthIndex   float64       `json:"warmth_index"`
}

func (r Report) Zone(name string) (ZoneMetrics, bool) {
	for _, z := range r.Zones {
		if z.Name == name {
			return z, true
		}
	}
	return ZoneMetrics{}, false
}

// Analyze computes per-zone brightness statistics. Large images are sampled
// on a stride so the cost stays bounded regardless of resolution.
func Analyze(img image.Image) Report {
	b := img.Bounds()
	rep := Report{Width: b.Dx(), Height: b.Dy()}

	stride := 1
	if m := min(b.Dx(), b.Dy()); m > maxSamples {
		stride = m / maxSamples
	}

	for _, z := range FaceZones {
		rep.Zones = append(rep.Zones, measure(img, b, z, stride))
	}

	var means []float64
	var total, redness float64
	for _, z := range rep.Zones {
		means = append(means, z.Brightness)
		total += z.Brightness
		redness += z.Redness
	}
	n := float64(len(rep.Zones))
	rep.Brightness = round1(total / n)
	rep.Redness = round3(redness / n)
	rep.Uniformity = round1(clamp(100-stddev(means)*2, 0, 100))

	forehead, _ := rep.Zone("forehead")
	nose, _ := rep.Zone("nose")
	left, _ := rep.Zone("left_cheek")
	right, _ := rep.Zone("right_cheek")
	// oil is T-zone shine in excess of the cheek baseline
	tzone := (forehead.HighlightRatio + nose.HighlightRatio) / 2
	cheeks := (left.HighlightRatio + right.HighlightRatio) / 2
	rep.TZoneOiliness = round1(clamp((tzone-cheeks)*oilinessMultiplier, 0, 100))

	switch {
	case rep.Brightness < darkLimit:
		rep.Exposure = ExposureTooDark
	case rep.Brightness > brightLimit:
		rep.Exposure = ExposureTooBright
	default:
		rep.Exposure = ExposureOK
	}

	warmth := ((left.MeanR - left.MeanB) + (right.MeanR - right.MeanB)) / 2
	rep.WarmthIndex = round1(warmth)
	switch {
	case warmth > warmThreshold:
		rep.Undertone = UndertoneWarm
	case warmth < coolThreshold:
		rep.Undertone = UndertoneCool
	default:
		rep.Undertone = UndertoneNeutral
	}
	return rep
}

func measure(img image.Image, b image.Rectangle, z Zone, stride int) ZoneMetrics {
	x0 := b.Min.X + int(z.X0*float64(b.Dx()))
	x1 := b.Min.X + int(z.X1*float64(b.Dx()))
	y0 := b.Min.Y + int(z.Y0*float64(b.Dy()))
	y1 := b.Min.Y + int(z.Y1*float64(b.Dy()))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}

	var sum, sumSq, sr, sg, sb, red float64
	var highlights, count int
	for y := y0; y < y1 && y < b.Max.Y; y += stride {
		for x := x0; x < x1 && x < b.Max.X; x += stride {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r, g, bl := float64(r16>>8), float64(g16>>8), float64(b16>>8)
			l := luma(r, g, bl)
			sum += l
			sumSq += l * l
			sr += r
			sg += g
			sb += bl
			if gb := (g + bl) / 2; gb > 0 {
				red += r / gb
			} else if r > 0 {
				red += 2
			} else {
				red++
			}
			if l >= highlightLuma {
				highlights++
			}
			count++
		}
	}

	m := ZoneMetrics{Name: z.Name, Samples: count}
	if count == 0 {
		return m
	}
	n := float64(count)
	mean := sum / n
	m.Brightness = round1(mean)
	m.StdDev = round1(math.Sqrt(math.Max(0, sumSq/n-mean*mean)))
	m.HighlightRatio = round3(float64(highlights) / n)
	m.Redness = round3(red / n)
	m.MeanR = round1(sr / n)
	m.MeanG = round1(sg / n)
	m.MeanB = round1(sb / n)
	return m
}

// Rec. 601 luma
func luma(r, g, b float64) float64 { return 0.299*r + 0.587*g + 0.114*b }

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

package image

import "github.com/samber/lo"

type (
	Size    string
	Quality string
	Style   string
)

const (
	SizeSquare    Size = "1024x1024"
	SizePortrait  Size = "1024x1792"
	SizeLandscape Size = "1792x1024"

	QualityStandard Quality = "standard"
	QualityHD       Quality = "hd"

	StyleVivid   Style = "vivid"
	StyleNatural Style = "natural"

	DefaultSize    = SizeSquare
	DefaultQuality = QualityStandard
	DefaultStyle   = StyleVivid
)

var (
	Sizes     = []Size{SizeSquare, SizePortrait, SizeLandscape}
	Qualities = []Quality{QualityStandard, QualityHD}
	Styles    = []Style{StyleVivid, StyleNatural}
)

func (s Size) Valid() bool    { return lo.Contains(Sizes, s) }
func (q Quality) Valid() bool { return lo.Contains(Qualities, q) }
func (s Style) Valid() bool   { return lo.Contains(Styles, s) }

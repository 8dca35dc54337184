package game

import "image/color"

// GroundColor maps ground life to a shade of green.
func GroundColor(life float64) color.RGBA {
	return color.RGBA{G: channel(life), A: 255}
}

// AgentColor maps rabbit life to a shade of red. Life above 1 saturates.
func AgentColor(life float64) color.RGBA {
	return color.RGBA{R: channel(life), A: 255}
}

func channel(v float64) uint8 {
	v = max(0, min(v, 1))
	return uint8(255 * v)
}

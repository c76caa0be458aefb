package battery

// socCurve is a piecewise-linear SOC approximation for the 12V branch.
// Dashboard-grade: under load the voltage sags, so SOC fluctuates with it.
var socCurve = [][2]float64{
	{11.00, 0.00},
	{11.60, 0.10},
	{11.80, 0.20},
	{12.00, 0.40},
	{12.20, 0.70},
	{12.40, 0.90},
	{12.60, 1.00},
}

// SOC estimates state of charge (0..1) from battery voltage, clamped at the
// curve ends.
func SOC(voltage float64) float64 {
	first := socCurve[0]
	last := socCurve[len(socCurve)-1]
	if voltage <= first[0] {
		return first[1]
	}
	if voltage >= last[0] {
		return last[1]
	}
	for i := 0; i < len(socCurve)-1; i++ {
		x1, y1 := socCurve[i][0], socCurve[i][1]
		x2, y2 := socCurve[i+1][0], socCurve[i+1][1]
		if voltage >= x1 && voltage <= x2 {
			t := (voltage - x1) / (x2 - x1)
			return y1 + t*(y2-y1)
		}
	}
	return last[1]
}

// EstimateRange converts SOC into remaining kilometers for a given full-charge
// range.
func EstimateRange(soc, maxRangeKm float64) float64 {
	if soc < 0 {
		soc = 0
	}
	if soc > 1 {
		soc = 1
	}
	return soc * maxRangeKm
}

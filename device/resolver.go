package device

import "math"

// resolveSmartRemoter rewrites the raw button bitmask in a SmartRemoter
// event into the 1-based button sequence. A mask of 0 stays 0.
func resolveSmartRemoter(data, _ map[string]any) map[string]any {
	ev, ok := data["event"].(map[string]any)
	if !ok {
		return data
	}
	mask, ok := toFloat(ev["keyMask"])
	if !ok {
		return data
	}

	seq := 0
	if mask > 0 {
		seq = int(math.Log2(mask)) + 1
	}
	ev["keyMask"] = seq
	return data
}

// resolveWaterDepth converts the sensor's raw pressure reading into a
// depth using the range and density calibration from the device's
// external data. The result is rounded to two decimals.
func resolveWaterDepth(data, attrs map[string]any) map[string]any {
	if data == nil || attrs == nil {
		return data
	}
	depth, ok := toFloat(data["waterDepth"])
	if !ok {
		return data
	}
	rangeAttrs, ok := attrs["range"].(map[string]any)
	if !ok {
		return data
	}
	devRange, ok := toFloat(rangeAttrs["range"])
	if !ok {
		return data
	}
	density, ok := toFloat(rangeAttrs["density"])
	if !ok || density == 0 {
		return data
	}

	data["waterDepth"] = math.Round(devRange*(depth/1000)/density*100) / 100
	return data
}

func init() {
	mustRegisterResolver(TypeSmartRemoter, resolveSmartRemoter)
	mustRegisterResolver(TypeWaterDepthSensor, resolveWaterDepth)
}

func mustRegisterResolver(deviceType string, fn ResolverFunc) {
	if err := RegisterResolver(deviceType, fn); err != nil {
		panic(err)
	}
}

// toFloat widens the numeric types a decoded JSON payload can carry.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// toInt narrows the numeric types a decoded JSON payload can carry.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

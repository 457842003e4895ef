package device

import "time"

// Device types reported by Home.getDeviceList.
const (
	TypeDoorSensor           = "DoorSensor"
	TypeTHSensor             = "THSensor"
	TypeMotionSensor         = "MotionSensor"
	TypeMultiOutlet          = "MultiOutlet"
	TypeLeakSensor           = "LeakSensor"
	TypeVibrationSensor      = "VibrationSensor"
	TypeOutlet               = "Outlet"
	TypeSiren                = "Siren"
	TypeLock                 = "Lock"
	TypeLockV2               = "LockV2"
	TypeManipulator          = "Manipulator"
	TypeCOSmokeSensor        = "COSmokeSensor"
	TypeSwitch               = "Switch"
	TypeThermostat           = "Thermostat"
	TypeDimmer               = "Dimmer"
	TypeGarageDoor           = "GarageDoor"
	TypeSmartRemoter         = "SmartRemoter"
	TypePowerFailureAlarm    = "PowerFailureAlarm"
	TypeHub                  = "Hub"
	TypeSpeakerHub           = "SpeakerHub"
	TypeFinger               = "Finger"
	TypeSoilTHSensor         = "SoilTHSensor"
	TypeSmokeAlarm           = "SmokeAlarm"
	TypeSprinkler            = "Sprinkler"
	TypeSprinklerV2          = "SprinklerV2"
	TypeWaterDepthSensor     = "WaterDepthSensor"
	TypeWaterMeterController = "WaterMeterController"
	TypeWaterMeterMulti      = "WaterMeterMultiController"
)

// NetClass is the radio class a device speaks.
type NetClass string

const (
	// NetClassA devices run on battery and sleep between reports.
	NetClassA NetClass = "A"

	// NetClassC devices are mains powered and stay online.
	NetClassC NetClass = "C"

	// NetClassD devices use the long-range radio.
	NetClassD NetClass = "D"

	// NetClassHub covers hubs themselves.
	NetClassHub NetClass = "Hub"

	// NetClassUnknown is returned for types the catalog does not know.
	NetClassUnknown NetClass = ""
)

// Keepalive windows per network class. A device is considered offline
// when it has not reported within its window.
const (
	classADKeepalive = 4*time.Hour + 10*time.Minute
	classCKeepalive  = 4 * time.Minute
	hubKeepalive     = 2 * time.Minute
)

// batteryTypes report as Class A unless the hardware model moved them
// to the long-range radio.
var batteryTypes = map[string]bool{
	TypeLeakSensor:        true,
	TypeDoorSensor:        true,
	TypeTHSensor:          true,
	TypeMotionSensor:      true,
	TypeCOSmokeSensor:     true,
	TypePowerFailureAlarm: true,
	TypeSoilTHSensor:      true,
	TypeVibrationSensor:   true,
	TypeSmartRemoter:      true,
	TypeWaterDepthSensor:  true,
	TypeSmokeAlarm:        true,
}

// batteryClassDModels are battery sensor models built on the long-range
// radio.
var batteryClassDModels = map[string]bool{
	"YS7A02": true,
	"YS8006": true,
}

// poweredTypes report as Class C unless the hardware model moved them
// to the long-range radio.
var poweredTypes = map[string]bool{
	TypeManipulator: true,
	TypeOutlet:      true,
	TypeMultiOutlet: true,
	TypeThermostat:  true,
	TypeSiren:       true,
	TypeSwitch:      true,
	TypeGarageDoor:  true,
	TypeDimmer:      true,
	TypeSprinkler:   true,
}

// poweredClassDModels are powered device models built on the long-range
// radio.
var poweredClassDModels = map[string]bool{
	"YS4909": true,
	"YS5001": true,
	"YS5002": true,
	"YS5003": true,
	"YS5012": true,
	"YS5709": true,
	"YS7104": true,
	"YS7105": true,
	"YS7107": true,
}

// longRangeTypes report as Class D unless the hardware model is the
// Class A variant.
var longRangeTypes = map[string]bool{
	TypeFinger:               true,
	TypeLock:                 true,
	TypeLockV2:               true,
	TypeWaterMeterController: true,
	TypeWaterMeterMulti:      true,
	TypeSprinklerV2:          true,
}

// longRangeClassAModels are Class A variants of otherwise Class D
// types.
var longRangeClassAModels = map[string]bool{
	"YS5007": true,
}

// tokenRequiredTypes must carry the device-scoped token on every
// operation; the gateway rejects bare calls to them.
var tokenRequiredTypes = map[string]bool{
	TypeLock:       true,
	TypeLockV2:     true,
	TypeFinger:     true,
	TypeGarageDoor: true,
}

// externalDataTypes carry calibration attributes (extData) that state
// resolution needs.
var externalDataTypes = map[string]bool{
	TypeWaterDepthSensor: true,
}

// NetTypeOf returns the network class for a device type and hardware
// model, or NetClassUnknown for types outside the catalog.
func NetTypeOf(deviceType, modelName string) NetClass {
	switch {
	case batteryTypes[deviceType]:
		if batteryClassDModels[modelName] {
			return NetClassD
		}
		return NetClassA
	case poweredTypes[deviceType]:
		if poweredClassDModels[modelName] {
			return NetClassD
		}
		return NetClassC
	case longRangeTypes[deviceType]:
		if longRangeClassAModels[modelName] {
			return NetClassA
		}
		return NetClassD
	case deviceType == TypeHub || deviceType == TypeSpeakerHub:
		return NetClassHub
	default:
		return NetClassUnknown
	}
}

// KeepaliveTime returns how long a device of the given type and model
// may stay silent before it should be treated as offline. It returns 0
// for unknown types.
func KeepaliveTime(deviceType, modelName string) time.Duration {
	switch NetTypeOf(deviceType, modelName) {
	case NetClassA, NetClassD:
		return classADKeepalive
	case NetClassC:
		return classCKeepalive
	case NetClassHub:
		return hubKeepalive
	default:
		return 0
	}
}

// RequiresDeviceToken reports whether operations on the type must carry
// the device-scoped token.
func RequiresDeviceToken(deviceType string) bool {
	return tokenRequiredTypes[deviceType]
}

// HasExternalData reports whether the type carries calibration
// attributes that should be fetched via getExternalData during
// enumeration.
func HasExternalData(deviceType string) bool {
	return externalDataTypes[deviceType]
}

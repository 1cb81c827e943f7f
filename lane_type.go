package xodr2net

import "strings"

// VehiclePermissions is a bitmask of vehicle classes allowed on a lane
type VehiclePermissions uint32

const (
	PERMISSION_PASSENGER = VehiclePermissions(1 << iota)
	PERMISSION_TRUCK
	PERMISSION_BUS
	PERMISSION_TAXI
	PERMISSION_BICYCLE
	PERMISSION_PEDESTRIAN
	PERMISSION_TRAM
	PERMISSION_EMERGENCY
	PERMISSION_AUTHORITY
)

const (
	PERMISSIONS_NONE       = VehiclePermissions(0)
	permissionsVehicular   = PERMISSION_PASSENGER | PERMISSION_TRUCK | PERMISSION_BUS | PERMISSION_TAXI | PERMISSION_EMERGENCY | PERMISSION_AUTHORITY
	permissionsRestricted  = PERMISSION_EMERGENCY | PERMISSION_AUTHORITY
	permissionsNonMotor    = PERMISSION_PEDESTRIAN | PERMISSION_BICYCLE
	defaultLaneSpeed       = 13.89 // m/s
	defaultLaneWidth       = 3.2   // meters
	defaultPedestrianSpeed = 1.39
	defaultBicycleSpeed    = 5.56
)

// String returns pipe-joined list of granted vehicle classes
func (p VehiclePermissions) String() string {
	names := []string{}
	classes := []struct {
		mask VehiclePermissions
		name string
	}{
		{PERMISSION_PASSENGER, "passenger"},
		{PERMISSION_TRUCK, "truck"},
		{PERMISSION_BUS, "bus"},
		{PERMISSION_TAXI, "taxi"},
		{PERMISSION_BICYCLE, "bicycle"},
		{PERMISSION_PEDESTRIAN, "pedestrian"},
		{PERMISSION_TRAM, "tram"},
		{PERMISSION_EMERGENCY, "emergency"},
		{PERMISSION_AUTHORITY, "authority"},
	}
	for _, class := range classes {
		if p&class.mask != 0 {
			names = append(names, class.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// laneTypeAttributes is the policy record for one lane type tag
type laneTypeAttributes struct {
	speed       float64
	width       float64
	permissions VehiclePermissions
	discard     bool
}

// laneTypesInfo maps the lane type tags of the exchange format onto default
// attributes of the output graph. Types marked with discard do not make it into
// the graph unless the import-all-lane-types flag is set
var laneTypesInfo = map[string]laneTypeAttributes{
	"driving":        {speed: defaultLaneSpeed, width: defaultLaneWidth, permissions: permissionsVehicular},
	"mwyEntry":       {speed: defaultLaneSpeed, width: defaultLaneWidth, permissions: permissionsVehicular},
	"mwyExit":        {speed: defaultLaneSpeed, width: defaultLaneWidth, permissions: permissionsVehicular},
	"entry":          {speed: defaultLaneSpeed, width: defaultLaneWidth, permissions: permissionsVehicular},
	"exit":           {speed: defaultLaneSpeed, width: defaultLaneWidth, permissions: permissionsVehicular},
	"onRamp":         {speed: defaultLaneSpeed, width: defaultLaneWidth, permissions: permissionsVehicular},
	"offRamp":        {speed: defaultLaneSpeed, width: defaultLaneWidth, permissions: permissionsVehicular},
	"connectingRamp": {speed: defaultLaneSpeed, width: defaultLaneWidth, permissions: permissionsVehicular},
	"special1":       {speed: defaultLaneSpeed, width: defaultLaneWidth, permissions: permissionsVehicular},
	"stop":           {speed: defaultLaneSpeed, width: defaultLaneWidth, permissions: permissionsRestricted},
	"parking":        {speed: 2.78, width: defaultLaneWidth, permissions: PERMISSION_PASSENGER | PERMISSION_TAXI},
	"biking":         {speed: defaultBicycleSpeed, width: 1.0, permissions: PERMISSION_BICYCLE},
	"sidewalk":       {speed: defaultPedestrianSpeed, width: 2.0, permissions: PERMISSION_PEDESTRIAN},
	"tram":           {speed: defaultLaneSpeed, width: defaultLaneWidth, permissions: PERMISSION_TRAM},
	"shoulder":       {speed: defaultLaneSpeed, width: defaultLaneWidth, permissions: PERMISSIONS_NONE, discard: true},
	"border":         {speed: 0, width: 0, permissions: PERMISSIONS_NONE, discard: true},
	"curb":           {speed: 0, width: 0, permissions: PERMISSIONS_NONE, discard: true},
	"median":         {speed: 0, width: 0, permissions: PERMISSIONS_NONE, discard: true},
	"restricted":     {speed: 0, width: 0, permissions: PERMISSIONS_NONE, discard: true},
	"none":           {speed: 0, width: 0, permissions: PERMISSIONS_NONE, discard: true},
}

// laneTypePolicy answers which lane types are represented in the output graph
// and which default attributes they carry
type laneTypePolicy struct {
	importAll bool
}

func (policy laneTypePolicy) knows(laneType string) bool {
	_, ok := laneTypesInfo[laneType]
	return ok
}

func (policy laneTypePolicy) discarded(laneType string) bool {
	info, ok := laneTypesInfo[laneType]
	if !ok {
		return true
	}
	return info.discard
}

// includes reports whether lanes of the given type get an output index
func (policy laneTypePolicy) includes(laneType string) bool {
	if policy.importAll {
		return true
	}
	return policy.knows(laneType) && !policy.discarded(laneType)
}

func (policy laneTypePolicy) speed(laneType string) float64 {
	if info, ok := laneTypesInfo[laneType]; ok && info.speed > 0 {
		return info.speed
	}
	return defaultLaneSpeed
}

func (policy laneTypePolicy) width(laneType string) float64 {
	if info, ok := laneTypesInfo[laneType]; ok && info.width > 0 {
		return info.width
	}
	return defaultLaneWidth
}

func (policy laneTypePolicy) permissions(laneType string) VehiclePermissions {
	if info, ok := laneTypesInfo[laneType]; ok {
		return info.permissions
	}
	if policy.importAll {
		return permissionsVehicular
	}
	return PERMISSIONS_NONE
}

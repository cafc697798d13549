package models

// ShipmentStatus is the current state of a shipment in its lifecycle.
type ShipmentStatus string

const (
	StatusBooked              ShipmentStatus = "BOOKED"
	StatusCollected           ShipmentStatus = "COLLECTED"
	StatusWarehouseProcessing ShipmentStatus = "WAREHOUSE_PROCESSING"
	StatusTerminalArrival     ShipmentStatus = "TERMINAL_ARRIVAL"
	StatusEnRoute             ShipmentStatus = "EN_ROUTE"
	StatusCustomsBond         ShipmentStatus = "CUSTOMS_BOND"
	StatusCustomsCleared      ShipmentStatus = "CUSTOMS_CLEARED"
	StatusSecurityHold        ShipmentStatus = "SECURITY_HOLD"
	StatusSecurityCleared     ShipmentStatus = "SECURITY_CLEARED"
	StatusDamageReported      ShipmentStatus = "DAMAGE_REPORTED"
	StatusDamageResolved      ShipmentStatus = "DAMAGE_RESOLVED"
	StatusReturnToSender      ShipmentStatus = "RETURN_TO_SENDER"
	StatusTransitException    ShipmentStatus = "TRANSIT_EXCEPTION"
	StatusDestinationHub      ShipmentStatus = "DESTINATION_HUB"
	StatusWithCourier         ShipmentStatus = "WITH_COURIER"
	StatusDelivered           ShipmentStatus = "DELIVERED"
)

// Status colors used by the admin UI badges
const (
	ColorBlue   = "blue"
	ColorGreen  = "green"
	ColorRed    = "red"
	ColorOrange = "orange"
	ColorGray   = "gray"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []ShipmentStatus{
	StatusBooked,
	StatusCollected,
	StatusWarehouseProcessing,
	StatusTerminalArrival,
	StatusEnRoute,
	StatusCustomsBond,
	StatusCustomsCleared,
	StatusSecurityHold,
	StatusSecurityCleared,
	StatusDamageReported,
	StatusDamageResolved,
	StatusReturnToSender,
	StatusTransitException,
	StatusDestinationHub,
	StatusWithCourier,
	StatusDelivered,
}

var statusLabels = map[ShipmentStatus]string{
	StatusBooked:              "Booked",
	StatusCollected:           "Collected",
	StatusWarehouseProcessing: "Warehouse Processing",
	StatusTerminalArrival:     "Terminal Arrival",
	StatusEnRoute:             "En Route",
	StatusCustomsBond:         "Customs Bond",
	StatusCustomsCleared:      "Customs Cleared",
	StatusSecurityHold:        "Security Hold",
	StatusSecurityCleared:     "Security Cleared",
	StatusDamageReported:      "Damage Reported",
	StatusDamageResolved:      "Damage Resolved",
	StatusReturnToSender:      "Return to Sender",
	StatusTransitException:    "Transit Exception",
	StatusDestinationHub:      "Destination Hub",
	StatusWithCourier:         "With Courier",
	StatusDelivered:           "Delivered",
}

var statusColors = map[ShipmentStatus]string{
	StatusBooked:              ColorBlue,
	StatusCollected:           ColorBlue,
	StatusWarehouseProcessing: ColorBlue,
	StatusTerminalArrival:     ColorBlue,
	StatusDestinationHub:      ColorBlue,
	StatusWithCourier:         ColorBlue,
	StatusEnRoute:             ColorGreen,
	StatusCustomsCleared:      ColorGreen,
	StatusSecurityCleared:     ColorGreen,
	StatusDamageResolved:      ColorGreen,
	StatusDelivered:           ColorGreen,
	StatusCustomsBond:         ColorRed,
	StatusDamageReported:      ColorRed,
	StatusSecurityHold:        ColorOrange,
	StatusReturnToSender:      ColorOrange,
	StatusTransitException:    ColorOrange,
}

// Valid reports whether s is one of the known statuses.
func (s ShipmentStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human readable name. Unknown values are returned as-is.
func (s ShipmentStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Color returns the badge color, gray for unknown values.
func (s ShipmentStatus) Color() string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return ColorGray
}

// IsTerminal is true once the shipment has left the active lifecycle.
func (s ShipmentStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusReturnToSender
}

// TerminalStatuses is used by repository filters for "active" shipments.
var TerminalStatuses = []ShipmentStatus{StatusDelivered, StatusReturnToSender}

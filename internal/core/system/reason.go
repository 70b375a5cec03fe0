package system

// ReasonCode documents why the system was paused. Codes are informational
// and every value is accepted.
type ReasonCode uint8

const (
	ReasonNone                 ReasonCode = 0
	ReasonConsolidation        ReasonCode = 1
	ReasonUpgrade              ReasonCode = 2
	ReasonSecurity             ReasonCode = 3
	ReasonMaintenance          ReasonCode = 4
	ReasonEmergency            ReasonCode = 5
	ReasonGovernance           ReasonCode = 6
	ReasonExternalDependency   ReasonCode = 7
	ReasonCompliance           ReasonCode = 8
	ReasonTesting              ReasonCode = 9
	ReasonOracle               ReasonCode = 10
	ReasonLiquidityManagement  ReasonCode = 11
	ReasonNetworkCongestion    ReasonCode = 12
	ReasonRebalancing          ReasonCode = 13
	ReasonAudit                ReasonCode = 14
	ReasonScheduledMaintenance ReasonCode = 15
	ReasonCustom               ReasonCode = 255
)

var reasonNames = map[ReasonCode]string{
	ReasonNone:                 "none",
	ReasonConsolidation:        "consolidation",
	ReasonUpgrade:              "upgrade",
	ReasonSecurity:             "security",
	ReasonMaintenance:          "maintenance",
	ReasonEmergency:            "emergency",
	ReasonGovernance:           "governance",
	ReasonExternalDependency:   "external_dependency",
	ReasonCompliance:           "compliance",
	ReasonTesting:              "testing",
	ReasonOracle:               "oracle",
	ReasonLiquidityManagement:  "liquidity_management",
	ReasonNetworkCongestion:    "network_congestion",
	ReasonRebalancing:          "rebalancing",
	ReasonAudit:                "audit",
	ReasonScheduledMaintenance: "scheduled_maintenance",
	ReasonCustom:               "custom",
}

func (r ReasonCode) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unassigned"
}

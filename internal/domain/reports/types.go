package reports

import "time"

// Summary holds the headline counters for the reports page, restricted to
// the caller's scope.
type Summary struct {
	// Locations
	ActiveLocations   int64 `json:"active_locations"`
	InactiveLocations int64 `json:"inactive_locations"`

	// Staff
	StaffCount      int64 `json:"staff_count"`
	PendingAccounts int64 `json:"pending_accounts"`

	// Inventory
	InventoryItems int64 `json:"inventory_items"`
	LowStockItems  int64 `json:"low_stock_items"`
	OutOfStock     int64 `json:"out_of_stock"`

	// Schedule
	UpcomingShifts int64   `json:"upcoming_shifts"`
	ScheduledHours float64 `json:"scheduled_hours"`

	GeneratedAt time.Time `json:"generated_at"`
}

// LocationRow is one line of the per-location breakdown.
type LocationRow struct {
	Location       string `json:"location"`
	Staff          int64  `json:"staff"`
	LowStockItems  int64  `json:"low_stock_items"`
	UpcomingShifts int64  `json:"upcoming_shifts"`
}

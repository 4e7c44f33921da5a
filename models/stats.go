package models

// FleetStats summarizes the fleet for the dashboard header.
type FleetStats struct {
	TotalCars       int `json:"totalCars"`
	ActiveCars      int `json:"activeCars"`
	MaintenanceCars int `json:"maintenanceCars"`
	LowBatteryCars  int `json:"lowBatteryCars"`
	LowFuelCars     int `json:"lowFuelCars"`
	Utilization     int `json:"utilization"`
}

// DriverStats summarizes the driver pool.
type DriverStats struct {
	TotalDrivers  int     `json:"totalDrivers"`
	ActiveDrivers int     `json:"activeDrivers"`
	TotalHours    int     `json:"totalHours"`
	AverageRating float64 `json:"averageRating"`
}

// PhotoStats summarizes trip photo volume.
type PhotoStats struct {
	TotalPhotos  int `json:"totalPhotos"`
	PickupPhotos int `json:"pickupPhotos"`
	ReturnPhotos int `json:"returnPhotos"`
	RecentPhotos int `json:"recentPhotos"`
}

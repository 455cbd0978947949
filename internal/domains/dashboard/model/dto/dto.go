package dto

import (
	bookingDto "cleanbook/internal/domains/booking/model/dto"

	"github.com/shopspring/decimal"
)

const UpcomingLimit = 5

type CustomerDashboard struct {
	Upcoming      []bookingDto.BookingResponse `json:"upcoming"`
	TotalBookings int                          `json:"total_bookings"`
	TotalSpent    decimal.Decimal              `json:"total_spent"`
}

type CleanerDashboard struct {
	UpcomingJobs  []bookingDto.BookingResponse `json:"upcoming_jobs"`
	CompletedJobs int                          `json:"completed_jobs"`
	Earnings      decimal.Decimal              `json:"earnings"`
}

type AdminDashboard struct {
	BookingsByStatus map[string]int  `json:"bookings_by_status"`
	Revenue          decimal.Decimal `json:"revenue"`
	UsersByRole      map[string]int  `json:"users_by_role"`
}

// DashboardResponse carries exactly one dashboard, chosen by Role.
type DashboardResponse struct {
	Role     string             `json:"role"`
	Customer *CustomerDashboard `json:"customer,omitempty"`
	Cleaner  *CleanerDashboard  `json:"cleaner,omitempty"`
	Admin    *AdminDashboard    `json:"admin,omitempty"`
}

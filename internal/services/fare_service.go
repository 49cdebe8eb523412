package services

import (
	"math"

	"github.com/ridelink/booking-backend/internal/models"
)

// round2 rounds to two decimal places, half away from zero
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeFare calculates the total fare for a seat count over the given
// segments: sum of segment distances, times the per-km rate, times seats,
// rounded to cents. Segments without a surveyed distance contribute zero.
//
// A segment list whose distances sum to zero cannot be priced, so it is
// rejected rather than silently producing a free booking.
func ComputeFare(segments []models.RouteSegment, ratePerKm float64, seats int) (float64, error) {
	if seats <= 0 {
		return 0, models.NewValidationError("seats must be at least 1")
	}
	if ratePerKm <= 0 {
		return 0, models.NewValidationError("fare rate must be positive")
	}

	totalKm := 0.0
	for _, segment := range segments {
		if segment.DistanceKm != nil {
			totalKm += *segment.DistanceKm
		}
	}

	if totalKm <= 0 {
		return 0, models.NewValidationError("cannot price booking: segment distances sum to zero")
	}

	return round2(totalKm * ratePerKm * float64(seats)), nil
}

// ComputePlatformFee calculates the platform's cut of a booking total. The
// fee is what actually gets charged through the payment processor; the rest
// of the fare settles directly with the operator.
func ComputePlatformFee(totalAmount float64, feePercent float64) (float64, error) {
	if feePercent <= 0 || feePercent >= 1 {
		return 0, models.NewValidationError("fee percent must be between 0 and 1")
	}

	fee := round2(totalAmount * feePercent)
	if fee <= 0 {
		return 0, models.NewValidationError("platform fee must be positive, got booking total %.2f", totalAmount)
	}

	return fee, nil
}

// ToMinorUnits converts a currency amount to the integer minor units the
// payment processor expects (cents for usd)
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

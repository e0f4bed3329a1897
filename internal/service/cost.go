package service

import "math"

// lessonCost derives the payable cost from a lesson price and the assigned
// teacher's commission percentage, rounded to the nearest whole amount.
func lessonCost(price int, commissionRate float64) int {
	if price <= 0 || commissionRate <= 0 {
		return 0
	}
	return int(math.Round(float64(price) * commissionRate / 100))
}

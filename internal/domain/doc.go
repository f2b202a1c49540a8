// Package domain defines the healthsync data model: plan items, the four
// activity log kinds, and the derived daily and weekly views.
//
// Calendar dates are civil.Date values compared field by field. No time
// zone inference happens anywhere below the Clock; a log dated 2024-01-02
// never touches a plan item dated 2024-01-01.
//
// Quantities (servings, durations) are apd decimals so that sums and
// averages are exact until the final rounding step.
package domain

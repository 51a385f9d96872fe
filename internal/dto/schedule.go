package dto

import "github.com/noah-isme/doctor-booking-api/internal/models"

// WorkingRuleInput is one recurring weekly window. Times accept HH:MM or HH:MM:SS.
type WorkingRuleInput struct {
	Weekday   int    `json:"weekday" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// UpsertWorkingRulesRequest replaces all rules of every weekday present in Rules.
type UpsertWorkingRulesRequest struct {
	Rules []WorkingRuleInput `json:"rules" validate:"required,min=1,max=50,dive"`
}

// UpsertWorkingRulesResult reports the stored rules and the weekdays that were replaced.
type UpsertWorkingRulesResult struct {
	Weekdays []int                `json:"weekdays"`
	Rules    []models.WorkingRule `json:"rules"`
}

// CreateUnavailabilityRequest blocks [StartAt, EndAt) on the caller's calendar.
type CreateUnavailabilityRequest struct {
	StartAt string  `json:"start_at" validate:"required"`
	EndAt   string  `json:"end_at" validate:"required"`
	Reason  *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// RangeQuery is a [from, to) window. Values accept dates or RFC3339 instants.
type RangeQuery struct {
	From string `form:"from" validate:"required"`
	To   string `form:"to" validate:"required"`
}

// ExportQuery selects an appointment range and an encoding.
type ExportQuery struct {
	From   string `form:"from" validate:"required"`
	To     string `form:"to" validate:"required"`
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

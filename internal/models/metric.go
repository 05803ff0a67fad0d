// ABOUTME: Metric model for named body and performance measurements.
// ABOUTME: Metric names are free text, e.g. "weight" or "resting_hr".
package models

import "time"

// Metric is a single named measurement.
type Metric struct {
	ID         string  `json:"_id"`
	MetricName string  `json:"metricName"`
	Value      float64 `json:"value"`
	Date       Date    `json:"date"`
	UserID     string  `json:"userId"`
}

// RecordID implements Record.
func (m Metric) RecordID() string { return m.ID }

// MetricInput is the body of a log-metric request.
type MetricInput struct {
	MetricName *string  `json:"metricName"`
	Value      *float64 `json:"value"`
	Date       *Date    `json:"date"`
	UserID     *string  `json:"userId"`
}

// Validate implements Input.
func (in MetricInput) Validate() error {
	var c checker
	c.requireString("metricName", in.MetricName)
	c.requireNumber("value", in.Value)
	c.requireString("userId", in.UserID)
	return c.err()
}

// Build implements Input.
func (in MetricInput) Build(id string, now time.Time) Metric {
	return Metric{
		ID:         id,
		MetricName: deref(in.MetricName),
		Value:      deref(in.Value),
		Date:       dateOr(in.Date, now),
		UserID:     deref(in.UserID),
	}
}

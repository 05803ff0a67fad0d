// ABOUTME: Nutrition model with a nested list of consumed foods.
// ABOUTME: Food entries are normalized to name, quantity, and calories.
package models

import (
	"fmt"
	"time"
)

// Food is one item eaten as part of a nutrition entry.
type Food struct {
	FoodName string  `json:"foodName"`
	Quantity float64 `json:"quantity"`
	Calories float64 `json:"calories"`
}

// Nutrition records the foods consumed on a date.
type Nutrition struct {
	ID            string `json:"_id"`
	FoodsConsumed []Food `json:"foodsConsumed"`
	Date          Date   `json:"date"`
	UserID        string `json:"userId"`
}

// RecordID implements Record.
func (n Nutrition) RecordID() string { return n.ID }

// TotalCalories sums calories across all foods.
func (n Nutrition) TotalCalories() float64 {
	var total float64
	for _, f := range n.FoodsConsumed {
		total += f.Calories
	}
	return total
}

// FoodInput is one food in a log-nutrition request. Unknown fields are dropped.
type FoodInput struct {
	FoodName *string  `json:"foodName"`
	Quantity *float64 `json:"quantity"`
	Calories *float64 `json:"calories"`
}

// NutritionInput is the body of a log-nutrition request.
type NutritionInput struct {
	FoodsConsumed []FoodInput `json:"foodsConsumed"`
	Date          *Date       `json:"date"`
	UserID        *string     `json:"userId"`
}

// Validate implements Input.
func (in NutritionInput) Validate() error {
	var c checker
	if in.FoodsConsumed == nil {
		c.fail("foodsConsumed", "is required")
	}
	for i, f := range in.FoodsConsumed {
		c.requireString(fmt.Sprintf("foodsConsumed[%d].foodName", i), f.FoodName)
		c.requireNumber(fmt.Sprintf("foodsConsumed[%d].quantity", i), f.Quantity)
		c.requireNumber(fmt.Sprintf("foodsConsumed[%d].calories", i), f.Calories)
	}
	c.requireDate("date", in.Date)
	c.requireString("userId", in.UserID)
	return c.err()
}

// Build implements Input.
func (in NutritionInput) Build(id string, now time.Time) Nutrition {
	foods := make([]Food, 0, len(in.FoodsConsumed))
	for _, f := range in.FoodsConsumed {
		foods = append(foods, Food{
			FoodName: deref(f.FoodName),
			Quantity: deref(f.Quantity),
			Calories: deref(f.Calories),
		})
	}
	return Nutrition{
		ID:            id,
		FoodsConsumed: foods,
		Date:          dateOr(in.Date, now),
		UserID:        deref(in.UserID),
	}
}

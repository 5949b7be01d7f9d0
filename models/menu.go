package models

type MenuItem struct {
	ID           int64
	RestaurantID int64
	Category     string // "food", "drink", "dessert"
	Name         string
	Price        int64
	Available    bool
}

const (
	CategoryFood    = "food"
	CategoryDrink   = "drink"
	CategoryDessert = "dessert"
)

package core

// Category is a presentation-level grouping of expense subcategories.
// The taxonomy feeds client pickers and charts; the store does not
// enforce it, records keep whatever strings they were created with.
type Category struct {
	Name          string   `json:"name"`
	Color         string   `json:"color"`
	Subcategories []string `json:"subcategories"`
}

// Categories lists the known expense categories in display order.
var Categories = []Category{
	{Name: "Food", Color: "#22c55e", Subcategories: []string{"Groceries", "Restaurants", "Fast Food"}},
	{Name: "Transport", Color: "#3b82f6", Subcategories: []string{"Fuel", "Public Transport", "Taxi"}},
	{Name: "Utilities", Color: "#f59e0b", Subcategories: []string{"Electricity", "Water", "Internet"}},
}

// IncomeSources lists the known income source labels.
var IncomeSources = []string{"Job", "Side Hustle", "Freelance", "Investment", "Other"}

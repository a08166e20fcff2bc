package catalog

// DefaultProducts is the storefront's launch assortment.
func DefaultProducts() []Product {
	return []Product{
		{ID: "mango", Name: "Mango Pickle", Price: 200, Stock: 10, Category: CategoryVegPickles, Image: "mango pickle.webp"},
		{ID: "tomato", Name: "Tomato Pickle", Price: 150, Stock: 7, Category: CategoryVegPickles, Image: "Tomato pickle.webp"},
		{ID: "lemon", Name: "Lemon Pickle", Price: 180, Stock: 8, Category: CategoryVegPickles, Image: "Lemon pickle.jpg"},
		{ID: "chicken", Name: "Chicken Pickle", Price: 250, Stock: 9, Category: CategoryNonVegPickles, Image: "chicken pickle.webp"},
		{ID: "fish", Name: "Fish Pickle", Price: 250, Stock: 6, Category: CategoryNonVegPickles, Image: "Fish pickle.webp"},
		{ID: "mutton", Name: "Mutton Pickle", Price: 300, Stock: 7, Category: CategoryNonVegPickles, Image: "Mutton pickle.webp"},
		{ID: "banana_chips", Name: "Banana Chips", Price: 100, Stock: 8, Category: CategorySnacks, Image: "Banana Chips.jpg"},
		{ID: "ama_papad", Name: "Ama Papad", Price: 80, Stock: 8, Category: CategorySnacks, Image: "Aam papad.jpg"},
		{ID: "chekka_pakodi", Name: "Chekka Pakodi", Price: 110, Stock: 5, Category: CategorySnacks, Image: "Chekka Pakodi.jpg"},
	}
}

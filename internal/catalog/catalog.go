// Package catalog holds the static product list shown on the shop page.
// There is deliberately no dynamic state here: the products are fixed at
// build time and served read-only.
package catalog

// Product is one item of the shop catalog.
type Product struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Tagline     string `json:"tagline"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url"`
}

var products = []Product{
	{
		ID:          1,
		Name:        "Enchanted Rose 🌹",
		Tagline:     "An everlasting rose preserved in glass. Love that never wilts.",
		Description: "A natural rose preserved inside a crystal dome. The preservation process keeps its color and shape for years without water or special care.",
		Price:       "S/25.00",
		ImageURL:    "https://rosatelpe.vtexassets.com/arquivos/ids/157717/rosa-encantada-en-caja-roja.jpg?v=638851601450800000",
	},
	{
		ID:          2,
		Name:        "Box of Sweetness 🍬",
		Tagline:     "A surprise box of artisanal candy with personalized notes.",
		Description: "A varied selection of artisanal sweets and chocolates in a decorative box. Perfect for birthdays, anniversaries, or just to sweeten the day.",
		Price:       "S/55.00",
		ImageURL:    "https://i.pinimg.com/736x/65/54/aa/6554aac0c2a4569a12cb864c082623b6.jpg",
	},
	{
		ID:          3,
		Name:        "Floral Perfume 🌸",
		Tagline:     "A fragrance inspired by spring petals. Fresh, sweet and elegant.",
		Description: "A soft fragrance with floral notes and touches of vanilla. Ideal for daily wear.",
		Price:       "S/35.00",
		ImageURL:    "https://i.pinimg.com/736x/c0/1f/e1/c01fe13d36047147e15b905b0b761fef.jpg",
	},
	{
		ID:          4,
		Name:        "Personalized Mug ☕",
		Tagline:     "A ceramic mug with a romantic design and your name engraved.",
		Description: "A sturdy ceramic mug with a personalized print. Microwave and dishwasher safe, perfect for coffee or tea with a unique touch.",
		Price:       "S/12.00",
		ImageURL:    "https://i.pinimg.com/736x/0f/47/4d/0f474d80056c104c0d9a96bf27c07094.jpg",
	},
}

// Products returns a copy of the catalog so callers cannot mutate it.
func Products() []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}

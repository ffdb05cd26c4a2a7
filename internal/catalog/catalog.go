// Package catalog holds the static product listing shown on the storefront.
package catalog

import (
	"slices"

	"github.com/Shashankesi/Threadly/internal/cart"
)

// DefaultSizes apply to any product that does not list its own.
var DefaultSizes = []string{"S", "M", "L", "XL"}

type Product struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand,omitempty"`
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Rating      float64  `json:"rating"`
	Delivery    string   `json:"delivery"`
	Sizes       []string `json:"availableSizes"`
	DefaultSize string   `json:"defaultSize,omitempty"`
}

// CartProduct is the subset the cart stores for a line.
func (p Product) CartProduct() cart.Product {
	return cart.Product{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image}
}

// ResolveSize picks the size a line is added with: the requested one when the
// product offers it, otherwise the product's default.
func (p Product) ResolveSize(requested string) (string, bool) {
	if requested == "" {
		if p.DefaultSize != "" {
			return p.DefaultSize, true
		}
		return cart.DefaultSize, true
	}
	return requested, slices.Contains(p.Sizes, requested)
}

type Catalog struct {
	products []Product
	byID     map[string]int
}

// New builds a catalog over products, filling in default sizes.
func New(products []Product) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(products))}
	for _, p := range products {
		if len(p.Sizes) == 0 {
			p.Sizes = slices.Clone(DefaultSizes)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

// Default is the storefront's featured products and men's collection.
func Default() *Catalog {
	return New(featured)
}

func (c *Catalog) All() []Product {
	out := make([]Product, len(c.products))
	for i, p := range c.products {
		p.Sizes = slices.Clone(p.Sizes)
		out[i] = p
	}
	return out
}

func (c *Catalog) Lookup(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	p := c.products[i]
	p.Sizes = slices.Clone(p.Sizes)
	return p, true
}

var featured = []Product{
	{
		ID: "101", Category: "featured", Name: "Casual Denim Jacket", Price: "₹4999", Image: "image/denim3.jpg",
		Description: "Stylish and versatile denim jacket.", Rating: 4.5, Delivery: "Free Delivery in 3-5 Days",
		Sizes: []string{"S", "M", "L", "XL"}, DefaultSize: "M",
	},
	{
		ID: "102", Category: "featured", Name: "Summer Linen Shirt", Price: "₹1299", Image: "image/p-t.jpg",
		Description: "Lightweight and breathable shirt.", Rating: 4.0, Delivery: "Standard Delivery in 5-7 Days",
		Sizes: []string{"S", "M", "L"}, DefaultSize: "L",
	},
	{
		ID: "103", Category: "featured", Name: "Classic White Sneakers", Price: "₹8999", Image: "image/p-s.jpg",
		Description: "Timeless design, comfortable for everyday.", Rating: 5.0, Delivery: "Express Delivery in 2-3 Days",
		Sizes: []string{"UK 6", "UK 7", "UK 8", "UK 9", "UK 10"}, DefaultSize: "UK 8",
	},
	{
		ID: "104", Category: "featured", Name: "Slim Fit Chinos", Price: "₹1199", Image: "image/p-chinos.jpg",
		Description: "Modern fit, great for semi-formal looks.", Rating: 3.5, Delivery: "Free Delivery in 3-5 Days",
		Sizes: []string{"28", "30", "32", "34", "36"}, DefaultSize: "32",
	},
	{
		ID: "201", Category: "men", Brand: "Levi's", Name: "Denim Trucker Jacket", Price: "₹3499",
		Image:       "https://images.unsplash.com/photo-1602810317163-6b7c7f5e1c26",
		Description: "Classic fit, rugged denim for everyday wear.", Rating: 4.5, Delivery: "Get it by Tue, 30 July",
	},
	{
		ID: "202", Category: "men", Brand: "Zara", Name: "White Cotton Shirt", Price: "₹1599",
		Image:       "https://images.unsplash.com/photo-1600180758890-5d9dcd2a0cf3",
		Description: "Slim fit shirt perfect for formal and casual outings.", Rating: 4.2, Delivery: "Delivery by Mon, 29 July",
	},
	{
		ID: "203", Category: "men", Brand: "H&M", Name: "Black Slim Fit Jeans", Price: "₹2299",
		Image:       "https://images.unsplash.com/photo-1618354691445-b7e2ff429d5c",
		Description: "Comfort stretch jeans with a perfect taper.", Rating: 4.7, Delivery: "Get it by Wed, 31 July",
	},
	{
		ID: "204", Category: "men", Brand: "Nike", Name: "Air Max Sneakers", Price: "₹7999",
		Image:       "https://images.unsplash.com/photo-1593032465171-f4e4ff88c35e",
		Description: "Breathable and cushioned sneakers for daily wear.", Rating: 4.9, Delivery: "Fast delivery by Sun, 28 July",
	},
}

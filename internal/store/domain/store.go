package domain

import "time"

type Domain struct {
	Host string `json:"host"`
	URL  string `json:"url"`
}

type Plan struct {
	DisplayName string `json:"displayName"`
}

type ShopInfo struct {
	Name            string `json:"name"`
	MyshopifyDomain string `json:"myshopifyDomain"`
	PrimaryDomain   Domain `json:"primaryDomain"`
	Plan            Plan   `json:"plan"`
}

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type LineItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
}

// Order is the flattened row shown in the orders table.
type Order struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	TotalPrice        string     `json:"totalPrice"`
	Currency          string     `json:"currency"`
	FinancialStatus   string     `json:"financialStatus"`
	FulfillmentStatus string     `json:"fulfillmentStatus"`
	Customer          *Customer  `json:"customer"`
	LineItems         []LineItem `json:"lineItems"`
}

type Image struct {
	Src string `json:"src"`
}

type Variant struct {
	ID    string `json:"id"`
	Price string `json:"price"`
	SKU   string `json:"sku"`
}

type Product struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Handle   string    `json:"handle"`
	BodyHTML string    `json:"body_html"`
	Image    *Image    `json:"image"`
	Variants []Variant `json:"variants,omitempty"`
}

// ProductUpdate carries the editable product fields. Empty fields are left
// untouched upstream.
type ProductUpdate struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	BodyHTML string `json:"body_html,omitempty"`
	Handle   string `json:"handle,omitempty"`
}

// Summary holds every dashboard count, computed fresh on each call.
type Summary struct {
	ProductsCount    int       `json:"productsCount"`
	CollectionsCount int       `json:"collectionsCount"`
	OrdersCount      int       `json:"ordersCount"`
	FulfilledOrders  int       `json:"fulfilledOrders"`
	RemainingOrders  int       `json:"remainingOrders"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

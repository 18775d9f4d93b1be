package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID       string `json:"_id" validate:"required"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email" validate:"required"`
	UserType string `json:"userType,omitempty"`
}

func (u User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin
}

type AuthSession struct {
	Token string `json:"token" validate:"required"`
	User  User   `json:"user"`
}

type Product struct {
	ID            string          `json:"_id" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Images        []string        `json:"images,omitempty"`
	Format        string          `json:"format,omitempty"`
	Category      string          `json:"category,omitempty"`
	Stock         int             `json:"stock"`
	Offer         *Offer          `json:"offer,omitempty"`
}

func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// CartLine builds the cart line a product contributes when added.
func (p Product) CartLine(quantity int) CartItem {
	original := p.OriginalPrice
	if original.IsZero() {
		original = p.Price
	}
	return CartItem{
		ID:            p.ID,
		Name:          p.Name,
		Image:         p.Image(),
		Price:         p.Price,
		OriginalPrice: original,
		Quantity:      quantity,
		Format:        p.Format,
	}
}

type Offer struct {
	Title           string          `json:"title"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	ValidUntil      *time.Time      `json:"validUntil,omitempty"`
}

type Address struct {
	ID                    string     `json:"_id,omitempty"`
	User                  string     `json:"user,omitempty"`
	FullName              string     `json:"fullName"`
	Email                 string     `json:"email"`
	PhoneNumber           string     `json:"phoneNumber"`
	Street                string     `json:"street"`
	Landmark              string     `json:"landmark,omitempty"`
	City                  string     `json:"city"`
	State                 string     `json:"state"`
	PinCode               string     `json:"pinCode"`
	Country               string     `json:"country"`
	Company               string     `json:"company,omitempty"`
	DeliveryInstructions  string     `json:"deliveryInstructions,omitempty"`
	BillingSameAsShipping bool       `json:"billingSameAsShipping"`
	BillingAddress        *Address   `json:"billingAddress,omitempty"`
	CreatedAt             *time.Time `json:"createdAt,omitempty"`
}

type OrderRequest struct {
	ShippingInfo  ShippingInfo       `json:"shippingInfo"`
	OrderItems    []OrderItemRequest `json:"orderItems"`
	PaymentInfo   PaymentInfo        `json:"paymentInfo"`
	TaxPrice      decimal.Decimal    `json:"taxPrice"`
	ShippingPrice decimal.Decimal    `json:"shippingPrice"`
}

type ShippingInfo struct {
	Address string `json:"address"`
}

type OrderItemRequest struct {
	Name     string          `json:"name"`
	Product  string          `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type PaymentInfo struct {
	Status string `json:"status"`
}

type Order struct {
	ID            string             `json:"_id" validate:"required"`
	User          string             `json:"user,omitempty"`
	ShippingInfo  ShippingInfo       `json:"shippingInfo"`
	OrderItems    []OrderItemRequest `json:"orderItems"`
	PaymentInfo   PaymentInfo        `json:"paymentInfo"`
	TaxPrice      decimal.Decimal    `json:"taxPrice"`
	ShippingPrice decimal.Decimal    `json:"shippingPrice"`
	TotalPrice    decimal.Decimal    `json:"totalPrice"`
	OrderStatus   string             `json:"orderStatus,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

const (
	UserTypeCustomer = "customer"
	UserTypeAdmin    = "admin"
)

package models

import "fmt"

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

func ParseProductStatus(status string) (ProductStatus, error) {
	switch status {
	case "active":
		return ProductStatusActive, nil
	case "inactive":
		return ProductStatusInactive, nil
	default:
		return "", fmt.Errorf("invalid product status: %s", status)
	}
}

type OrderStatus string

const (
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

func ParseOrderStatus(status string) (OrderStatus, error) {
	switch status {
	case "paid":
		return OrderStatusPaid, nil
	case "shipped":
		return OrderStatusShipped, nil
	case "cancelled":
		return OrderStatusCancelled, nil
	case "refunded":
		return OrderStatusRefunded, nil
	default:
		return "", fmt.Errorf("invalid order status: %s", status)
	}
}

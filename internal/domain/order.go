package domain

import "time"

type OrderStatus string

const (
	OrderStatusNotStarted       OrderStatus = "N"
	OrderStatusDeliveredPending OrderStatus = "D"
	OrderStatusLost             OrderStatus = "L"
)

// Bucket is the completion bucket an order status falls into.
type Bucket int

const (
	BucketUncompleted Bucket = iota
	BucketCompleted
	BucketExcluded
)

func (b Bucket) String() string {
	switch b {
	case BucketUncompleted:
		return "uncompleted"
	case BucketCompleted:
		return "completed"
	default:
		return "excluded"
	}
}

// Bucket partitions statuses: "N" is uncompleted, "D" and "L" are counted in
// neither bucket, every other status is completed.
func (s OrderStatus) Bucket() Bucket {
	switch s {
	case OrderStatusNotStarted:
		return BucketUncompleted
	case OrderStatusDeliveredPending, OrderStatusLost:
		return BucketExcluded
	default:
		return BucketCompleted
	}
}

// NotCompletedStatuses lists the statuses excluded from the completed count.
func NotCompletedStatuses() []string {
	return []string{
		string(OrderStatusNotStarted),
		string(OrderStatusDeliveredPending),
		string(OrderStatusLost),
	}
}

type Order struct {
	OrderTrackingID  int64       `json:"order_tracking_id"`
	ClientID         int64       `json:"client_id"`
	Status           OrderStatus `json:"status"`
	DeliveryTargetTo time.Time   `json:"delivery_target_to"`
}

// OrderDriver assigns an order to a driver.
type OrderDriver struct {
	OrderTrackingID int64 `json:"order_tracking_id"`
	DriverID        int64 `json:"driver_id"`
}

type Client struct {
	ClientID int64  `json:"client_id"`
	Name     string `json:"name"`
}

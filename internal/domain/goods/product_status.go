package goods

// ProductStatus tracks where a product lot is in its life
type ProductStatus string

const (
	ProductStatusNone          ProductStatus = "NONE"
	ProductStatusAvailable     ProductStatus = "AVAILABLE"
	ProductStatusOnShip        ProductStatus = "ON_SHIP"
	ProductStatusDelivered     ProductStatus = "DELIVERED"
	ProductStatusExpiredAtPort ProductStatus = "EXPIRED_AT_PORT"
	ProductStatusExpiredOnShip ProductStatus = "EXPIRED_ON_SHIP"
)

// IsExpired reports whether the status is one of the two terminal expiry states
func (s ProductStatus) IsExpired() bool {
	return s == ProductStatusExpiredAtPort || s == ProductStatusExpiredOnShip
}

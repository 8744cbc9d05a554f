package entity

// Symbols - the fixed alphabet of board marks, assigned in join order.
var Symbols = []string{"X", "O", "Δ", "□", "◇", "★", "♠", "♣", "♥", "♦"}

type Player struct {
	ConnectionID string `json:"connection_id"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
}

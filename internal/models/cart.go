package models

import "fmt"

// Taille d'un bouquet : multiplicateur fixe appliqué au prix de base.
type BouquetSize string

const (
	SizeClassic     BouquetSize = "classic"
	SizeGenerous    BouquetSize = "generous"
	SizeExceptional BouquetSize = "exceptional"
)

// Multiplicateurs exprimés en dixièmes pour rester en arithmétique entière :
// classic = x1.0, generous = x1.4, exceptional = x1.8.
var sizeMultiplierTenths = map[BouquetSize]int64{
	SizeClassic:     10,
	SizeGenerous:    14,
	SizeExceptional: 18,
}

// ValidSize indique si la taille demandée existe.
func ValidSize(s BouquetSize) bool {
	_, ok := sizeMultiplierTenths[s]
	return ok
}

// SizedPrice calcule le prix unitaire en centimes pour une taille donnée.
func SizedPrice(basePrice int64, size BouquetSize) (int64, error) {
	mult, ok := sizeMultiplierTenths[size]
	if !ok {
		return 0, fmt.Errorf("taille de bouquet inconnue: %q", size)
	}
	return basePrice * mult / 10, nil
}

// CartLine est une ligne de panier : une par couple (produit, taille).
type CartLine struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	Size      BouquetSize `json:"size"`
	Quantity  int         `json:"quantity"`
	UnitPrice int64       `json:"unit_price"` // centimes, figé à l'ajout
	ImageURL  string      `json:"image_url,omitempty"`
}

type Cart struct {
	UserID string     `json:"user_id"`
	Lines  []CartLine `json:"lines"`
}

// Total retourne le montant du panier en centimes.
func (c Cart) Total() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.UnitPrice * int64(l.Quantity)
	}
	return total
}

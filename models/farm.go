package models

import "time"

// Animal is a catalog entry for a farm animal
type Animal struct {
	Key    string `json:"key" yaml:"key"`
	Name   string `json:"name" yaml:"name"`
	Emoji  string `json:"emoji" yaml:"emoji"`
	Income int64  `json:"income" yaml:"income"`
	Price  int64  `json:"price" yaml:"price"`
}

// ProtectionItem is a catalog entry for a farm protection item
type ProtectionItem struct {
	Key   string  `json:"key" yaml:"key"`
	Name  string  `json:"name" yaml:"name"`
	Emoji string  `json:"emoji" yaml:"emoji"`
	Bonus float64 `json:"bonus" yaml:"bonus"`
	Price int64   `json:"price" yaml:"price"`
}

// AnimalCount is the number of animals of one kind a user owns
type AnimalCount struct {
	AnimalKey string `db:"animal_key"`
	Count     int64  `db:"count"`
}

// OwnedProtection is a protection item owned by a user
type OwnedProtection struct {
	ItemKey     string    `db:"item_key"`
	PurchasedAt time.Time `db:"purchased_at"`
}

// FarmAnimal is an owned animal group enriched with catalog data
type FarmAnimal struct {
	Animal
	Count int64 `json:"count"`
}

// Farm is the client view of a user's farm
type Farm struct {
	Animals    []FarmAnimal     `json:"animals"`
	Protection []ProtectionItem `json:"protection"`
}

package models

type Store struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email,omitempty"`
	Address       string  `json:"address"`
	OwnerID       int     `json:"owner_id"`
	OverallRating Average `json:"overall_rating"`
}

// UserStore is a store as seen by a rating user, carrying the viewer's own rating.
type UserStore struct {
	Store
	MyRating *int `json:"my_rating"`
}

// OwnedStore is the per-store summary attached to a store owner's details.
type OwnedStore struct {
	Name   string  `json:"name"`
	Rating Average `json:"rating"`
}

type AddStoreRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,max=255,email"`
	Address string `json:"address" validate:"required,max=400"`
	OwnerID int    `json:"owner_id" validate:"required,gt=0"`
}

// StoreFilter narrows store listings. Name, Email and Address are the admin
// filters; Search matches name or address and backs the user listing.
type StoreFilter struct {
	Name    string
	Email   string
	Address string
	Search  string
}

type DashboardStats struct {
	UsersCount   int `json:"usersCount"`
	StoresCount  int `json:"storesCount"`
	RatingsCount int `json:"ratingsCount"`
}

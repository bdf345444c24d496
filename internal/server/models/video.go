package models

import "time"

// Video is a media record owned by a user. This service only reads videos
// when projecting watch history; publishing and view counting live elsewhere.
type Video struct {
	ID           string    `json:"id"`
	VideoURL     string    `json:"videoFile"`
	ThumbnailURL string    `json:"thumbnail"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	OwnerID      string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

package models

// ChannelProfile is the aggregated public view of a user as a subscribable
// channel. The field set is a fixed allowlist; nothing else is projected.
type ChannelProfile struct {
	Fullname                  string `json:"fullname"`
	Username                  string `json:"username"`
	Email                     string `json:"email"`
	AvatarURL                 string `json:"avatar"`
	CoverImageURL             string `json:"coverImage,omitempty"`
	SubscriberCount           int64  `json:"subscriberCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// VideoOwner is the single-owner projection embedded in each watch-history
// entry: just enough to render an attribution line.
type VideoOwner struct {
	ID        string `json:"id"`
	Fullname  string `json:"fullname"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

// WatchHistoryEntry is one video from a user's watch history with its owner
// denormalized onto it.
type WatchHistoryEntry struct {
	Video
	Owner VideoOwner `json:"owner"`
}

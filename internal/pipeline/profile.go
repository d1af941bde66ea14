package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/madeira-labs/concorrente/internal/intel"
)

// scrapedProfile mirrors the scraping actor's profile-details item.
type scrapedProfile struct {
	Username       string        `json:"username"`
	FullName       string        `json:"fullName"`
	Biography      string        `json:"biography"`
	URL            string        `json:"url"`
	ExternalURL    string        `json:"externalUrl"`
	FollowersCount int           `json:"followersCount"`
	FollowsCount   int           `json:"followsCount"`
	PostsCount     int           `json:"postsCount"`
	Verified       bool          `json:"verified"`
	LatestPosts    []scrapedPost `json:"latestPosts"`
}

type scrapedPost struct {
	ID             string   `json:"id"`
	ShortCode      string   `json:"shortCode"`
	Type           string   `json:"type"`
	Caption        string   `json:"caption"`
	Hashtags       []string `json:"hashtags"`
	LikesCount     int      `json:"likesCount"`
	CommentsCount  int      `json:"commentsCount"`
	VideoViewCount int      `json:"videoViewCount"`
	DisplayURL     string   `json:"displayUrl"`
	Timestamp      string   `json:"timestamp"`
}

// decodeProfile converts a raw scraped item into the domain profile shape.
// Hashtags missing from the item are recovered from the caption text.
func decodeProfile(raw json.RawMessage) (intel.SocialProfile, error) {
	var sp scrapedProfile
	if err := json.Unmarshal(raw, &sp); err != nil {
		return intel.SocialProfile{}, fmt.Errorf("decode scraped profile: %w", err)
	}
	if sp.Username == "" {
		return intel.SocialProfile{}, fmt.Errorf("scraped item has no username")
	}

	p := intel.SocialProfile{
		Username:       sp.Username,
		FullName:       sp.FullName,
		Biography:      sp.Biography,
		ProfileURL:     sp.URL,
		ExternalURL:    sp.ExternalURL,
		FollowersCount: sp.FollowersCount,
		FollowsCount:   sp.FollowsCount,
		PostsCount:     sp.PostsCount,
		Verified:       sp.Verified,
	}
	for _, post := range sp.LatestPosts {
		p.Posts = append(p.Posts, decodePost(post))
	}
	return p, nil
}

func decodePost(sp scrapedPost) intel.SocialPost {
	hashtags := sp.Hashtags
	if len(hashtags) == 0 {
		hashtags = captionHashtags(sp.Caption)
	}
	post := intel.SocialPost{
		ID:             sp.ID,
		ShortCode:      sp.ShortCode,
		Type:           sp.Type,
		Caption:        sp.Caption,
		Hashtags:       hashtags,
		LikesCount:     sp.LikesCount,
		CommentsCount:  sp.CommentsCount,
		VideoViewCount: sp.VideoViewCount,
		DisplayURL:     sp.DisplayURL,
	}
	if ts, err := time.Parse(time.RFC3339, sp.Timestamp); err == nil {
		post.Timestamp = ts
	}
	return post
}

// captionHashtags pulls #tags out of free caption text.
func captionHashtags(caption string) []string {
	var tags []string
	for _, field := range strings.Fields(caption) {
		if !strings.HasPrefix(field, "#") || len(field) < 2 {
			continue
		}
		tag := strings.TrimRight(field, ".,;:!?")
		if len(tag) > 1 {
			tags = append(tags, tag)
		}
	}
	return tags
}

// profileKey derives the direct-lookup key used by the scraping resolver from
// a human-entered competitor name.
func profileKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimPrefix(key, "@")
	return strings.ReplaceAll(key, " ", "")
}

package policy

import (
	"fmt"
	"sort"
	"strings"
)

// Category is a named group of domains blocked together.
type Category struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Domains     []string `json:"domains"`
}

// Registry holds the website categories offered to the user.
type Registry struct {
	categories map[string]Category
}

// NewRegistry creates a registry with the built-in categories.
func NewRegistry() *Registry {
	return NewRegistryWithCategories(defaultCategories...)
}

// NewRegistryWithCategories creates a registry with custom categories (for testing).
func NewRegistryWithCategories(categories ...Category) *Registry {
	r := &Registry{categories: make(map[string]Category)}
	for _, c := range categories {
		r.Register(c)
	}
	return r
}

// Register adds or replaces a category.
func (r *Registry) Register(c Category) {
	r.categories[c.ID] = c
}

// Get returns a category by ID.
func (r *Registry) Get(id string) (Category, bool) {
	c, ok := r.categories[id]
	return c, ok
}

// GetAll returns all categories ordered by ID.
func (r *Registry) GetAll() []Category {
	result := make([]Category, 0, len(r.categories))
	for _, id := range r.List() {
		result = append(result, r.categories[id])
	}
	return result
}

// List returns all category IDs, sorted.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.categories))
	for id := range r.categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DomainsFor returns the union of the domains in the given categories,
// in category order with duplicates removed.
func (r *Registry) DomainsFor(ids []string) ([]string, error) {
	var domains []string
	seen := make(map[string]bool)
	for _, id := range ids {
		c, ok := r.categories[id]
		if !ok {
			return nil, fmt.Errorf("unknown website category %q", id)
		}
		for _, d := range c.Domains {
			if !seen[d] {
				seen[d] = true
				domains = append(domains, d)
			}
		}
	}
	return domains, nil
}

// NormalizeDomain reduces user input such as "https://www.Example.com/path"
// to a bare lowercase host ("example.com").
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	d = strings.TrimSuffix(d, "/")
	if i := strings.Index(d, "/"); i >= 0 {
		d = d[:i]
	}
	return d
}

var defaultCategories = []Category{
	{
		ID:          "adult",
		Name:        "Adult Content",
		Description: "Block adult and pornographic websites",
		Domains: []string{
			"pornhub.com", "xvideos.com", "xnxx.com", "xhamster.com", "redtube.com",
			"youporn.com", "tube8.com", "spankbang.com", "txxx.com", "porn.com",
			"eporner.com", "hqporner.com", "onlyfans.com",
		},
	},
	{
		ID:          "social",
		Name:        "Social Media",
		Description: "Block social networking platforms",
		Domains: []string{
			"facebook.com", "instagram.com", "twitter.com", "x.com", "tiktok.com",
			"snapchat.com", "reddit.com", "linkedin.com", "pinterest.com", "tumblr.com",
			"whatsapp.com", "web.whatsapp.com", "discord.com", "threads.net",
		},
	},
	{
		ID:          "video",
		Name:        "Video Streaming",
		Description: "Block video streaming platforms",
		Domains: []string{
			"youtube.com", "m.youtube.com", "netflix.com", "twitch.tv", "hulu.com",
			"disneyplus.com", "primevideo.com", "hbomax.com", "max.com", "vimeo.com",
			"dailymotion.com", "crunchyroll.com",
		},
	},
	{
		ID:          "gaming",
		Name:        "Gaming",
		Description: "Block gaming and game-related websites",
		Domains: []string{
			"steam.com", "store.steampowered.com", "steamcommunity.com", "epicgames.com",
			"roblox.com", "minecraft.net", "blizzard.com", "battle.net", "riot.com",
			"leagueoflegends.com", "valorant.com", "playvalorant.com", "ea.com",
			"origin.com", "ubisoft.com", "ign.com", "gamespot.com",
		},
	},
	{
		ID:          "shopping",
		Name:        "Online Shopping",
		Description: "Block e-commerce and shopping websites",
		Domains: []string{
			"amazon.com", "ebay.com", "walmart.com", "target.com", "aliexpress.com",
			"wish.com", "etsy.com", "shopify.com", "bestbuy.com", "newegg.com",
		},
	},
	{
		ID:          "news",
		Name:        "News & Media",
		Description: "Block news websites and media outlets",
		Domains: []string{
			"cnn.com", "bbc.com", "nytimes.com", "washingtonpost.com", "theguardian.com",
			"foxnews.com", "reuters.com", "apnews.com", "bloomberg.com", "wsj.com",
		},
	},
	{
		ID:          "entertainment",
		Name:        "Entertainment",
		Description: "Block entertainment and gossip websites",
		Domains: []string{
			"buzzfeed.com", "tmz.com", "9gag.com", "imgur.com", "giphy.com",
			"memes.com", "knowyourmeme.com",
		},
	},
}

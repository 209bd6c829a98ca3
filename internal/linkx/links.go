// Package linkx names artist links after the site they point to.
package linkx

import (
	"net/url"
	"strings"
)

var siteNames = map[string]string{
	"www.twitter.com":      "Twitter",
	"www.instagram.com":    "Instagram",
	"www.facebook.com":     "Facebook",
	"www.tiktok.com":       "TikTok",
	"www.pinterest.com":    "Pinterest",
	"www.pixiv.net":        "Pixiv",
	"www.skeb.jp":          "Skeb",
	"www.fanbox.cc":        "Fanbox",
	"www.patreon.com":      "Patreon",
	"www.ko-fi.com":        "Ko-fi",
	"www.buymeacoffee.com": "Buymeacoffee",
	"www.twitch.tv":        "Twitch",
	"www.nekos.land":       "Nekos.Land",
	"www.youtube.com":      "YouTube",
	"www.artstation.com":   "ArtStation",
}

const logoBase = "https://cdn.nekosapi.com/svgs/logos/"

var logos = map[string]string{
	"twitter": logoBase + "twitter.svg",
	"pixiv":   logoBase + "pixiv.svg",
	"patreon": logoBase + "patreon.svg",
	"booth":   logoBase + "booth.svg",
	"skeb":    logoBase + "skeb.png",
}

// NameFromURL returns a display name for link: the known site name for its
// host (with or without "www."), "Fanbox" and "BOOTH" for creator
// subdomains, otherwise the bare hostname. Unparseable links are returned
// unchanged.
func NameFromURL(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return link
	}
	host := strings.ToLower(u.Hostname())

	if name, ok := siteNames[host]; ok {
		return name
	}
	if name, ok := siteNames["www."+host]; ok {
		return name
	}

	switch {
	case strings.HasSuffix(host, ".fanbox.cc"):
		return "Fanbox"
	case strings.HasSuffix(host, ".booth.pm"):
		return "BOOTH"
	}
	return host
}

// LogoURL returns the CDN logo for link's site, or "" when there is none.
func LogoURL(link string) string {
	return logos[strings.ToLower(NameFromURL(link))]
}

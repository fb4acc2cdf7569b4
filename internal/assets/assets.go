package assets

import "embed"

//go:embed all:banner.txt
var bannerFS embed.FS

var BannerString string

func init() {
	raw, err := bannerFS.ReadFile("banner.txt")
	if err != nil {
		// the banner is embedded at build time; failing to read it means the
		// binary itself is broken
		panic(err)
	}

	BannerString = string(raw)
}

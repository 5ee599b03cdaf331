package render

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Default content shown when the content API is unavailable.
const (
	DefaultBandName    = "SODA STEREO"
	DefaultShortBio    = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua."
	DefaultEmail       = "info@banda.com"
	DefaultPhoneHref   = "+1234567890"
	DefaultPhone       = "+123 456 7890"
	DefaultWhatsApp    = "https://wa.me/1234567890"
	DefaultBio         = "<p>Biografía completa de la banda...</p>"
	DefaultHistory     = "<p>Historia de la banda...</p>"
	DefaultTimeline    = "<p>Trayectoria de la banda...</p>"
	DefaultMembers     = "<p>Integrantes de la banda...</p>"
	defaultServiceNote = serviceNoteStyle
)

var defaultServices = []struct{ title, note string }{
	{"TRIBUTE BAND", "Espectáculos tributo completos"},
	{"PRIVATE EVENTS", "Eventos privados y corporativos"},
}

var defaultSocialIcons = []string{"📷", "🎵", "🎶", "📺"}

// RenderDefaults writes literal default content into one region. It needs no
// network access and ignores whatever the region held before.
func RenderDefaults(regions *Regions, region Region) {
	switch region {
	case RegionHero:
		if present(regions.HeroTitle) {
			regions.HeroTitle.SetText(DefaultBandName)
		}
		if present(regions.HeroDescription) {
			regions.HeroDescription.SetText(DefaultShortBio)
		}
	case RegionServices:
		if !present(regions.ServicesGrid) {
			return
		}
		cards := make([]*html.Node, 0, len(defaultServices))
		for _, s := range defaultServices {
			cards = append(cards, with(el(atom.Div, "class", "service-card"),
				with(el(atom.Button, "class", "service-btn"), text(s.title)),
				with(el(atom.P, "style", defaultServiceNote), text(s.note)),
			))
		}
		replace(regions.ServicesGrid, cards...)
	case RegionSocialIcons:
		if !present(regions.SocialIcons) {
			return
		}
		links := make([]*html.Node, 0, len(defaultSocialIcons))
		for _, glyph := range defaultSocialIcons {
			links = append(links, with(el(atom.A, "href", "#", "class", "social-icon"), text(glyph)))
		}
		replace(regions.SocialIcons, links...)
	case RegionContactInfo:
		if !present(regions.ContactInfo) {
			return
		}
		replace(regions.ContactInfo,
			contactLine("Email:", el(atom.A, "href", "mailto:"+DefaultEmail), DefaultEmail),
			contactLine("Teléfono:", el(atom.A, "href", "tel:"+DefaultPhoneHref), DefaultPhone),
			contactLine("WhatsApp:", el(atom.A, "href", DefaultWhatsApp, "target", "_blank"), DefaultPhone),
		)
	case RegionBio:
		if present(regions.Bio) {
			replaceHTML(regions.Bio, DefaultBio)
		}
	case RegionHistory:
		if present(regions.History) {
			replaceHTML(regions.History, DefaultHistory)
		}
	case RegionTimeline:
		if present(regions.Timeline) {
			replaceHTML(regions.Timeline, DefaultTimeline)
		}
	case RegionMembers:
		if present(regions.Members) {
			replaceHTML(regions.Members, DefaultMembers)
		}
	case RegionSiteSetting:
		if present(regions.SiteTitles) {
			regions.SiteTitles.SetText(DefaultBandName)
		}
		if present(regions.ContactEmails) {
			regions.ContactEmails.SetText(DefaultEmail)
			regions.ContactEmails.Filter("a").SetAttr("href", "mailto:"+DefaultEmail)
		}
		if present(regions.ContactPhones) {
			regions.ContactPhones.SetText(DefaultPhone)
			regions.ContactPhones.Filter("a").SetAttr("href", "tel:"+DefaultPhoneHref)
		}
	}
}

// HomeDefaults restores the home page regions.
func HomeDefaults(regions *Regions) {
	RenderDefaults(regions, RegionHero)
	RenderDefaults(regions, RegionServices)
	RenderDefaults(regions, RegionSocialIcons)
}

// ContractsDefaults restores the booking page contact block.
func ContractsDefaults(regions *Regions) {
	RenderDefaults(regions, RegionContactInfo)
}

// AboutDefaults restores the about page regions.
func AboutDefaults(regions *Regions) {
	RenderDefaults(regions, RegionBio)
	RenderDefaults(regions, RegionHistory)
	RenderDefaults(regions, RegionTimeline)
	RenderDefaults(regions, RegionMembers)
}

// LayoutDefaults restores the shared layout elements.
func LayoutDefaults(regions *Regions) {
	RenderDefaults(regions, RegionSiteSetting)
}

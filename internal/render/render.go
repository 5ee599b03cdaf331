package render

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"tributo.band/site/internal/cms"
)

const (
	defaultButtonColor = "#FFD700"
	serviceNoteStyle   = "color: #ccc; margin-top: 1rem;"
	embedHeight        = "250"
)

// Options configures a Renderer.
type Options struct {
	MediaOrigin string
	PhoneRegion string
	RichText    *RichText
}

// Renderer writes content records into the regions of one page. Every method
// no-ops when its region is absent and fully replaces the region otherwise.
type Renderer struct {
	regions *Regions
	opts    Options
}

// NewRenderer binds a renderer to the regions of a parsed page.
func NewRenderer(regions *Regions, opts Options) *Renderer {
	if opts.RichText == nil {
		opts.RichText = NewRichText(FormatHTML, false)
	}
	return &Renderer{regions: regions, opts: opts}
}

// Regions returns the bound page regions.
func (r *Renderer) Regions() *Regions { return r.regions }

// Hero sets the hero title and description when the fields are present.
func (r *Renderer) Hero(info cms.BandInfo) {
	if present(r.regions.HeroTitle) && info.BandName.Present() {
		r.regions.HeroTitle.SetText(info.BandName.String())
	}
	if present(r.regions.HeroDescription) && info.ShortBio.Present() {
		r.regions.HeroDescription.SetText(info.ShortBio.String())
	}
}

// Services renders the home page service cards.
func (r *Renderer) Services(services []cms.Service) {
	region := r.regions.ServicesGrid
	if !present(region) {
		return
	}
	cards := make([]*html.Node, 0, len(services))
	for _, s := range services {
		color := s.ButtonColor.Or(defaultButtonColor)
		cards = append(cards, with(el(atom.Div, "class", "service-card"),
			with(el(atom.Button, "class", "service-btn", "style", "background-color: "+color), text(s.Title.String())),
			with(el(atom.P, "style", serviceNoteStyle), text(s.Description.String())),
		))
	}
	replace(region, cards...)
}

// ServicesDetailed renders the booking page service list. The price line only
// appears when a price is set.
func (r *Renderer) ServicesDetailed(services []cms.Service) {
	region := r.regions.ServicesDetailed
	if !present(region) {
		return
	}
	details := make([]*html.Node, 0, len(services))
	for _, s := range services {
		description := s.FullDescription.Or(s.Description.String())
		detail := with(el(atom.Div, "class", "service-detail"),
			with(el(atom.H3), text(s.Title.String())),
			with(el(atom.Div, "class", "service-description"), text(description)),
		)
		if s.Duration.Present() {
			with(detail, with(el(atom.P, "class", "service-duration"), text("Duración: "+s.Duration.String())))
		}
		if len(s.Features) > 0 {
			list := el(atom.Ul, "class", "service-features")
			for _, f := range s.Features {
				with(list, with(el(atom.Li), text(f)))
			}
			with(detail, list)
		}
		if s.Price.Present() {
			with(detail, with(el(atom.P, "class", "service-price"), text("Precio: "+s.Price.String())))
		}
		details = append(details, detail)
	}
	replace(region, details...)
}

// SocialIcons renders one icon link per profile.
func (r *Renderer) SocialIcons(profiles []cms.SocialMedia) {
	region := r.regions.SocialIcons
	if !present(region) {
		return
	}
	links := make([]*html.Node, 0, len(profiles))
	for _, p := range profiles {
		links = append(links, with(
			el(atom.A, "href", p.URL.String(), "target", "_blank", "rel", "noopener", "class", "social-icon", "aria-label", string(p.Platform)),
			text(SocialIcon(p.Platform)),
		))
	}
	replace(region, links...)
}

// SocialIcon maps a platform to its glyph.
func SocialIcon(p cms.Platform) string {
	switch p {
	case cms.PlatformInstagram:
		return "📷"
	case cms.PlatformSpotify:
		return "🎵"
	case cms.PlatformAppleMusic:
		return "🎶"
	case cms.PlatformYouTube:
		return "📺"
	case cms.PlatformFacebook:
		return "📘"
	case cms.PlatformTwitter:
		return "🐦"
	default:
		return "🔗"
	}
}

// ContactInfo renders the booking contact block; each line only when set.
func (r *Renderer) ContactInfo(info cms.ContactInfo) {
	region := r.regions.ContactInfo
	if !present(region) {
		return
	}
	var lines []*html.Node
	if info.Email.Present() {
		email := info.Email.String()
		lines = append(lines, contactLine("Email:", el(atom.A, "href", "mailto:"+email), email))
	}
	if info.Phone.Present() {
		phone := info.Phone.String()
		lines = append(lines, contactLine("Teléfono:", el(atom.A, "href", "tel:"+r.dialable(phone)), phone))
	}
	if info.WhatsApp.Present() {
		wa := info.WhatsApp.String()
		lines = append(lines, contactLine("WhatsApp:", el(atom.A, "href", WhatsAppURL(wa, r.opts.PhoneRegion), "target", "_blank"), wa))
	}
	var msg *html.Node
	if info.ContactMessage.Present() {
		msg = el(atom.Div, "class", "contact-message")
		lines = append(lines, msg)
	}
	replace(region, lines...)
	if msg != nil {
		region.FindNodes(msg).SetHtml(r.opts.RichText.trustedHTML(info.ContactMessage.String()))
	}
}

func contactLine(label string, link *html.Node, display string) *html.Node {
	return with(el(atom.P),
		with(el(atom.Strong), text(label)),
		text(" "),
		with(link, text(display)),
	)
}

// dialable returns the E.164 form when the number parses, otherwise raw.
func (r *Renderer) dialable(raw string) string {
	num, err := phonenumbers.Parse(raw, regionOrDefault(r.opts.PhoneRegion))
	if err != nil {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// WhatsAppURL builds a wa.me click-to-chat link from any phone notation.
func WhatsAppURL(raw, region string) string {
	digits := ""
	if num, err := phonenumbers.Parse(raw, regionOrDefault(region)); err == nil {
		digits = strings.TrimPrefix(phonenumbers.Format(num, phonenumbers.E164), "+")
	} else {
		digits = onlyDigits(raw)
	}
	return "https://wa.me/" + digits
}

func regionOrDefault(region string) string {
	if region = strings.ToUpper(strings.TrimSpace(region)); region != "" {
		return region
	}
	return "AR"
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// About writes the rich text biography and history when present.
func (r *Renderer) About(info cms.BandInfo) {
	if present(r.regions.Bio) && info.FullBio.Present() {
		replaceHTML(r.regions.Bio, r.opts.RichText.trustedHTML(info.FullBio.String()))
	}
	if present(r.regions.History) && info.History.Present() {
		replaceHTML(r.regions.History, r.opts.RichText.trustedHTML(info.History.String()))
	}
}

// Gallery renders images as lightbox triggers and spotify/youtube entries as
// embedded players. Unknown types and incomplete entries are skipped.
func (r *Renderer) Gallery(items []cms.GalleryItem) {
	region := r.regions.Gallery
	if !present(region) {
		return
	}
	r.regions.Lightbox.reset()
	nodes := make([]*html.Node, 0, len(items))
	for _, item := range items {
		var content []*html.Node
		switch item.Type {
		case cms.GalleryImage:
			if item.Media == nil {
				continue
			}
			src := cms.MediaURL(r.opts.MediaOrigin, item.Media.URL)
			title := item.Title.String()
			alt := title
			if alt == "" {
				alt = item.Media.AlternativeText
			}
			r.regions.Lightbox.register(src)
			content = append(content,
				with(el(atom.A, "href", LightboxHref(src), "class", "gallery-trigger", "data-lightbox-src", src),
					el(atom.Img, "src", src, "alt", alt, "loading", "lazy"),
				),
				with(el(atom.Div, "class", "gallery-overlay"), with(el(atom.P), text(title))),
			)
		case cms.GallerySpotify:
			if !item.EmbedURL.Present() {
				continue
			}
			content = append(content, el(atom.Iframe,
				"src", item.EmbedURL.String(), "width", "100%", "height", embedHeight, "frameborder", "0",
				"allowtransparency", "true", "allow", "encrypted-media", "title", item.Title.String()))
		case cms.GalleryYouTube:
			if !item.EmbedURL.Present() {
				continue
			}
			content = append(content, el(atom.Iframe,
				"src", item.EmbedURL.String(), "width", "100%", "height", embedHeight, "frameborder", "0",
				"allow", "accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture",
				"allowfullscreen", "", "title", item.Title.String()))
		default:
			continue
		}
		nodes = append(nodes, with(el(atom.Div, "class", "gallery-item", "data-type", string(item.Type)), content...))
	}
	replace(region, nodes...)
}

// LightboxHref is the link target that reopens the page with src enlarged.
func LightboxHref(src string) string {
	return "?lightbox=" + url.QueryEscape(src) + "#lightbox"
}

// Timeline renders events alternating left and right.
func (r *Renderer) Timeline(events []cms.TimelineEvent) {
	region := r.regions.Timeline
	if !present(region) {
		return
	}
	nodes := make([]*html.Node, 0, len(events))
	for i, ev := range events {
		side := "left"
		if i%2 == 1 {
			side = "right"
		}
		content := el(atom.Div, "class", "timeline-content")
		if ev.Year.Present() {
			with(content, with(el(atom.Div, "class", "year"), text(ev.Year.String())))
		}
		with(content, with(el(atom.H3), text(ev.Title.String())))
		if ev.Description.Present() {
			with(content, with(el(atom.P), text(ev.Description.String())))
		}
		nodes = append(nodes, with(el(atom.Div, "class", "timeline-item "+side), content))
	}
	replace(region, nodes...)
}

// Members renders band member cards. Members without a photo get an initial
// placeholder.
func (r *Renderer) Members(members []cms.BandMember) {
	region := r.regions.Members
	if !present(region) {
		return
	}
	nodes := make([]*html.Node, 0, len(members))
	bios := map[*html.Node]string{}
	for _, m := range members {
		name := m.Name.String()
		image := el(atom.Div, "class", "member-image")
		if m.Photo != nil {
			with(image, el(atom.Img, "src", cms.MediaURL(r.opts.MediaOrigin, m.Photo.URL), "alt", name, "loading", "lazy"))
		} else {
			with(image, with(el(atom.Div, "class", "placeholder-image"), text(initial(name))))
		}
		info := with(el(atom.Div, "class", "member-info"),
			with(el(atom.H3), text(name)),
		)
		if m.Role.Present() {
			with(info, with(el(atom.P, "class", "role"), text(m.Role.String())))
		}
		if m.Bio.Present() {
			bio := el(atom.Div, "class", "bio")
			with(info, bio)
			bios[bio] = m.Bio.String()
		}
		nodes = append(nodes, with(el(atom.Div, "class", "member-card"), image, info))
	}
	replace(region, nodes...)
	for node, bio := range bios {
		region.FindNodes(node).SetHtml(r.opts.RichText.trustedHTML(bio))
	}
}

func initial(name string) string {
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// SiteSetting applies the global layout settings to every matching element.
func (r *Renderer) SiteSetting(s cms.SiteSetting) {
	reg := r.regions
	if s.SiteName.Present() {
		if present(reg.DocumentTitle) {
			reg.DocumentTitle.SetText(s.SiteName.String())
		}
		if present(reg.SiteTitles) {
			reg.SiteTitles.SetText(s.SiteName.String())
		}
	}
	if s.Tagline.Present() && present(reg.Taglines) {
		reg.Taglines.SetText(s.Tagline.String())
	}
	if s.AboutText.Present() && present(reg.AboutTexts) {
		markup := r.opts.RichText.trustedHTML(s.AboutText.String())
		reg.AboutTexts.Each(func(_ int, target *goquery.Selection) {
			replaceHTML(target, markup)
		})
	}
	if s.ContactEmail.Present() && present(reg.ContactEmails) {
		email := s.ContactEmail.String()
		reg.ContactEmails.SetText(email)
		reg.ContactEmails.Filter("a").SetAttr("href", "mailto:"+email)
	}
	if s.ContactPhone.Present() && present(reg.ContactPhones) {
		phone := s.ContactPhone.String()
		reg.ContactPhones.SetText(phone)
		reg.ContactPhones.Filter("a").SetAttr("href", "tel:"+r.dialable(phone))
	}
	if s.HeroImage != nil && present(reg.HeroSection) {
		src := cms.MediaURL(r.opts.MediaOrigin, s.HeroImage.URL)
		reg.HeroSection.SetAttr("style", "background-image: "+cssURL(src))
	}
	for platform, link := range s.SocialLinks {
		if targets, ok := reg.SocialLinks[string(platform)]; ok {
			targets.SetAttr("href", link)
		}
	}
}

// cssURLEscaper percent-encodes the characters that could end a CSS url()
// token or its quoted string.
var cssURLEscaper = strings.NewReplacer(
	`"`, "%22",
	`'`, "%27",
	"(", "%28",
	")", "%29",
	`\`, "%5C",
	" ", "%20",
	"\n", "%0A",
	"\r", "%0D",
	"\t", "%09",
	"\f", "%0C",
)

func cssURL(src string) string {
	return `url("` + cssURLEscaper.Replace(src) + `")`
}

package render

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Region names the DOM areas a page may expose.
type Region string

const (
	RegionHero             Region = "hero"
	RegionServices         Region = "services"
	RegionServicesDetailed Region = "services-detailed"
	RegionSocialIcons      Region = "social-icons"
	RegionContactInfo      Region = "contact-info"
	RegionBio              Region = "bio"
	RegionHistory          Region = "history"
	RegionGallery          Region = "gallery"
	RegionTimeline         Region = "timeline"
	RegionMembers          Region = "members"
	RegionSiteSetting      Region = "site-setting"
)

// Selectors used to resolve regions from page markup.
const (
	selHeroSection      = ".hero"
	selHeroTitle        = ".hero-content h1"
	selHeroDescription  = ".hero-content p"
	selServicesGrid     = ".services-grid"
	selServicesDetailed = ".services-detailed"
	selSocialIcons      = ".social-icons"
	selContactInfo      = ".contact-info-content"
	selBio              = ".bio-content"
	selHistory          = ".history-content"
	selGallery          = ".gallery-grid"
	selTimeline         = "#timeline-container"
	selMembers          = "#band-members-container"
	selLightbox         = ".lightbox"
	selLightboxImage    = ".lightbox-content img"
	selSiteTitle        = ".site-title"
	selTagline          = ".tagline"
	selAboutText        = ".about-text"
	selContactEmail     = ".contact-email"
	selContactPhone     = ".contact-phone"
	selContactForm      = "#contactForm, #contact-form"
)

// Regions holds the DOM handles of one parsed page. Handles are resolved once
// at construction; any of them may be empty, in which case rendering into it
// is a silent no-op.
type Regions struct {
	doc *goquery.Document

	HeroSection      *goquery.Selection
	HeroTitle        *goquery.Selection
	HeroDescription  *goquery.Selection
	ServicesGrid     *goquery.Selection
	ServicesDetailed *goquery.Selection
	SocialIcons      *goquery.Selection
	ContactInfo      *goquery.Selection
	Bio              *goquery.Selection
	History          *goquery.Selection
	Gallery          *goquery.Selection
	Timeline         *goquery.Selection
	Members          *goquery.Selection

	DocumentTitle *goquery.Selection
	SiteTitles    *goquery.Selection
	Taglines      *goquery.Selection
	AboutTexts    *goquery.Selection
	ContactEmails *goquery.Selection
	ContactPhones *goquery.Selection
	SocialLinks   map[string]*goquery.Selection

	Lightbox *Lightbox
	Form     *Form
}

// NewRegions resolves every region handle from doc.
func NewRegions(doc *goquery.Document) *Regions {
	r := &Regions{
		doc:              doc,
		HeroSection:      doc.Find(selHeroSection).First(),
		HeroTitle:        doc.Find(selHeroTitle).First(),
		HeroDescription:  doc.Find(selHeroDescription).First(),
		ServicesGrid:     doc.Find(selServicesGrid).First(),
		ServicesDetailed: doc.Find(selServicesDetailed).First(),
		SocialIcons:      doc.Find(selSocialIcons).First(),
		ContactInfo:      doc.Find(selContactInfo).First(),
		Bio:              doc.Find(selBio).First(),
		History:          doc.Find(selHistory).First(),
		Gallery:          doc.Find(selGallery).First(),
		Timeline:         doc.Find(selTimeline).First(),
		Members:          doc.Find(selMembers).First(),
		DocumentTitle:    doc.Find("head title").First(),
		SiteTitles:       doc.Find(selSiteTitle),
		Taglines:         doc.Find(selTagline),
		AboutTexts:       doc.Find(selAboutText),
		ContactEmails:    doc.Find(selContactEmail),
		ContactPhones:    doc.Find(selContactPhone),
		SocialLinks:      socialLinkTargets(doc),
	}
	r.Lightbox = newLightbox(doc.Find(selLightbox).First(), doc.Find(selLightboxImage).First())
	r.Form = newForm(doc.Find(selContactForm).First())
	return r
}

// ParseRegions parses page markup and resolves its regions.
func ParseRegions(markup string) (*Regions, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return NewRegions(doc), nil
}

// Document exposes the underlying parsed page.
func (r *Regions) Document() *goquery.Document { return r.doc }

// HTML serialises the page including the doctype.
func (r *Regions) HTML() (string, error) {
	return r.doc.Html()
}

// socialLinkTargets indexes elements carrying a social-<platform> class,
// ignoring the social-icon container classes.
func socialLinkTargets(doc *goquery.Document) map[string]*goquery.Selection {
	nodes := map[string][]*html.Node{}
	doc.Find("[class*='social-']").Each(func(_ int, s *goquery.Selection) {
		for _, class := range strings.Fields(s.AttrOr("class", "")) {
			platform, ok := strings.CutPrefix(class, "social-")
			if !ok || platform == "" || platform == "icon" || platform == "icons" {
				continue
			}
			nodes[platform] = append(nodes[platform], s.Nodes[0])
		}
	})
	out := make(map[string]*goquery.Selection, len(nodes))
	for platform, ns := range nodes {
		out[platform] = doc.FindNodes(ns...)
	}
	return out
}

func present(s *goquery.Selection) bool {
	return s != nil && s.Length() > 0
}

// Lightbox is the overlay showing an enlarged gallery image. It only opens
// for URLs the gallery rendered on the same page.
type Lightbox struct {
	overlay *goquery.Selection
	image   *goquery.Selection
	allowed map[string]struct{}
}

func newLightbox(overlay, image *goquery.Selection) *Lightbox {
	return &Lightbox{overlay: overlay, image: image, allowed: map[string]struct{}{}}
}

func (l *Lightbox) reset() {
	l.allowed = map[string]struct{}{}
}

func (l *Lightbox) register(url string) {
	l.allowed[url] = struct{}{}
}

// Open shows the overlay with url enlarged. It reports false when the page has
// no lightbox or url was not rendered by the gallery.
func (l *Lightbox) Open(url string) bool {
	if l == nil || !present(l.overlay) || !present(l.image) {
		return false
	}
	if _, ok := l.allowed[url]; !ok {
		return false
	}
	l.image.SetAttr("src", url)
	l.overlay.SetAttr("style", "display: block")
	l.overlay.SetAttr("aria-hidden", "false")
	return true
}

// Close hides the overlay.
func (l *Lightbox) Close() {
	if l == nil || !present(l.overlay) {
		return
	}
	l.overlay.SetAttr("style", "display: none")
	l.overlay.SetAttr("aria-hidden", "true")
}

// IsOpen reports whether the overlay is visible.
func (l *Lightbox) IsOpen() bool {
	if l == nil || !present(l.overlay) {
		return false
	}
	return strings.Contains(l.overlay.AttrOr("style", ""), "display: block")
}

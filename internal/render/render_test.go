package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"tributo.band/site/internal/cms"
)

const fixturePage = `<!DOCTYPE html>
<html lang="es">
<head><title>Banda</title></head>
<body>
  <nav><span class="site-title">Banda</span><a class="contact-email" href="#">x</a><a class="social-instagram" href="#">IG</a></nav>
  <section class="hero"><div class="hero-content"><h1>Placeholder</h1><p>Placeholder text</p></div></section>
  <div class="services-grid"><div class="service-card">stale</div></div>
  <div class="services-detailed"></div>
  <div class="social-icons"></div>
  <div class="contact-info-content"></div>
  <div class="bio-content"></div>
  <div class="history-content"></div>
  <div class="gallery-grid"></div>
  <div id="timeline-container"></div>
  <div id="band-members-container"></div>
  <div class="lightbox" style="display: none"><span class="close">&times;</span><div class="lightbox-content"><img src="" alt=""></div></div>
  <form id="contactForm">
    <input type="text" name="name">
    <input type="email" name="email">
    <select name="event-type"><option value="">Tipo</option><option value="boda">Boda</option></select>
    <textarea name="message"></textarea>
    <button type="submit" class="submit-btn">ENVIAR</button>
  </form>
</body>
</html>`

func newFixture(t *testing.T) (*Regions, *Renderer) {
	t.Helper()
	regions, err := ParseRegions(fixturePage)
	require.NoError(t, err)
	return regions, NewRenderer(regions, Options{MediaOrigin: "http://cms.local:1337", PhoneRegion: "AR"})
}

func reparse(t *testing.T, regions *Regions) *goquery.Document {
	t.Helper()
	markup, err := regions.HTML()
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestServicesRenderIsIdempotent(t *testing.T) {
	t.Parallel()

	regions, r := newFixture(t)
	services := []cms.Service{
		{Title: "TRIBUTE BAND", Description: "Show completo"},
		{Title: "PRIVATE EVENTS", ButtonColor: "#ff0000"},
	}
	r.Services(services)
	first, err := goquery.OuterHtml(regions.ServicesGrid)
	require.NoError(t, err)
	r.Services(services)
	second, err := goquery.OuterHtml(regions.ServicesGrid)
	require.NoError(t, err)

	require.Equal(t, first, second, "second render must leave the same DOM")
	cards := regions.ServicesGrid.Find(".service-card")
	require.Equal(t, 2, cards.Length(), "stale content must be cleared")
	require.Equal(t, "background-color: #FFD700", cards.Eq(0).Find(".service-btn").AttrOr("style", ""))
	require.Equal(t, "background-color: #ff0000", cards.Eq(1).Find(".service-btn").AttrOr("style", ""))
}

func TestPlainTextFieldsAreNotParsedAsMarkup(t *testing.T) {
	t.Parallel()

	regions, r := newFixture(t)
	r.Services([]cms.Service{{Title: "<b>bold</b>", Description: "<script>alert(1)</script>"}})

	doc := reparse(t, regions)
	require.Equal(t, 0, doc.Find(".services-grid b").Length())
	require.Equal(t, 0, doc.Find(".services-grid script").Length())
	require.Equal(t, "<b>bold</b>", strings.TrimSpace(doc.Find(".service-btn").Text()))
}

func TestServicesDetailedPriceOnlyWhenPresent(t *testing.T) {
	t.Parallel()

	regions, r := newFixture(t)
	r.ServicesDetailed([]cms.Service{
		{Title: "Con precio", Description: "corta", FullDescription: "larga", Price: "1500"},
		{Title: "Sin precio", Description: "corta"},
	})

	details := regions.ServicesDetailed.Find(".service-detail")
	require.Equal(t, 2, details.Length())
	require.Equal(t, "Precio: 1500", details.Eq(0).Find(".service-price").Text())
	require.Equal(t, "larga", details.Eq(0).Find(".service-description").Text())
	require.Equal(t, 0, details.Eq(1).Find(".service-price").Length(), "absent price must not render a price line")
	require.Equal(t, "corta", details.Eq(1).Find(".service-description").Text())
}

func TestHeroKeepsExistingTextForMissingFields(t *testing.T) {
	t.Parallel()

	regions, r := newFixture(t)
	r.Hero(cms.BandInfo{BandName: "TRIBUTO"})

	require.Equal(t, "TRIBUTO", regions.HeroTitle.Text())
	require.Equal(t, "Placeholder text", regions.HeroDescription.Text())
}

func TestSocialIconsMapPlatforms(t *testing.T) {
	t.Parallel()

	regions, r := newFixture(t)
	r.SocialIcons([]cms.SocialMedia{
		{Platform: cms.PlatformInstagram, URL: "https://instagram.com/banda"},
		{Platform: cms.PlatformOther, URL: "https://example.com"},
	})

	icons := regions.SocialIcons.Find("a.social-icon")
	require.Equal(t, 2, icons.Length())
	require.Equal(t, "📷", icons.Eq(0).Text())
	require.Equal(t, "🔗", icons.Eq(1).Text())
	require.Equal(t, "https://instagram.com/banda", icons.Eq(0).AttrOr("href", ""))
	require.Equal(t, "_blank", icons.Eq(0).AttrOr("target", ""))
}

func TestContactInfoOmitsAbsentLines(t *testing.T) {
	t.Parallel()

	regions, r := newFixture(t)
	r.ContactInfo(cms.ContactInfo{
		Email:          "booking@banda.com",
		WhatsApp:       "+54 9 11 5555-1234",
		ContactMessage: "<p><em>Respondemos</em> en 24h</p>",
	})

	doc := reparse(t, regions)
	block := doc.Find(".contact-info-content")
	require.Equal(t, "mailto:booking@banda.com", block.Find("a[href^='mailto:']").AttrOr("href", ""))
	require.Equal(t, 0, block.Find("a[href^='tel:']").Length(), "phone line must be omitted")
	require.Equal(t, "https://wa.me/5491155551234", block.Find("a[href^='https://wa.me/']").AttrOr("href", ""))
	require.Equal(t, "Respondemos", block.Find(".contact-message em").Text(), "contact message is trusted rich text")
}

func TestAboutInsertsRichText(t *testing.T) {
	t.Parallel()

	regions, r := newFixture(t)
	r.About(cms.BandInfo{FullBio: "<p>Bio <strong>larga</strong></p>", History: "<ul><li>1984</li></ul>"})
	r.About(cms.BandInfo{FullBio: "<p>Bio <strong>larga</strong></p>", History: "<ul><li>1984</li></ul>"})

	doc := reparse(t, regions)
	require.Equal(t, 1, doc.Find(".bio-content strong").Length())
	require.Equal(t, 1, doc.Find(".history-content li").Length())
}

func TestMarkdownRichText(t *testing.T) {
	t.Parallel()

	regions, err := ParseRegions(fixturePage)
	require.NoError(t, err)
	r := NewRenderer(regions, Options{RichText: NewRichText(FormatMarkdown, true)})
	r.About(cms.BandInfo{FullBio: "**Soda** tributo\n\n<script>alert(1)</script>"})

	doc := reparse(t, regions)
	require.Equal(t, "Soda", doc.Find(".bio-content strong").Text())
	require.Equal(t, 0, doc.Find(".bio-content script").Length(), "sanitizer must strip scripts when enabled")
}

func TestGalleryBranchesOnType(t *testing.T) {
	t.Parallel()

	regions, r := newFixture(t)
	r.Gallery([]cms.GalleryItem{
		{Type: cms.GalleryImage, Title: "Live", Media: &cms.Media{URL: "/uploads/live.jpg"}},
		{Type: cms.GallerySpotify, EmbedURL: "https://open.spotify.com/embed/album/1"},
		{Type: cms.GalleryYouTube, EmbedURL: "https://www.youtube.com/embed/abc"},
		{Type: "vimeo", EmbedURL: "https://vimeo.com/1"},
		{Type: cms.GalleryImage},
	})

	items := regions.Gallery.Find(".gallery-item")
	require.Equal(t, 3, items.Length(), "unknown and incomplete items are skipped")
	img := items.Eq(0).Find("img")
	require.Equal(t, "http://cms.local:1337/uploads/live.jpg", img.AttrOr("src", ""))
	require.Equal(t, "Live", img.AttrOr("alt", ""))
	require.Equal(t, "https://open.spotify.com/embed/album/1", items.Eq(1).Find("iframe").AttrOr("src", ""))
	_, fullscreen := items.Eq(2).Find("iframe").Attr("allowfullscreen")
	require.True(t, fullscreen)
}

func TestLightboxOpensOnlyRenderedImages(t *testing.T) {
	t.Parallel()

	regions, r := newFixture(t)
	require.False(t, regions.Lightbox.Open("http://cms.local:1337/uploads/live.jpg"), "nothing rendered yet")

	r.Gallery([]cms.GalleryItem{{Type: cms.GalleryImage, Media: &cms.Media{URL: "/uploads/live.jpg"}}})
	trigger := regions.Gallery.Find("a.gallery-trigger")
	require.Equal(t, "http://cms.local:1337/uploads/live.jpg", trigger.AttrOr("data-lightbox-src", ""))
	require.Equal(t, LightboxHref("http://cms.local:1337/uploads/live.jpg"), trigger.AttrOr("href", ""))

	require.False(t, regions.Lightbox.Open("https://evil.example.com/x.jpg"))
	require.True(t, regions.Lightbox.Open("http://cms.local:1337/uploads/live.jpg"))
	require.True(t, regions.Lightbox.IsOpen())

	doc := reparse(t, regions)
	require.Equal(t, "http://cms.local:1337/uploads/live.jpg", doc.Find(".lightbox-content img").AttrOr("src", ""))

	regions.Lightbox.Close()
	require.False(t, regions.Lightbox.IsOpen())
}

func TestTimelineAndMembers(t *testing.T) {
	t.Parallel()

	regions, r := newFixture(t)
	r.Timeline([]cms.TimelineEvent{
		{Year: "1982", Title: "Formación"},
		{Year: "1984", Title: "Primer disco", Description: "Debut"},
	})
	r.Members([]cms.BandMember{
		{Name: "gustavo", Role: "Voz", Bio: "<p>Guitarra y voz</p>", Photo: &cms.Media{URL: "/uploads/g.jpg"}},
		{Name: "zeta", Role: "Bajo"},
	})

	items := regions.Timeline.Find(".timeline-item")
	require.Equal(t, 2, items.Length())
	require.True(t, items.Eq(0).HasClass("left"))
	require.True(t, items.Eq(1).HasClass("right"))
	require.Equal(t, "Debut", items.Eq(1).Find("p").Text())

	doc := reparse(t, regions)
	cards := doc.Find("#band-members-container .member-card")
	require.Equal(t, 2, cards.Length())
	require.Equal(t, "http://cms.local:1337/uploads/g.jpg", cards.Eq(0).Find("img").AttrOr("src", ""))
	require.Equal(t, "Guitarra y voz", cards.Eq(0).Find(".bio p").Text())
	require.Equal(t, "Z", cards.Eq(1).Find(".placeholder-image").Text())
	require.Equal(t, 0, cards.Eq(1).Find(".bio").Length())
}

func TestSiteSettingUpdatesLayout(t *testing.T) {
	t.Parallel()

	regions, r := newFixture(t)
	r.SiteSetting(cms.SiteSetting{
		SiteName:     "Tributo Stereo",
		ContactEmail: "hola@banda.com",
		HeroImage:    &cms.Media{URL: "/uploads/hero.jpg"},
		SocialLinks:  map[cms.Platform]string{cms.PlatformInstagram: "https://instagram.com/tributo"},
	})

	require.Equal(t, "Tributo Stereo", regions.DocumentTitle.Text())
	require.Equal(t, "Tributo Stereo", regions.SiteTitles.Text())
	require.Equal(t, "mailto:hola@banda.com", regions.ContactEmails.AttrOr("href", ""))
	require.Equal(t, "https://instagram.com/tributo", regions.SocialLinks["instagram"].AttrOr("href", ""))
	require.Equal(t, `background-image: url("http://cms.local:1337/uploads/hero.jpg")`, regions.HeroSection.AttrOr("style", ""))
}

func TestHeroBackgroundEscapesURL(t *testing.T) {
	t.Parallel()

	regions, r := newFixture(t)
	r.SiteSetting(cms.SiteSetting{HeroImage: &cms.Media{URL: `/uploads/it's (live) "2024".jpg`}})

	style := regions.HeroSection.AttrOr("style", "")
	require.Equal(t, `background-image: url("http://cms.local:1337/uploads/it%27s%20%28live%29%20%222024%22.jpg")`, style)
	require.Equal(t, 1, strings.Count(style, "("))
	require.Equal(t, 1, strings.Count(style, ")"))

	require.Equal(t, `url("a%5Cb%0A")`, cssURL("a\\b\n"))
}

func TestAbsentRegionsAreNoOps(t *testing.T) {
	t.Parallel()

	regions, err := ParseRegions(`<html><body><p>nothing here</p></body></html>`)
	require.NoError(t, err)
	r := NewRenderer(regions, Options{})

	require.NotPanics(t, func() {
		r.Hero(cms.BandInfo{BandName: "x"})
		r.Services([]cms.Service{{Title: "x"}})
		r.ServicesDetailed([]cms.Service{{Title: "x"}})
		r.SocialIcons([]cms.SocialMedia{{Platform: cms.PlatformSpotify}})
		r.ContactInfo(cms.ContactInfo{Email: "a@b.co"})
		r.About(cms.BandInfo{FullBio: "<p>x</p>"})
		r.Gallery([]cms.GalleryItem{{Type: cms.GalleryImage, Media: &cms.Media{URL: "/x.jpg"}}})
		r.Timeline([]cms.TimelineEvent{{Title: "x"}})
		r.Members([]cms.BandMember{{Name: "x"}})
		r.SiteSetting(cms.SiteSetting{SiteName: "x"})
		HomeDefaults(regions)
		ContractsDefaults(regions)
		AboutDefaults(regions)
		LayoutDefaults(regions)
		regions.Lightbox.Open("/x.jpg")
		regions.Form.Disable()
		regions.Form.Error("x")
	})
	doc := reparse(t, regions)
	require.Equal(t, "nothing here", strings.TrimSpace(doc.Find("body").Text()))
}

package cms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Text decodes a scalar field that the API may send as a string, number or
// bool. Null and missing values decode to the empty string, which every
// renderer treats as "absent".
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		*t = ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
	case trimmed[0] == '{' || trimmed[0] == '[':
		return fmt.Errorf("cms: expected scalar, got %s", trimmed[:1])
	default:
		*t = Text(trimmed)
	}
	return nil
}

// String returns the trimmed value.
func (t Text) String() string { return strings.TrimSpace(string(t)) }

// Present reports whether the field carries a non-blank value.
func (t Text) Present() bool { return t.String() != "" }

// Or returns the value, or fallback when absent.
func (t Text) Or(fallback string) string {
	if t.Present() {
		return t.String()
	}
	return fallback
}

// BandInfo is the single-type band description.
type BandInfo struct {
	BandName Text
	ShortBio Text
	FullBio  Text
	History  Text
	Image    *Media
}

// Service is one bookable offering.
type Service struct {
	Title           Text
	Description     Text
	FullDescription Text
	Price           Text
	Duration        Text
	Category        Text
	ButtonColor     Text
	Features        []string
	Order           *int
}

// Platform identifies a social network.
type Platform string

const (
	PlatformInstagram  Platform = "instagram"
	PlatformSpotify    Platform = "spotify"
	PlatformAppleMusic Platform = "apple-music"
	PlatformYouTube    Platform = "youtube"
	PlatformFacebook   Platform = "facebook"
	PlatformTwitter    Platform = "twitter"
	PlatformOther      Platform = "other"
)

// ParsePlatform normalises a platform name; anything unrecognised is PlatformOther.
func ParsePlatform(raw string) Platform {
	switch p := Platform(strings.ToLower(strings.TrimSpace(raw))); p {
	case PlatformInstagram, PlatformSpotify, PlatformAppleMusic, PlatformYouTube, PlatformFacebook, PlatformTwitter:
		return p
	case "applemusic", "apple_music":
		return PlatformAppleMusic
	case "x":
		return PlatformTwitter
	default:
		return PlatformOther
	}
}

// SocialMedia is one social profile link.
type SocialMedia struct {
	Platform Platform
	URL      Text
}

// GalleryType discriminates gallery entries.
type GalleryType string

const (
	GalleryImage   GalleryType = "image"
	GallerySpotify GalleryType = "spotify"
	GalleryYouTube GalleryType = "youtube"
)

// GalleryItem is an image or an embedded player. Unknown types are kept so the
// renderer can skip them.
type GalleryItem struct {
	Type     GalleryType
	Title    Text
	Media    *Media
	EmbedURL Text
}

// Media is an uploaded file reference. URL is relative to the media origin
// unless already absolute.
type Media struct {
	URL             string
	Name            string
	AlternativeText string
	Width           int
	Height          int
	Formats         map[string]MediaFormat
}

// MediaFormat is one derived size of an uploaded image.
type MediaFormat struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ContactInfo is the single-type booking contact block.
type ContactInfo struct {
	Email          Text
	Phone          Text
	WhatsApp       Text
	ContactMessage Text
}

// TimelineEvent is one milestone in the band history.
type TimelineEvent struct {
	Year        Text
	Title       Text
	Description Text
	Order       *int
}

// BandMember is one musician profile.
type BandMember struct {
	Name  Text
	Role  Text
	Bio   Text
	Photo *Media
	Order *int
}

// SiteSetting is the global layout configuration.
type SiteSetting struct {
	SiteName     Text
	Tagline      Text
	AboutText    Text
	ContactEmail Text
	ContactPhone Text
	HeroImage    *Media
	SocialLinks  map[Platform]string
}

// ContactSubmission is the booking enquiry posted by the contact form.
type ContactSubmission struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	EventType string `json:"eventType,omitempty"`
	EventDate string `json:"eventDate,omitempty"`
	Message   string `json:"message"`
}

// DecodeBandInfo validates a band-info record. name/description are accepted
// as aliases of bandName/shortBio.
func DecodeBandInfo(rec Record) (BandInfo, error) {
	var raw struct {
		BandName    Text            `json:"bandName"`
		Name        Text            `json:"name"`
		ShortBio    Text            `json:"shortBio"`
		Description Text            `json:"description"`
		FullBio     Text            `json:"fullBio"`
		History     Text            `json:"history"`
		Image       json.RawMessage `json:"image"`
	}
	if err := rec.Decode(&raw); err != nil {
		return BandInfo{}, err
	}
	image, err := decodeMedia(raw.Image)
	if err != nil {
		return BandInfo{}, fmt.Errorf("cms: band-info image: %w", err)
	}
	return BandInfo{
		BandName: firstText(raw.BandName, raw.Name),
		ShortBio: firstText(raw.ShortBio, raw.Description),
		FullBio:  raw.FullBio,
		History:  raw.History,
		Image:    image,
	}, nil
}

// DecodeService validates a service record.
func DecodeService(rec Record) (Service, error) {
	var raw struct {
		Title           Text `json:"title"`
		Name            Text `json:"name"`
		Description     Text `json:"description"`
		FullDescription Text `json:"fullDescription"`
		Price           Text `json:"price"`
		Duration        Text `json:"duration"`
		Category        Text `json:"category"`
		ButtonColor     Text `json:"buttonColor"`
		Features        any  `json:"features"`
		Order           *int `json:"order"`
	}
	if err := rec.Decode(&raw); err != nil {
		return Service{}, err
	}
	return Service{
		Title:           firstText(raw.Title, raw.Name),
		Description:     raw.Description,
		FullDescription: raw.FullDescription,
		Price:           raw.Price,
		Duration:        raw.Duration,
		Category:        raw.Category,
		ButtonColor:     raw.ButtonColor,
		Features:        featureList(raw.Features),
		Order:           raw.Order,
	}, nil
}

// featureList keeps the string entries of a features JSON field. The field
// is free-form in the content API, so objects, numbers and blanks are
// skipped rather than failing the record.
func featureList(v any) []string {
	var items []any
	switch typed := v.(type) {
	case []any:
		items = typed
	case string:
		items = []any{typed}
	default:
		return nil
	}
	var out []string
	for _, item := range items {
		if text, ok := item.(string); ok && strings.TrimSpace(text) != "" {
			out = append(out, text)
		}
	}
	return out
}

// DecodeSocialMedia validates a social-media record.
func DecodeSocialMedia(rec Record) (SocialMedia, error) {
	var raw struct {
		Platform Text `json:"platform"`
		URL      Text `json:"url"`
	}
	if err := rec.Decode(&raw); err != nil {
		return SocialMedia{}, err
	}
	return SocialMedia{Platform: ParsePlatform(raw.Platform.String()), URL: raw.URL}, nil
}

// DecodeGalleryItem validates a gallery-item record.
func DecodeGalleryItem(rec Record) (GalleryItem, error) {
	var raw struct {
		Type     Text            `json:"type"`
		Title    Text            `json:"title"`
		Media    json.RawMessage `json:"media"`
		EmbedURL Text            `json:"embedUrl"`
	}
	if err := rec.Decode(&raw); err != nil {
		return GalleryItem{}, err
	}
	media, err := decodeMedia(raw.Media)
	if err != nil {
		return GalleryItem{}, fmt.Errorf("cms: gallery-item %d media: %w", rec.ID, err)
	}
	return GalleryItem{
		Type:     GalleryType(strings.ToLower(raw.Type.String())),
		Title:    raw.Title,
		Media:    media,
		EmbedURL: raw.EmbedURL,
	}, nil
}

// DecodeContactInfo validates the contact-info record.
func DecodeContactInfo(rec Record) (ContactInfo, error) {
	var raw struct {
		Email          Text `json:"email"`
		Phone          Text `json:"phone"`
		WhatsApp       Text `json:"whatsapp"`
		ContactMessage Text `json:"contactMessage"`
	}
	if err := rec.Decode(&raw); err != nil {
		return ContactInfo{}, err
	}
	return ContactInfo(raw), nil
}

// DecodeTimelineEvent validates a timeline-event record.
func DecodeTimelineEvent(rec Record) (TimelineEvent, error) {
	var raw struct {
		Year        Text `json:"year"`
		Title       Text `json:"title"`
		Description Text `json:"description"`
		Order       *int `json:"order"`
	}
	if err := rec.Decode(&raw); err != nil {
		return TimelineEvent{}, err
	}
	return TimelineEvent(raw), nil
}

// DecodeBandMember validates a band-member record.
func DecodeBandMember(rec Record) (BandMember, error) {
	var raw struct {
		Name  Text            `json:"name"`
		Role  Text            `json:"role"`
		Bio   Text            `json:"bio"`
		Photo json.RawMessage `json:"photo"`
		Order *int            `json:"order"`
	}
	if err := rec.Decode(&raw); err != nil {
		return BandMember{}, err
	}
	photo, err := decodeMedia(raw.Photo)
	if err != nil {
		return BandMember{}, fmt.Errorf("cms: band-member %d photo: %w", rec.ID, err)
	}
	return BandMember{Name: raw.Name, Role: raw.Role, Bio: raw.Bio, Photo: photo, Order: raw.Order}, nil
}

// DecodeSiteSetting validates the site-setting record.
func DecodeSiteSetting(rec Record) (SiteSetting, error) {
	var raw struct {
		SiteName     Text              `json:"siteName"`
		Tagline      Text              `json:"tagline"`
		AboutText    Text              `json:"aboutText"`
		ContactEmail Text              `json:"contactEmail"`
		ContactPhone Text              `json:"contactPhone"`
		HeroImage    json.RawMessage   `json:"heroImage"`
		SocialMedia  map[string]string `json:"socialMedia"`
	}
	if err := rec.Decode(&raw); err != nil {
		return SiteSetting{}, err
	}
	hero, err := decodeMedia(raw.HeroImage)
	if err != nil {
		return SiteSetting{}, fmt.Errorf("cms: site-setting heroImage: %w", err)
	}
	var links map[Platform]string
	if len(raw.SocialMedia) > 0 {
		links = make(map[Platform]string, len(raw.SocialMedia))
		for name, link := range raw.SocialMedia {
			link = strings.TrimSpace(link)
			if link == "" {
				continue
			}
			// Unknown platforms keep their own key so .social-<name> anchors still match.
			p := ParsePlatform(name)
			if p == PlatformOther {
				p = Platform(strings.ToLower(strings.TrimSpace(name)))
			}
			links[p] = link
		}
	}
	return SiteSetting{
		SiteName:     raw.SiteName,
		Tagline:      raw.Tagline,
		AboutText:    raw.AboutText,
		ContactEmail: raw.ContactEmail,
		ContactPhone: raw.ContactPhone,
		HeroImage:    hero,
		SocialLinks:  links,
	}, nil
}

// SortedPlatforms returns the social link keys in a stable order.
func (s SiteSetting) SortedPlatforms() []Platform {
	out := make([]Platform, 0, len(s.SocialLinks))
	for p := range s.SocialLinks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type mediaAttributes struct {
	URL             string                 `json:"url"`
	Name            string                 `json:"name"`
	AlternativeText string                 `json:"alternativeText"`
	Width           int                    `json:"width"`
	Height          int                    `json:"height"`
	Formats         map[string]MediaFormat `json:"formats"`
}

// decodeMedia reads a media relation in either the populated relation shape
// {data:{id,attributes:{url}}} or the flat shape {url}. Null, missing and
// empty relations yield nil.
func decodeMedia(raw json.RawMessage) (*Media, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, ErrNotObject
	}
	if data, ok := probe["data"]; ok {
		env := Envelope{Data: data}
		rec, found, err := env.Single()
		if err != nil || !found {
			return nil, err
		}
		trimmed = rec.Attributes
	}
	var attrs mediaAttributes
	if err := json.Unmarshal(trimmed, &attrs); err != nil {
		return nil, err
	}
	if strings.TrimSpace(attrs.URL) == "" {
		return nil, nil
	}
	return &Media{
		URL:             attrs.URL,
		Name:            attrs.Name,
		AlternativeText: attrs.AlternativeText,
		Width:           attrs.Width,
		Height:          attrs.Height,
		Formats:         attrs.Formats,
	}, nil
}

// MediaURL joins the fixed media origin and a relative upload path. Absolute
// URLs pass through unchanged.
func MediaURL(origin, relative string) string {
	relative = strings.TrimSpace(relative)
	if relative == "" {
		return ""
	}
	lower := strings.ToLower(relative)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(relative, "//") {
		return relative
	}
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if !strings.HasPrefix(relative, "/") {
		relative = "/" + relative
	}
	return origin + relative
}

// OrderValue returns the sort key, placing unordered entries last.
func OrderValue(order *int) int {
	if order == nil {
		return int(^uint(0) >> 1)
	}
	return *order
}

func firstText(values ...Text) Text {
	for _, v := range values {
		if v.Present() {
			return v
		}
	}
	return ""
}
